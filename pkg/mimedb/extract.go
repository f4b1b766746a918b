/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extract.go
Description: Unpacking of a downloaded database archive. Finds the archive directory
that holds the required files and writes everything below it into the target
directory using a bounded pool of goroutines.
*/

package mimedb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// ErrInvalidArchive is returned when an archive has no usable database
var ErrInvalidArchive = errors.New("archive holds no valid database")

// DefaultConcurrency bounds parallel file writes during extraction
const DefaultConcurrency = 8

// Extract unpacks the database inside data into dest
func Extract(ctx context.Context, data []byte, dest string, concurrency int) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}

	base, err := archiveBaseDir(reader.File)
	if err != nil {
		return err
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dest, err)
	}

	type entry struct {
		file   *zip.File
		target string
	}
	var entries []entry
	for _, file := range reader.File {
		rel, ok := relativeTo(base, file.Name)
		if !ok || strings.HasSuffix(file.Name, "/") {
			continue
		}

		target := filepath.Join(absDest, filepath.FromSlash(rel))
		if !strings.HasPrefix(target, absDest+string(os.PathSeparator)) {
			return fmt.Errorf("%w: entry %q escapes target directory", ErrInvalidArchive, file.Name)
		}
		entries = append(entries, entry{file: file, target: target})
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(concurrency).WithCancelOnError()
	for _, e := range entries {
		e := e
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeEntry(e.file, e.target)
		})
	}

	if err := p.Wait(); err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}
	return nil
}

// Install downloads the database and unpacks it into dest
func Install(ctx context.Context, fetcher *Fetcher, dest string, concurrency int) error {
	data, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := Extract(ctx, data, dest, concurrency); err != nil {
		return err
	}
	if err := describeMissing(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	return nil
}

// Ensure returns an installed database directory, downloading one into the
// locator's explicit or default directory when none is found
func Ensure(ctx context.Context, locator *Locator, fetcher *Fetcher, logger *logrus.Logger) (string, error) {
	if dir, err := locator.Locate(); err == nil {
		return dir, nil
	}

	dest := locator.Dir
	if dest == "" {
		dest = locator.DefaultDir()
	}
	if logger == nil {
		logger = fetcher.log()
	}

	logger.WithFields(logrus.Fields{
		"url":  fetcher.URL,
		"dest": dest,
	}).Warn("No mime database found, downloading")

	if err := Install(ctx, fetcher, dest, DefaultConcurrency); err != nil {
		return "", err
	}
	return dest, nil
}

// archiveBaseDir picks the directory inside the archive that holds the
// required files. A single candidate wins outright; otherwise the first
// candidate (in lexical order) that holds all of them is used.
func archiveBaseDir(files []*zip.File) (string, error) {
	required := make(map[string]struct{}, len(RequiredFiles))
	for _, name := range RequiredFiles {
		required[name] = struct{}{}
	}

	children := make(map[string]map[string]struct{})
	candidates := make(map[string]struct{})
	for _, f := range files {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		dir, name := path.Split(f.Name)
		dir = strings.TrimSuffix(dir, "/")
		if children[dir] == nil {
			children[dir] = make(map[string]struct{})
		}
		children[dir][name] = struct{}{}
		if _, ok := required[name]; ok {
			candidates[dir] = struct{}{}
		}
	}

	if len(candidates) == 1 {
		for dir := range candidates {
			return dir, nil
		}
	}

	sorted := make([]string, 0, len(candidates))
	for dir := range candidates {
		sorted = append(sorted, dir)
	}
	sort.Strings(sorted)

	for _, dir := range sorted {
		complete := true
		for name := range required {
			if _, ok := children[dir][name]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return dir, nil
		}
	}

	return "", ErrInvalidArchive
}

// relativeTo returns name relative to base when it lies below it
func relativeTo(base, name string) (string, bool) {
	if base == "" {
		return name, true
	}
	if !strings.HasPrefix(name, base+"/") {
		return "", false
	}
	return strings.TrimPrefix(name, base+"/"), true
}

func writeEntry(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", file.Name, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return dst.Close()
}
