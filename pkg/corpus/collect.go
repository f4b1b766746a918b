/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: collect.go
Description: Collection of labelled samples from a corpus directory. The path of
each file relative to the corpus root is its expected type, e.g. image/png.
*/

package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kleascm/magicsniff/pkg/detect"
	gitignore "github.com/sabhiram/go-gitignore"
)

// SkipSuffix marks files and directories left out of verification
const SkipSuffix = "skip-test"

// IgnoreFile holds extra exclude patterns when present in the corpus root
const IgnoreFile = ".magicsniffignore"

// Sample is one labelled corpus file
type Sample struct {
	Path     string            `json:"path"`
	Expected detect.Identifier `json:"expected"`
}

// Collect walks root and returns its samples sorted by expected type.
// Entries whose name ends in SkipSuffix, the ignore file itself, and paths
// matching gitignore-style excludes are skipped.
func Collect(root string, excludes []string) ([]Sample, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus %s is not a directory", root)
	}

	matcher, err := newMatcher(root, excludes)
	if err != nil {
		return nil, err
	}

	var samples []Sample
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		skip := strings.HasSuffix(d.Name(), SkipSuffix) ||
			(rel == IgnoreFile && !d.IsDir()) ||
			(matcher != nil && matcher.MatchesPath(rel))
		if skip {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() {
			samples = append(samples, Sample{Path: path, Expected: detect.Identifier(rel)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Expected < samples[j].Expected })
	return samples, nil
}

func newMatcher(root string, excludes []string) (*gitignore.GitIgnore, error) {
	patterns := append([]string(nil), excludes...)

	content, err := os.ReadFile(filepath.Join(root, IgnoreFile))
	switch {
	case err == nil:
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFile, err)
	}

	if len(patterns) == 0 {
		return nil, nil
	}
	return gitignore.CompileIgnoreLines(patterns...), nil
}
