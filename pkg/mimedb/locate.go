/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: locate.go
Description: Discovery of an on-disk shared-mime-info database. Checks an explicit
directory, the default per-user data directory, and the well-known system data
directories for a mime/ tree holding the magic, aliases and subclasses files.
*/

package mimedb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// RequiredFiles are the files a directory must hold to count as a database
var RequiredFiles = []string{"magic", "aliases", "subclasses"}

// ErrNoDatabase is returned when no candidate directory holds a database
var ErrNoDatabase = errors.New("no shared-mime-info database found")

const (
	// EnvDir names an explicit database directory
	EnvDir = "TREE_MAGIC_DIR"
	// EnvURL overrides the download location
	EnvURL = "TREE_MAGIC_URL"

	defaultDataDirs = "/usr/local/share/:/usr/share/"
	macOSDataDir    = "/opt/homebrew/share/"
	mingwDataDir    = `C:\msys64\mingw64`

	// DefaultDirName is the directory created under the data home for downloads
	DefaultDirName = "tree_magic_db"
)

// Locator finds a database directory. The function fields exist so tests
// can run the search against a fake environment.
type Locator struct {
	Dir     string                 // Explicit directory, checked first
	Getenv  func(string) string    // Environment lookup
	HomeDir func() (string, error) // Home directory lookup
	GOOS    string                 // Platform used for the data home
}

// DefaultLocator returns a locator bound to the process environment
func DefaultLocator() *Locator {
	return &Locator{
		Dir:     os.Getenv(EnvDir),
		Getenv:  os.Getenv,
		HomeDir: os.UserHomeDir,
		GOOS:    runtime.GOOS,
	}
}

// DataHome returns the per-user data directory for the locator's platform
func (l *Locator) DataHome() string {
	if v := l.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}

	home, _ := l.HomeDir()

	switch l.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support")
	case "windows":
		if v := l.Getenv("APPDATA"); v != "" {
			return v
		}
		return filepath.Join(home, "AppData", "Roaming")
	default:
		return filepath.Join(home, ".local", "share")
	}
}

// DefaultDir is where a downloaded database is unpacked when no explicit
// directory is configured
func (l *Locator) DefaultDir() string {
	return filepath.Join(l.DataHome(), DefaultDirName)
}

// Candidates lists every directory the locator will try, in order
func (l *Locator) Candidates() []string {
	var dirs []string
	if l.Dir != "" {
		dirs = append(dirs, l.Dir)
	}
	dirs = append(dirs, l.DefaultDir())

	dataDirs := l.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = defaultDataDirs
	}

	xdgHome := l.Getenv("XDG_DATA_HOME")
	if xdgHome == "" {
		if home := l.Getenv("HOME"); home != "" {
			xdgHome = filepath.Join(home, ".local", "share")
		}
	}

	var bases []string
	for _, base := range filepath.SplitList(dataDirs) {
		if base = strings.TrimSpace(base); base != "" {
			bases = append(bases, base)
		}
	}
	// Fixed locations are not split: the mingw path carries a drive colon.
	for _, base := range []string{xdgHome, macOSDataDir, mingwDataDir} {
		if base != "" {
			bases = append(bases, base)
		}
	}

	seen := make(map[string]struct{}, len(dirs)+len(bases))
	for _, d := range dirs {
		seen[d] = struct{}{}
	}
	for _, base := range bases {
		dir := filepath.Join(base, "mime")
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	return dirs
}

// Locate returns the first candidate that holds a complete database
func (l *Locator) Locate() (string, error) {
	for _, dir := range l.Candidates() {
		if IsValidDir(dir) {
			return dir, nil
		}
	}
	return "", ErrNoDatabase
}

// IsValidDir reports whether every required file is present and readable
func IsValidDir(dir string) bool {
	if dir == "" {
		return false
	}
	for _, name := range RequiredFiles {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return false
		}
		f.Close()
	}
	return true
}

// describeMissing names the required files absent from dir
func describeMissing(dir string) error {
	var missing []string
	for _, name := range RequiredFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%s is missing %s", dir, strings.Join(missing, ", "))
}
