/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: paths.go
Description: Confinement of client-supplied paths to the configured root.
*/

package server

import (
	"errors"
	"path/filepath"
	"strings"
)

var errOutsideRoot = errors.New("path is outside the served root")

func resolveRoot(root string) string {
	if root == "" {
		return ""
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Clean(root)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// confine maps a requested path onto the root. Relative paths are taken
// from the root; symlinks are followed before the containment check.
func (s *Server) confine(path string) (string, error) {
	if s.root == "" {
		return path, nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)
	// An unresolvable path cannot be opened either; it is checked lexically
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return path, nil
}
