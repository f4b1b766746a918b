/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: tables.go
Description: Alias and subclass tables read from a shared-mime-info database. The
tables extend the detector's built-in hierarchy so that a claimed type matches
when it is an alias or a declared superclass of the detected type.
*/

package mimedb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Tables holds the alias and subclass relations of a database.
// A Tables value is read-only once built and safe for concurrent use.
type Tables struct {
	aliases map[string]string   // alias -> canonical type
	parents map[string][]string // canonical type -> declared superclasses
}

// NewTables builds tables from already parsed relations
func NewTables(aliases map[string]string, parents map[string][]string) *Tables {
	if aliases == nil {
		aliases = make(map[string]string)
	}
	if parents == nil {
		parents = make(map[string][]string)
	}
	return &Tables{aliases: aliases, parents: parents}
}

// LoadTables reads the aliases and subclasses files from dir
func LoadTables(dir string) (*Tables, error) {
	if err := describeMissing(dir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDatabase, err)
	}

	aliases, err := readTable(filepath.Join(dir, "aliases"), ParseAliases)
	if err != nil {
		return nil, err
	}

	subclasses, err := readTable(filepath.Join(dir, "subclasses"), ParseSubclasses)
	if err != nil {
		return nil, err
	}

	return NewTables(aliases, subclasses), nil
}

func readTable[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T

	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	table, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return table, nil
}

// ParseAliases parses "alias canonical" lines
func ParseAliases(r io.Reader) (map[string]string, error) {
	aliases := make(map[string]string)
	err := scanPairs(r, func(alias, canonical string) {
		aliases[alias] = canonical
	})
	return aliases, err
}

// ParseSubclasses parses "child parent" lines
func ParseSubclasses(r io.Reader) (map[string][]string, error) {
	parents := make(map[string][]string)
	err := scanPairs(r, func(child, parent string) {
		parents[child] = append(parents[child], parent)
	})
	return parents, err
}

func scanPairs(r io.Reader, add func(a, b string)) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return fmt.Errorf("line %d: expected 2 fields, got %d", line, len(fields))
		}
		add(strings.ToLower(fields[0]), strings.ToLower(fields[1]))
	}
	return scanner.Err()
}

// Canonical resolves an alias to its canonical type
func (t *Tables) Canonical(id string) string {
	id = strings.ToLower(id)
	if canonical, ok := t.aliases[id]; ok {
		return canonical
	}
	return id
}

// Parents returns the declared superclasses of id
func (t *Tables) Parents(id string) []string {
	return t.parents[t.Canonical(id)]
}

// Subsumes reports whether claim names detected itself, one of its aliases,
// or one of its transitive superclasses
func (t *Tables) Subsumes(claim, detected string) bool {
	if t == nil {
		return false
	}
	want := t.Canonical(claim)

	queue := []string{t.Canonical(detected)}
	seen := map[string]struct{}{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == want {
			return true
		}
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		for _, p := range t.parents[cur] {
			queue = append(queue, t.Canonical(p))
		}
	}
	return false
}

// Len returns the number of aliases and of types with declared superclasses
func (t *Tables) Len() (aliases, subclasses int) {
	return len(t.aliases), len(t.parents)
}
