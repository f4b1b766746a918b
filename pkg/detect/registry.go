/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: registry.go
Description: Type detection registry. Delegates content sniffing to the mimetype
library, reports identifiers without media-type parameters, and resolves claimed
types against the library hierarchy plus optional shared-mime-info tables.
*/

package detect

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kleascm/magicsniff/pkg/mimedb"
)

// Identifier names a content type, e.g. "image/png"
type Identifier string

// String returns the identifier text
func (id Identifier) String() string { return string(id) }

// Fallback is reported for content the library cannot classify
const Fallback Identifier = "application/octet-stream"

// ErrUnreadable marks a path whose content could not be read
var ErrUnreadable = errors.New("file content unreadable")

// Registry is the process-facing handle on the detection library.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	tables    *mimedb.Tables
	readLimit uint32
}

// Option configures a Registry
type Option func(*Registry)

// WithTables adds alias and subclass relations from a shared-mime-info database
func WithTables(t *mimedb.Tables) Option {
	return func(r *Registry) { r.tables = t }
}

// WithReadLimit sets how many leading bytes are inspected. The limit is
// process-wide inside the mimetype library; zero keeps its default.
func WithReadLimit(n uint32) Option {
	return func(r *Registry) { r.readLimit = n }
}

// NewRegistry creates a registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	if r.readLimit > 0 {
		mimetype.SetLimit(r.readLimit)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry, built on first use. If a
// shared-mime-info database is installed its tables are merged in.
func Default() *Registry {
	defaultOnce.Do(func() {
		var opts []Option
		if dir, err := mimedb.DefaultLocator().Locate(); err == nil {
			if tables, err := mimedb.LoadTables(dir); err == nil {
				opts = append(opts, WithTables(tables))
			}
		}
		defaultRegistry = NewRegistry(opts...)
	})
	return defaultRegistry
}

// Tables returns the merged database tables, or nil
func (r *Registry) Tables() *mimedb.Tables { return r.tables }

// Infer returns the most likely type of b. It never fails.
func (r *Registry) Infer(b []byte) Identifier {
	return bare(mimetype.Detect(b))
}

// InferFile returns the type of the file at path. Errors wrap ErrUnreadable.
func (r *Registry) InferFile(path string) (Identifier, error) {
	m, err := detectFile(path)
	if err != nil {
		return "", err
	}
	return bare(m), nil
}

// Match reports whether b is consistent with claim
func (r *Registry) Match(claim string, b []byte) bool {
	return r.matches(claim, mimetype.Detect(b))
}

// MatchFile reports whether the file at path is consistent with claim.
// Errors wrap ErrUnreadable.
func (r *Registry) MatchFile(claim, path string) (bool, error) {
	m, err := detectFile(path)
	if err != nil {
		return false, err
	}
	return r.matches(claim, m), nil
}

// Known reports whether id is one of the library's identifiers or aliases
func (r *Registry) Known(id Identifier) bool {
	return mimetype.Lookup(normalize(string(id))) != nil
}

// matches walks the detected type and its ancestors
func (r *Registry) matches(claim string, detected *mimetype.MIME) bool {
	claim = normalize(claim)
	if claim == "" {
		return false
	}
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(claim) {
			return true
		}
		if r.tables != nil && r.tables.Subsumes(claim, string(bare(m))) {
			return true
		}
	}
	return false
}

func detectFile(path string) (*mimetype.MIME, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrUnreadable, path)
	}

	// A FIFO swapped in after the stat must not block the open
	f, err := os.OpenFile(path, openFlags, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	opened, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if !opened.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrUnreadable, path)
	}

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return m, nil
}

// bare strips media-type parameters. The result shares memory with the
// library's string.
func bare(m *mimetype.MIME) Identifier {
	s := m.String()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return Identifier(s)
}

func normalize(claim string) string {
	claim = strings.TrimSpace(claim)
	if i := strings.IndexByte(claim, ';'); i >= 0 {
		claim = strings.TrimSpace(claim[:i])
	}
	return strings.ToLower(claim)
}
