/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: describe.go
Description: Extended description of a piece of content: detected type, canonical
extension, ancestor chain including database superclasses, and a
programming-language hint for text content.
*/

package detect

import (
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-enry/go-enry/v2"
)

// Description is a detailed detection result
type Description struct {
	Type      Identifier   `json:"type"`
	Extension string       `json:"extension,omitempty"`
	Parents   []Identifier `json:"parents,omitempty"`
	Language  string       `json:"language,omitempty"` // Only set for text content
}

// Describe detects content and collects the surrounding hierarchy.
// name is used only for the language hint and may be empty.
func (r *Registry) Describe(name string, content []byte) Description {
	m := mimetype.Detect(content)

	desc := Description{
		Type:      bare(m),
		Extension: m.Extension(),
	}

	text := m.Is("text/plain")
	for p := m.Parent(); p != nil; p = p.Parent() {
		desc.Parents = append(desc.Parents, bare(p))
		if p.Is("text/plain") {
			text = true
		}
	}

	desc.Parents = append(desc.Parents, r.declaredParents(desc.Type, desc.Parents)...)

	if text && !enry.IsBinary(content) {
		desc.Language = enry.GetLanguage(filepath.Base(name), content)
	}

	return desc
}

// declaredParents walks the database superclasses of id, skipping known ones
func (r *Registry) declaredParents(id Identifier, known []Identifier) []Identifier {
	if r.tables == nil {
		return nil
	}

	seen := map[Identifier]bool{id: true}
	for _, p := range known {
		seen[p] = true
	}

	var out []Identifier
	queue := r.tables.Parents(string(id))
	for len(queue) > 0 {
		cur := Identifier(r.tables.Canonical(queue[0]))
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, r.tables.Parents(string(cur))...)
	}
	return out
}
