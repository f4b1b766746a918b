/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: registry_test.go
Description: Tests for the detection registry: buffer and file inference, claim
matching through the library hierarchy and database tables, and unreadable paths.
*/

package detect_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/mimedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("trailing bytes of no consequence")...)
	pdfBytes  = []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	gzipBytes = []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}
	jsonBytes = []byte(`{"name": "magicsniff", "ok": true}`)
	binBytes  = []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02, 0x03}
)

func samples() map[string][]byte {
	return map[string][]byte{
		"png":   pngBytes,
		"pdf":   pdfBytes,
		"gif":   gifBytes,
		"gzip":  gzipBytes,
		"json":  jsonBytes,
		"bin":   binBytes,
		"text":  []byte("plain words\n"),
		"empty": {},
		"nil":   nil,
	}
}

func TestInferKnownSignatures(t *testing.T) {
	r := detect.NewRegistry()

	assert.Equal(t, detect.Identifier("image/png"), r.Infer(pngBytes))
	assert.Equal(t, detect.Identifier("application/pdf"), r.Infer(pdfBytes))
	assert.Equal(t, detect.Identifier("image/gif"), r.Infer(gifBytes))
	assert.Equal(t, detect.Identifier("application/gzip"), r.Infer(gzipBytes))
	assert.Equal(t, detect.Identifier("application/json"), r.Infer(jsonBytes))
	assert.Equal(t, detect.Fallback, r.Infer(binBytes))
}

func TestInferStripsParameters(t *testing.T) {
	r := detect.NewRegistry()

	id := r.Infer([]byte("hello world"))
	assert.Equal(t, detect.Identifier("text/plain"), id)
	assert.NotContains(t, id.String(), ";")
}

func TestInferAlwaysKnown(t *testing.T) {
	r := detect.NewRegistry()

	for name, b := range samples() {
		id := r.Infer(b)
		assert.NotEmpty(t, id, name)
		assert.True(t, r.Known(id), "%s: %s should be a library identifier", name, id)
	}
}

func TestMatchSelfConsistent(t *testing.T) {
	r := detect.NewRegistry()

	for name, b := range samples() {
		assert.True(t, r.Match(r.Infer(b).String(), b), name)
	}
}

func TestMatchHierarchy(t *testing.T) {
	r := detect.NewRegistry()

	assert.True(t, r.Match("application/pdf", pdfBytes))
	assert.False(t, r.Match("image/png", pdfBytes))

	// JSON is a kind of text, and everything is octet-stream
	assert.True(t, r.Match("text/plain", jsonBytes))
	assert.True(t, r.Match("application/octet-stream", pngBytes))
	assert.False(t, r.Match("text/plain", pngBytes))

	// Claims are case and parameter insensitive
	assert.True(t, r.Match("IMAGE/PNG", pngBytes))
	assert.True(t, r.Match("application/json; charset=utf-8", jsonBytes))
}

func TestMatchUnknownClaim(t *testing.T) {
	r := detect.NewRegistry()

	assert.False(t, r.Match("", pngBytes))
	assert.False(t, r.Match("other_unrelated_type", pngBytes))
	assert.False(t, r.Match("application/x-not-a-real-type", pngBytes))
}

func TestMatchWithTables(t *testing.T) {
	aliases, err := mimedb.ParseAliases(strings.NewReader("image/x-png image/png\n"))
	require.NoError(t, err)
	parents, err := mimedb.ParseSubclasses(strings.NewReader("image/png image/x-raster\n"))
	require.NoError(t, err)

	plain := detect.NewRegistry()
	extended := detect.NewRegistry(detect.WithTables(mimedb.NewTables(aliases, parents)))

	assert.False(t, plain.Match("image/x-png", pngBytes))
	assert.True(t, extended.Match("image/x-png", pngBytes))
	assert.True(t, extended.Match("image/x-raster", pngBytes))
	assert.False(t, extended.Match("image/x-raster", pdfBytes))
}

func TestInferFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "picture.dat")
	require.NoError(t, os.WriteFile(path, pngBytes, 0644))

	r := detect.NewRegistry()

	id, err := r.InferFile(path)
	require.NoError(t, err)
	assert.Equal(t, detect.Identifier("image/png"), id)

	ok, err := r.MatchFile("image/png", path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.MatchFile("application/pdf", path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInferFileIgnoresExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.png")
	require.NoError(t, os.WriteFile(path, pdfBytes, 0644))

	id, err := detect.NewRegistry().InferFile(path)
	require.NoError(t, err)
	assert.Equal(t, detect.Identifier("application/pdf"), id)
}

func TestInferFileUnreadable(t *testing.T) {
	r := detect.NewRegistry()
	dir := t.TempDir()

	_, err := r.InferFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, detect.ErrUnreadable)

	_, err = r.InferFile(dir)
	assert.ErrorIs(t, err, detect.ErrUnreadable)

	ok, err := r.MatchFile("application/octet-stream", filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, detect.ErrUnreadable)
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	r := detect.NewRegistry()

	desc := r.Describe("main.go", []byte("package main\n\nfunc main() {}\n"))
	assert.Equal(t, detect.Identifier("text/plain"), desc.Type)
	assert.Equal(t, "Go", desc.Language)
	assert.Contains(t, desc.Parents, detect.Fallback)

	desc = r.Describe("", pngBytes)
	assert.Equal(t, detect.Identifier("image/png"), desc.Type)
	assert.Equal(t, ".png", desc.Extension)
	assert.Empty(t, desc.Language)
	assert.Equal(t, []detect.Identifier{detect.Fallback}, desc.Parents)
}

func TestDescribeWithTables(t *testing.T) {
	parents, err := mimedb.ParseSubclasses(strings.NewReader(
		"image/png image/x-raster\nimage/x-raster image/x-picture\nimage/x-picture image/x-raster\n"))
	require.NoError(t, err)
	r := detect.NewRegistry(detect.WithTables(mimedb.NewTables(nil, parents)))

	desc := r.Describe("", pngBytes)
	assert.Equal(t, []detect.Identifier{
		detect.Fallback,
		"image/x-raster",
		"image/x-picture",
	}, desc.Parents)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, detect.Default(), detect.Default())
}
