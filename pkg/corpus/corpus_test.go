/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: corpus_test.go
Description: Tests for corpus collection, skip and exclude rules, verification
reports, and report output.
*/

package corpus_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/magicsniff/pkg/corpus"
	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/sniff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, 0, 0, 0, 0)
	pdfBytes = []byte("%PDF-1.5\n%\xb5\xed\xae\xfb\n")
)

// buildCorpus lays out files as <root>/<type>
func buildCorpus(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, data, 0644))
	}
	return root
}

func TestCollect(t *testing.T) {
	root := buildCorpus(t, map[string][]byte{
		"image/png":                   pngBytes,
		"application/pdf":             pdfBytes,
		"image/x-broken-skip-test":    {0x00},
		"video/skip-test/mp4":         {0x00},
		"text/x-generated":            []byte("generated"),
		"application/vnd.custom/blob": {0x01},
		".magicsniffignore":           []byte("# local rules\napplication/vnd.custom/\n"),
	})

	samples, err := corpus.Collect(root, []string{"text/x-generated"})
	require.NoError(t, err)

	require.Len(t, samples, 2)
	assert.Equal(t, detect.Identifier("application/pdf"), samples[0].Expected)
	assert.Equal(t, detect.Identifier("image/png"), samples[1].Expected)
	assert.Equal(t, filepath.Join(root, "image", "png"), samples[1].Path)
}

func TestCollectErrors(t *testing.T) {
	_, err := corpus.Collect(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	root := buildCorpus(t, map[string][]byte{"file": nil})
	_, err = corpus.Collect(filepath.Join(root, "file"), nil)
	assert.ErrorContains(t, err, "not a directory")
}

func TestVerify(t *testing.T) {
	root := buildCorpus(t, map[string][]byte{
		"image/png":        pngBytes,
		"application/pdf":  pdfBytes,
		"text/plain":       []byte("just words\n"),
		"image/gif":        pngBytes, // mislabelled
		"application/json": []byte("not json at all"),
	})

	client, err := sniff.New(sniff.WithRegistry(detect.NewRegistry()), sniff.WithWorkers(2))
	require.NoError(t, err)
	defer client.Close()

	report, err := corpus.NewVerifier(client, 3, nil).Verify(context.Background(), root, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Passed)
	assert.Equal(t, 2, report.Failed)
	assert.False(t, report.OK())

	failures := map[detect.Identifier]corpus.Result{}
	for _, f := range report.Failures {
		failures[f.Expected] = f
	}
	require.Contains(t, failures, detect.Identifier("image/gif"))
	assert.Equal(t, detect.Identifier("image/png"), failures["image/gif"].Actual)
	assert.False(t, failures["image/gif"].Consistent)
	require.Contains(t, failures, detect.Identifier("application/json"))
	assert.Equal(t, detect.Identifier("text/plain"), failures["application/json"].Actual)
}

func TestVerifyAllPass(t *testing.T) {
	root := buildCorpus(t, map[string][]byte{
		"image/png":       pngBytes,
		"application/pdf": pdfBytes,
	})

	client, err := sniff.New(sniff.WithRegistry(detect.NewRegistry()), sniff.WithWorkers(1), sniff.WithQueueSize(0))
	require.NoError(t, err)
	defer client.Close()

	report, err := corpus.NewVerifier(client, 0, nil).Verify(context.Background(), root, nil)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, report.Failures)
}

func TestVerifyClosedClient(t *testing.T) {
	root := buildCorpus(t, map[string][]byte{"image/png": pngBytes})

	client, err := sniff.New(sniff.WithWorkers(1))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = corpus.NewVerifier(client, 1, nil).Verify(context.Background(), root, nil)
	assert.ErrorContains(t, err, "verification aborted")
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	report := &corpus.Report{ID: "run", Root: "data", Total: 1, Passed: 1}

	path, err := corpus.WriteReport(dir, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "verify"), filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded corpus.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run", decoded.ID)
	assert.Equal(t, 1, decoded.Passed)
}
