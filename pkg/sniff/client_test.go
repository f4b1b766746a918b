/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client_test.go
Description: Tests for the asynchronous client: the four operations, the coarse and
strict I/O policies, concurrent mixed workloads, and shutdown.
*/

package sniff_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/sniff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("any trailing bytes")...)
	pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
)

func newClient(t *testing.T, opts ...sniff.Option) *sniff.Client {
	t.Helper()
	c, err := sniff.New(append([]sniff.Option{sniff.WithRegistry(detect.NewRegistry()), sniff.WithWorkers(4)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestInferFromBuffer(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	inputs := [][]byte{nil, {}, pngBytes, pdfBytes, []byte("hello"), {0xde, 0xad, 0xbe, 0xef}}
	for _, b := range inputs {
		f, err := c.InferFromBuffer(ctx, b)
		require.NoError(t, err)

		id, err := f.Await(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.True(t, c.Registry().Known(id), "%s", id)

		ok, err := c.Match(ctx, id.String(), b)
		require.NoError(t, err)
		assert.True(t, ok, "content should match its own inferred type %s", id)
	}
}

func TestPDFHeader(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	id, err := c.Infer(ctx, pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, detect.Identifier("application/pdf"), id)

	ok, err := c.Match(ctx, "application/pdf", pdfBytes)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Match(ctx, "image/png", pdfBytes)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchBuffer(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	f, err := c.MatchBuffer(ctx, "image/png", pngBytes)
	require.NoError(t, err)
	ok, err := f.Await(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, claim := range []string{"image/gif", "application/pdf", "other_unrelated_type", ""} {
		ok, err := c.Match(ctx, claim, pngBytes)
		require.NoError(t, err)
		assert.False(t, ok, claim)
	}
}

func TestInferFromPath(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	path := writeFile(t, "image.txt", pngBytes)

	f, err := c.InferFromPath(ctx, path)
	require.NoError(t, err)
	got, err := f.Await(ctx)
	require.NoError(t, err)

	id, ok := got.Get()
	assert.True(t, ok)
	assert.Equal(t, detect.Identifier("image/png"), id)

	match, err := c.MatchFile(ctx, "image/png", path)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = c.MatchFile(ctx, "other_unrelated_type", path)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestCoarsePathErrors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "nonexistent")

	got, err := c.InferPath(ctx, missing)
	require.NoError(t, err)
	assert.False(t, got.Present)
	assert.Equal(t, sniff.None, got)

	f, err := c.MatchPath(ctx, "application/octet-stream", missing)
	require.NoError(t, err)
	ok, err := f.Await(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Directories are not readable content
	got, err = c.InferPath(ctx, t.TempDir())
	require.NoError(t, err)
	assert.False(t, got.Present)
}

func TestStrictPathErrors(t *testing.T) {
	c := newClient(t, sniff.WithStrictIO(true))
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "nonexistent")
	assert.True(t, c.StrictIO())

	got, err := c.InferPath(ctx, missing)
	assert.ErrorIs(t, err, detect.ErrUnreadable)
	assert.False(t, got.Present)

	ok, err := c.MatchFile(ctx, "image/png", missing)
	assert.ErrorIs(t, err, detect.ErrUnreadable)
	assert.False(t, ok)

	// Readable files behave as in coarse mode
	path := writeFile(t, "doc", pdfBytes)
	got, err = c.InferPath(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, sniff.Some("application/pdf"), got)
}

func TestConcurrentMixedCalls(t *testing.T) {
	c := newClient(t, sniff.WithQueueSize(2))
	ctx := context.Background()

	pngPath := writeFile(t, "a", pngBytes)
	pdfPath := writeFile(t, "b", pdfBytes)
	missing := filepath.Join(t.TempDir(), "missing")

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			id, err := c.Infer(ctx, pngBytes)
			assert.NoError(t, err)
			assert.Equal(t, detect.Identifier("image/png"), id)
		}()
		go func() {
			defer wg.Done()
			got, err := c.InferPath(ctx, pdfPath)
			assert.NoError(t, err)
			assert.Equal(t, sniff.Some("application/pdf"), got)
		}()
		go func() {
			defer wg.Done()
			ok, err := c.Match(ctx, "application/pdf", pngBytes)
			assert.NoError(t, err)
			assert.False(t, ok)
		}()
		go func(i int) {
			defer wg.Done()
			path := pngPath
			if i%2 == 1 {
				path = missing
			}
			ok, err := c.MatchFile(ctx, "image/png", path)
			assert.NoError(t, err)
			assert.Equal(t, i%2 == 0, ok)
		}(i)
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, int64(rounds*4), stats["completed"])
	assert.Equal(t, false, stats["strict_io"])
}

func TestFuturesInFlight(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	futures := make([]*core.Future[detect.Identifier], 0, 20)
	for i := 0; i < 20; i++ {
		data := pngBytes
		if i%2 == 1 {
			data = pdfBytes
		}
		f, err := c.InferFromBuffer(ctx, data)
		require.NoError(t, err)
		futures = append(futures, f)
	}

	// Await in reverse submission order
	for i := len(futures) - 1; i >= 0; i-- {
		id, err := futures[i].Await(ctx)
		require.NoError(t, err)
		want := detect.Identifier("image/png")
		if i%2 == 1 {
			want = "application/pdf"
		}
		assert.Equal(t, want, id, fmt.Sprintf("future %d", i))
	}
}

func TestClosedClient(t *testing.T) {
	c, err := sniff.New(sniff.WithWorkers(1))
	require.NoError(t, err)

	f, err := c.InferFromBuffer(context.Background(), pngBytes)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// Work accepted before Close still resolves
	id, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, detect.Identifier("image/png"), id)

	_, err = c.InferFromBuffer(context.Background(), pngBytes)
	assert.ErrorIs(t, err, core.ErrSchedulerClosed)
	_, err = c.MatchFile(context.Background(), "image/png", "whatever")
	assert.ErrorIs(t, err, core.ErrSchedulerClosed)
}

func TestSharedScheduler(t *testing.T) {
	s := core.NewScheduler(&core.SchedulerConfig{Workers: 2, QueueSize: 4}, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	c, err := sniff.New(sniff.WithScheduler(s))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// Closing the client leaves a caller-owned scheduler running
	assert.True(t, s.IsRunning())
	ok, err := c.Match(context.Background(), "image/png", pngBytes)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOptionalJSON(t *testing.T) {
	b, err := json.Marshal(map[string]sniff.Optional{"a": sniff.Some("image/png"), "b": sniff.None})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "image/png", "b": null}`, string(b))

	var decoded map[string]sniff.Optional
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, sniff.Some("image/png"), decoded["a"])
	assert.Equal(t, sniff.None, decoded["b"])
	assert.Equal(t, "", decoded["b"].String())
}
