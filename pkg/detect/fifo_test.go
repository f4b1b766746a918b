/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fifo_test.go
Description: Named pipes must be rejected without blocking.
*/

//go:build linux || darwin

package detect_test

import (
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferFileFIFO(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "pipe")
	require.NoError(t, syscall.Mkfifo(fifo, 0644))

	r := detect.NewRegistry()
	done := make(chan struct{})
	go func() {
		defer close(done)

		_, err := r.InferFile(fifo)
		assert.ErrorIs(t, err, detect.ErrUnreadable)

		ok, err := r.MatchFile("application/octet-stream", fifo)
		assert.ErrorIs(t, err, detect.ErrUnreadable)
		assert.False(t, ok)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reading a named pipe blocked")
	}
}
