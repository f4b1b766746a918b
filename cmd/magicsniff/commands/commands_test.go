/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: commands_test.go
Description: Tests for shared command helpers: input reading, registry and client
construction from configuration.
*/

package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/magicsniff/pkg/config"
	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger(t *testing.T) *logging.Logger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.Console = io.Discard
	logger, err := logging.NewLogger(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger
}

func writeDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"magic":      "MIME-Magic\x00\n",
		"aliases":    "application/x-vnd.legacy application/vnd.modern\n",
		"subclasses": "application/vnd.modern application/zip\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	data, err := readInput(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = readInput(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "failed to read")
}

func TestNewRegistryLoadsDatabase(t *testing.T) {
	cfg := &config.Config{MimeDB: config.MimeDBConfig{Dir: writeDatabase(t)}}

	registry, err := newRegistry(context.Background(), cfg, quietLogger(t))
	require.NoError(t, err)
	require.NotNil(t, registry.Tables())

	aliases, subclasses := registry.Tables().Len()
	assert.Equal(t, 1, aliases)
	assert.Equal(t, 1, subclasses)
	assert.Equal(t, "application/vnd.modern", registry.Tables().Canonical("application/x-vnd.legacy"))
}

func TestNewClient(t *testing.T) {
	cfg := &config.Config{
		Workers:  2,
		StrictIO: true,
		MimeDB:   config.MimeDBConfig{Dir: writeDatabase(t)},
	}

	client, err := newClient(context.Background(), cfg, quietLogger(t))
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.StrictIO())
	assert.Equal(t, 2, client.Stats()["workers"])

	_, err = client.InferPath(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, detect.ErrUnreadable)
}

func TestRunLogs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "magicsniff_2024-01-01_00-00-00.log"), []byte("line\n"), 0644))

	t.Setenv("MAGICSNIFF_LOG_DIR", dir)
	assert.NoError(t, RunLogs(nil, nil))

	t.Setenv("MAGICSNIFF_LOG_DIR", "")
	assert.ErrorContains(t, RunLogs(nil, nil), "no log directory configured")
}
