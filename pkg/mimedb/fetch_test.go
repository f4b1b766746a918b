/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fetch_test.go
Description: Tests for the retrying database download.
*/

package mimedb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastFetcher(url string) *Fetcher {
	f := NewFetcher(url, nil)
	f.InitialInterval = time.Millisecond
	f.Timeout = time.Second
	return f
}

func TestNewFetcherDefaults(t *testing.T) {
	f := NewFetcher("", nil)
	assert.Equal(t, DefaultURL, f.URL)
	assert.Equal(t, 3, f.Attempts)
	assert.Equal(t, 5*time.Second, f.Timeout)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("archive"))
	}))
	defer server.Close()

	data, err := fastFetcher(server.URL).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("archive"), data)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := fastFetcher(server.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 attempt(s)")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchNotFoundIsFinal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := fastFetcher(server.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := fastFetcher(server.URL)
	f.Attempts = 1
	f.Timeout = 20 * time.Millisecond

	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestFetchEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	f := fastFetcher(server.URL)
	f.Attempts = 1

	_, err := f.Fetch(context.Background())
	assert.ErrorContains(t, err, "empty response body")
}
