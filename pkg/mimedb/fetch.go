/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fetch.go
Description: Download of a packaged shared-mime-info database. Each attempt is bounded
by a timeout and failed attempts are retried with exponential backoff.
*/

package mimedb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// DefaultURL is the release archive downloaded when no database is installed
const DefaultURL = "https://github.com/hechang27-sprt/build-shared-mime-info/releases/download/db-20251031/mime-database.zip"

// Fetcher downloads a database archive
type Fetcher struct {
	URL             string        // Archive location
	Attempts        int           // Total attempts, including the first
	Timeout         time.Duration // Per-attempt timeout
	InitialInterval time.Duration // First backoff delay
	Client          *http.Client
	logger          *logrus.Logger
}

// NewFetcher creates a fetcher with the default retry policy
func NewFetcher(url string, logger *logrus.Logger) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Fetcher{
		URL:             url,
		Attempts:        3,
		Timeout:         5 * time.Second,
		InitialInterval: 500 * time.Millisecond,
		Client:          &http.Client{},
		logger:          logger,
	}
}

// Fetch downloads the archive and returns its bytes
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	attempts := f.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	var data []byte
	attempt := 0
	operation := func() error {
		attempt++
		body, err := f.fetchOnce(ctx)
		if err != nil {
			return err
		}
		data = body
		return nil
	}
	notify := func(err error, wait time.Duration) {
		f.log().WithFields(logrus.Fields{
			"url":     f.URL,
			"attempt": attempt,
			"retry":   wait,
		}).Warnf("Database download failed: %v", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, fmt.Errorf("failed to download %s after %d attempt(s): %w", f.URL, attempt, err)
	}

	f.log().WithFields(logrus.Fields{
		"url":   f.URL,
		"bytes": len(data),
	}).Info("Database archive downloaded")

	return data, nil
}

func (f *Fetcher) log() *logrus.Logger {
	if f.logger == nil {
		f.logger = discardLogger()
	}
	return f.logger
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (f *Fetcher) fetchOnce(ctx context.Context) ([]byte, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out in %s", timeout)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("server returned status %d", resp.StatusCode)
		// 4xx other than 429 is final
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	return data, nil
}
