/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client.go
Description: Asynchronous client over the detection registry. Every operation is
captured as an immutable task, run on the client's scheduler, and delivered through
a future. Path operations follow the client's I/O policy: coarse by default, where
unreadable files read as a miss, or strict, where they surface as errors.
*/

package sniff

import (
	"fmt"

	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Client submits detection work to a worker pool
type Client struct {
	registry  *detect.Registry
	scheduler *core.Scheduler
	ownsPool  bool
	strictIO  bool
	logger    *logrus.Logger
}

type options struct {
	workers   int
	queueSize int
	strictIO  bool
	registry  *detect.Registry
	scheduler *core.Scheduler
	logger    *logrus.Logger
}

// Option configures a Client
type Option func(*options)

// WithWorkers sets the pool size. Ignored when WithScheduler is used.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithQueueSize sets how many tasks may wait for a worker. Ignored when
// WithScheduler is used.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithStrictIO makes path operations report unreadable files as errors
// wrapping detect.ErrUnreadable
func WithStrictIO(strict bool) Option {
	return func(o *options) { o.strictIO = strict }
}

// WithRegistry replaces the shared default registry
func WithRegistry(r *detect.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithScheduler runs tasks on a caller-owned scheduler. The client neither
// starts nor stops it.
func WithScheduler(s *core.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithLogger sets the logger
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a client and starts its worker pool
func New(opts ...Option) (*Client, error) {
	o := &options{queueSize: -1}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logging.Nop()
	}
	if o.registry == nil {
		o.registry = detect.Default()
	}

	c := &Client{
		registry:  o.registry,
		scheduler: o.scheduler,
		strictIO:  o.strictIO,
		logger:    o.logger,
	}

	if c.scheduler == nil {
		cfg := core.DefaultSchedulerConfig()
		if o.workers > 0 {
			cfg.Workers = o.workers
			cfg.QueueSize = o.workers * 64
		}
		if o.queueSize >= 0 {
			cfg.QueueSize = o.queueSize
		}
		c.scheduler = core.NewScheduler(cfg, o.logger)
		if err := c.scheduler.Start(); err != nil {
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
		c.ownsPool = true
	}

	c.logger.WithFields(logrus.Fields{
		"workers":   c.scheduler.Workers(),
		"strict_io": c.strictIO,
	}).Debug("Sniff client ready")

	return c, nil
}

// Close stops the client's own worker pool after queued work completes.
// Futures obtained earlier remain valid.
func (c *Client) Close() error {
	if !c.ownsPool {
		return nil
	}
	return c.scheduler.Stop()
}

// Registry returns the registry the client detects with
func (c *Client) Registry() *detect.Registry { return c.registry }

// StrictIO reports the client's I/O policy
func (c *Client) StrictIO() bool { return c.strictIO }

// Stats returns scheduler statistics
func (c *Client) Stats() map[string]interface{} {
	stats := c.scheduler.GetStats()
	stats["strict_io"] = c.strictIO
	return stats
}

// pathResult is the native result of a path task
type pathResult[T any] struct {
	value T
	err   error
}
