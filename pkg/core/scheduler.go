/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scheduler.go
Description: Bounded worker pool that runs submitted tasks. Tasks are queued on a
buffered channel, executed by a fixed set of workers, and their results delivered
through futures. Once dispatched a task always runs to completion.
*/

package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler runs tasks on a fixed pool of workers
type Scheduler struct {
	config *SchedulerConfig
	stats  *SchedulerStats
	logger *logrus.Logger

	// Worker management
	workers []*Worker
	jobs    chan job

	// Synchronization
	wg sync.WaitGroup

	// State management
	running bool
	stopped bool
	mu      sync.RWMutex
}

// NewScheduler creates a scheduler. A nil config uses DefaultSchedulerConfig
// and a nil logger discards output.
func NewScheduler(config *SchedulerConfig, logger *logrus.Logger) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	cfg := *config
	cfg.normalize()

	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &Scheduler{
		config: &cfg,
		stats:  &SchedulerStats{},
		logger: logger,
	}
}

// Start launches the workers
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if s.stopped {
		return fmt.Errorf("scheduler cannot be restarted: %w", ErrSchedulerClosed)
	}

	s.jobs = make(chan job, s.config.QueueSize)
	s.workers = make([]*Worker, s.config.Workers)
	s.stats.StartTime = time.Now()

	for i := range s.workers {
		w := NewWorker(i, s.logger)
		s.workers[i] = w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			w.Run(s.jobs, s.stats)
		}()
	}

	s.running = true
	s.logger.WithFields(logrus.Fields{
		"workers":    s.config.Workers,
		"queue_size": s.config.QueueSize,
	}).Info("Scheduler started")
	return nil
}

// Stop refuses new work, lets queued tasks finish, and waits for the workers
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is not running")
	}
	s.running = false
	s.stopped = true
	close(s.jobs)
	s.mu.Unlock()

	s.logger.Info("Scheduler stopping")
	s.wg.Wait()

	snapshot := s.stats.Snapshot()
	s.logger.WithFields(logrus.Fields{
		"completed": snapshot.Completed,
		"failed":    snapshot.Failed,
		"panicked":  snapshot.Panicked,
	}).Info("Scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler accepts work
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Workers returns the pool size
func (s *Scheduler) Workers() int {
	return s.config.Workers
}

// Stats returns a snapshot of the scheduler counters
func (s *Scheduler) Stats() SchedulerStats {
	return s.stats.Snapshot()
}

// GetStats returns scheduler and per-worker statistics
func (s *Scheduler) GetStats() map[string]interface{} {
	snapshot := s.stats.Snapshot()

	s.mu.RLock()
	running := s.running
	workers := s.workers
	queued := 0
	if s.jobs != nil {
		queued = len(s.jobs)
	}
	s.mu.RUnlock()

	workerStats := make([]map[string]interface{}, 0, len(workers))
	for _, w := range workers {
		workerStats = append(workerStats, w.GetStats())
	}

	stats := make(map[string]interface{})
	stats["running"] = running
	stats["workers"] = s.config.Workers
	stats["queue_size"] = s.config.QueueSize
	stats["queued"] = queued
	stats["submitted"] = snapshot.Submitted
	stats["rejected"] = snapshot.Rejected
	stats["completed"] = snapshot.Completed
	stats["failed"] = snapshot.Failed
	stats["panicked"] = snapshot.Panicked
	stats["pending"] = snapshot.Pending()
	stats["worker_stats"] = workerStats

	if !snapshot.StartTime.IsZero() {
		uptime := time.Since(snapshot.StartTime)
		stats["uptime"] = uptime.String()
		if secs := uptime.Seconds(); secs > 0 {
			stats["tasks_per_second"] = float64(snapshot.Completed) / secs
		}
	}

	return stats
}

// enqueue hands a job to the workers. ctx bounds only the wait for a free
// queue slot.
func (s *Scheduler) enqueue(ctx context.Context, j job) error {
	if err := ctx.Err(); err != nil {
		s.stats.IncrementRejected()
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		s.stats.IncrementRejected()
		return ErrSchedulerClosed
	}

	select {
	case s.jobs <- j:
		s.stats.IncrementSubmitted()
		return nil
	case <-ctx.Done():
		s.stats.IncrementRejected()
		return ctx.Err()
	}
}

// Submit queues task on s and returns its future
func Submit[N, R any](ctx context.Context, s *Scheduler, task Task[N, R]) (*Future[R], error) {
	f := newFuture[R](task.Name())

	var native N
	j := job{
		id:   f.ID,
		name: f.Name,
		run: func() error {
			n, err := task.Execute()
			native = n
			return err
		},
		done: f.complete,
	}
	f.finalize = func() (R, error) {
		return task.Finalize(native)
	}

	if err := s.enqueue(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to submit %s: %w", f.Name, err)
	}
	return f, nil
}

// Run submits task and waits for its result
func Run[N, R any](ctx context.Context, s *Scheduler, task Task[N, R]) (R, error) {
	f, err := Submit(ctx, s, task)
	if err != nil {
		var zero R
		return zero, err
	}
	return f.Await(ctx)
}
