/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the task scheduler. Defines the two-phase task contract,
scheduler configuration, the sentinel errors surfaced through futures, and the
atomic counters used for scheduler statistics.
*/

package core

import (
	"errors"
	"runtime"
	"sync/atomic"
	"time"
)

// Task is a unit of delegated work. Execute runs on a worker goroutine and
// produces a native result; Finalize runs on the goroutine that awaits the
// future and converts the native result into the value the caller receives.
// A task must be safe to execute exactly once and must not be mutated after
// submission.
type Task[N, R any] interface {
	Name() string          // Short operation name used in logs and stats
	Execute() (N, error)   // Runs on a worker
	Finalize(N) (R, error) // Runs on the awaiting goroutine
}

var (
	// ErrSchedulerClosed is returned when work is submitted to a scheduler
	// that is not running
	ErrSchedulerClosed = errors.New("scheduler is not running")

	// ErrTaskPanicked wraps a panic recovered while running a task
	ErrTaskPanicked = errors.New("task panicked")
)

// SchedulerConfig holds scheduler parameters
type SchedulerConfig struct {
	Workers   int `json:"workers"`    // Number of worker goroutines
	QueueSize int `json:"queue_size"` // Pending tasks buffered before Submit blocks
}

// DefaultSchedulerConfig returns a config sized to the machine
func DefaultSchedulerConfig() *SchedulerConfig {
	n := runtime.NumCPU()
	return &SchedulerConfig{
		Workers:   n,
		QueueSize: n * 64,
	}
}

func (c *SchedulerConfig) normalize() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.QueueSize < 0 {
		c.QueueSize = 0
	}
}

// SchedulerStats tracks scheduler activity.
// Uses atomic operations for thread-safe updates.
type SchedulerStats struct {
	Submitted int64     `json:"submitted"` // Tasks accepted into the queue
	Rejected  int64     `json:"rejected"`  // Submissions refused or abandoned
	Completed int64     `json:"completed"` // Tasks whose Execute returned
	Failed    int64     `json:"failed"`    // Completed tasks whose Execute returned an error
	Panicked  int64     `json:"panicked"`  // Tasks that panicked
	StartTime time.Time `json:"start_time"`
}

// IncrementSubmitted atomically increments the submission counter
func (s *SchedulerStats) IncrementSubmitted() {
	atomic.AddInt64(&s.Submitted, 1)
}

// IncrementRejected atomically increments the rejection counter
func (s *SchedulerStats) IncrementRejected() {
	atomic.AddInt64(&s.Rejected, 1)
}

// IncrementCompleted atomically increments the completion counter
func (s *SchedulerStats) IncrementCompleted() {
	atomic.AddInt64(&s.Completed, 1)
}

// IncrementFailed atomically increments the failure counter
func (s *SchedulerStats) IncrementFailed() {
	atomic.AddInt64(&s.Failed, 1)
}

// IncrementPanicked atomically increments the panic counter
func (s *SchedulerStats) IncrementPanicked() {
	atomic.AddInt64(&s.Panicked, 1)
}

// Snapshot returns a consistent-enough copy for reporting
func (s *SchedulerStats) Snapshot() SchedulerStats {
	return SchedulerStats{
		Submitted: atomic.LoadInt64(&s.Submitted),
		Rejected:  atomic.LoadInt64(&s.Rejected),
		Completed: atomic.LoadInt64(&s.Completed),
		Failed:    atomic.LoadInt64(&s.Failed),
		Panicked:  atomic.LoadInt64(&s.Panicked),
		StartTime: s.StartTime,
	}
}

// Pending returns tasks submitted but not yet completed
func (s SchedulerStats) Pending() int64 {
	return s.Submitted - s.Completed
}

// job is the type-erased form of a submitted task
type job struct {
	id   string
	name string
	run  func() error    // Executes the task, storing its native result
	done func(err error) // Publishes completion to the future
}
