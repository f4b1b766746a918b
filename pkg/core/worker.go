/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: worker.go
Description: Worker implementation for the task scheduler. Each worker drains the
shared job queue, runs tasks with panic recovery, and keeps its own execution
counters for statistics.
*/

package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Worker represents a single worker goroutine in the scheduler
type Worker struct {
	ID     int            // Unique worker identifier
	logger *logrus.Logger // Worker-specific logger

	// Performance tracking
	executions int64     // Number of tasks executed
	failures   int64     // Number of tasks whose Execute failed
	panics     int64     // Number of tasks that panicked
	busy       int64     // Total time spent executing, in nanoseconds
	startTime  time.Time // When worker started

	running bool
	mu      sync.RWMutex
}

// NewWorker creates a new worker instance
func NewWorker(id int, logger *logrus.Logger) *Worker {
	return &Worker{
		ID:     id,
		logger: logger,
	}
}

// Run processes jobs until the queue is closed and drained
func (w *Worker) Run(jobs <-chan job, stats *SchedulerStats) {
	w.mu.Lock()
	w.running = true
	w.startTime = time.Now()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	for j := range jobs {
		w.process(j, stats)
	}
}

func (w *Worker) process(j job, stats *SchedulerStats) {
	start := time.Now()
	panicked, err := w.execute(j)
	elapsed := time.Since(start)

	atomic.AddInt64(&w.executions, 1)
	atomic.AddInt64(&w.busy, int64(elapsed))
	stats.IncrementCompleted()

	fields := logrus.Fields{
		"worker":   w.ID,
		"task":     j.name,
		"task_id":  j.id,
		"duration": elapsed,
	}

	switch {
	case panicked:
		atomic.AddInt64(&w.panics, 1)
		stats.IncrementPanicked()
		stats.IncrementFailed()
		w.logger.WithFields(fields).Errorf("Task panicked: %v", err)
	case err != nil:
		atomic.AddInt64(&w.failures, 1)
		stats.IncrementFailed()
		w.logger.WithFields(fields).Debugf("Task failed: %v", err)
	default:
		w.logger.WithFields(fields).Debug("Task executed")
	}

	j.done(err)
}

// execute runs the job, converting a panic into ErrTaskPanicked
func (w *Worker) execute(j job) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = fmt.Errorf("%w: %s: %v", ErrTaskPanicked, j.name, r)
		}
	}()
	return false, j.run()
}

// GetStats returns worker performance statistics
func (w *Worker) GetStats() map[string]interface{} {
	w.mu.RLock()
	running := w.running
	startTime := w.startTime
	w.mu.RUnlock()

	executions := atomic.LoadInt64(&w.executions)
	busy := time.Duration(atomic.LoadInt64(&w.busy))

	stats := make(map[string]interface{})
	stats["id"] = w.ID
	stats["executions"] = executions
	stats["failures"] = atomic.LoadInt64(&w.failures)
	stats["panics"] = atomic.LoadInt64(&w.panics)
	stats["busy"] = busy.String()
	stats["running"] = running

	if executions > 0 {
		stats["avg_task_time"] = (busy / time.Duration(executions)).String()
	}
	if !startTime.IsZero() {
		stats["uptime"] = time.Since(startTime).String()
	}

	return stats
}

// IsRunning returns whether the worker is currently draining the queue
func (w *Worker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
