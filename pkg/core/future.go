/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: future.go
Description: Future returned for every submitted task. Completion is signalled by
the worker; the first caller to await it runs the task's finalize step and the
result is then shared with every later caller.
*/

package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Future is the pending result of a submitted task
type Future[R any] struct {
	ID        string    // Unique task identifier
	Name      string    // Operation name
	Submitted time.Time // When the task entered the queue

	done     chan struct{}
	execErr  error
	finalize func() (R, error)

	once   sync.Once
	result R
	err    error
}

func newFuture[R any](name string) *Future[R] {
	return &Future[R]{
		ID:        uuid.NewString(),
		Name:      name,
		Submitted: time.Now(),
		done:      make(chan struct{}),
	}
}

// Done is closed once the task has finished executing
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the task completes or ctx is done. Giving up on the
// wait does not stop the task.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}

	f.once.Do(f.resolve)
	return f.result, f.err
}

func (f *Future[R]) resolve() {
	if f.execErr != nil {
		f.err = f.execErr
		return
	}

	defer func() {
		if r := recover(); r != nil {
			var zero R
			f.result = zero
			f.err = fmt.Errorf("%w: %s finalize: %v", ErrTaskPanicked, f.Name, r)
		}
	}()
	f.result, f.err = f.finalize()
}

func (f *Future[R]) complete(err error) {
	f.execErr = err
	close(f.done)
}
