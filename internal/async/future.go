// Package async decouples blocking database work from the request-handling
// path. A Bridge owns a fixed pool of worker goroutines consuming a bounded
// task queue; Submit hands work to the pool and returns a Future the caller
// awaits. Awaiting that Future is the only place a request handler suspends.
package async

import (
	"context"

	"github.com/koustreak/OrgRoute/internal/errs"
)

// Future represents the eventual result of a submitted task.
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete resolves the future exactly once. The bridge is the sole caller.
func (f *Future[T]) complete(result T, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Await blocks until the task finishes and returns its outcome.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext blocks until the task finishes or ctx expires. An expired
// ctx abandons the wait, not the task: the worker still runs it to
// completion so held resources are returned.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, errs.Wrap(errs.ErrKindTimeout, "timed out waiting for query result", ctx.Err())
	}
}

// IsComplete reports whether the task has finished, without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
