package async

import (
	"context"
	"sync"

	"github.com/koustreak/OrgRoute/internal/errs"
	"github.com/koustreak/OrgRoute/internal/logger"
)

const (
	// DefaultWorkers is the worker pool size when none is configured.
	DefaultWorkers = 10

	// DefaultQueueSize bounds how many tasks may wait for a worker.
	DefaultQueueSize = 100
)

type task[T any] struct {
	ctx    context.Context
	fn     func(context.Context) (T, error)
	future *Future[T]
}

// Bridge runs submitted tasks on a fixed number of worker goroutines.
// The task queue is bounded: when all workers are busy and the queue is
// full, Submit blocks until space frees or the caller's deadline expires.
// That bound is the backpressure limit — queued work never grows without
// limit under load.
type Bridge[T any] struct {
	queue chan *task[T]
	wg    sync.WaitGroup
	log   *logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBridge starts a bridge with the given worker count and queue bound.
// Non-positive arguments fall back to the defaults.
func NewBridge[T any](workers, queueSize int, log *logger.Logger) *Bridge[T] {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = logger.New(nil)
	}

	b := &Bridge[T]{
		queue: make(chan *task[T], queueSize),
		log:   log.With().Int("workers", workers).Logger(),
	}

	b.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go b.worker()
	}

	b.log.Debug("bridge workers started")
	return b
}

// Submit queues fn for execution and returns the Future that will carry its
// outcome. Submission fails with a pool-exhausted error when the queue stays
// full past the caller's deadline, and when the bridge is shutting down.
//
// A queued task whose ctx expires before a worker picks it up is abandoned:
// its future rejects without the work ever starting. Once a worker has
// started the task it runs to completion, so anything the task acquires is
// released through its own cleanup paths.
func (b *Bridge[T]) Submit(ctx context.Context, fn func(context.Context) (T, error)) (*Future[T], error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errs.New(errs.ErrKindPoolExhausted, "server is shutting down")
	}

	t := &task[T]{ctx: ctx, fn: fn, future: newFuture[T]()}

	select {
	case b.queue <- t:
		return t.future, nil
	default:
	}

	// Queue full: wait for space within the caller's deadline.
	select {
	case b.queue <- t:
		return t.future, nil
	case <-ctx.Done():
		return nil, errs.Wrap(errs.ErrKindPoolExhausted, "worker queue is full", ctx.Err())
	}
}

func (b *Bridge[T]) worker() {
	defer b.wg.Done()

	for t := range b.queue {
		if err := t.ctx.Err(); err != nil {
			var zero T
			t.future.complete(zero, errs.Wrap(errs.ErrKindTimeout, "request cancelled before execution", err))
			continue
		}
		result, err := t.fn(t.ctx)
		t.future.complete(result, err)
	}
}

// Close stops accepting new tasks and waits for queued and in-flight tasks
// to finish.
func (b *Bridge[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
	b.log.Debug("bridge workers drained")
}
