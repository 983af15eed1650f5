// Package worker drains persistence jobs into a storage backend.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/nameswap/internal/adapters/mq/queue"
	"github.com/okian/nameswap/pkg/logger"
	"github.com/okian/nameswap/pkg/metrics"
)

const defaultRetries = 2

// Writer stores one document.
type Writer interface {
	Put(ctx context.Context, key string, value []byte) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until the queue is drained.
type Worker interface {
	// Run starts the worker loop until the queue closes or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown closes the queue and waits for the remaining jobs to be written.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker writes jobs one at a time, in queue order. A job whose Seq
// is not newer than the last one written for its key is dropped, so a
// synchronous Write racing the queue never gets overwritten by an older save.
type InMemoryWorker struct {
	queue   Queue
	writer  Writer
	name    string
	retries int
	backoff time.Duration

	mu      sync.Mutex
	written map[string]uint64

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, w Writer, opts ...Option) *InMemoryWorker {
	wk := &InMemoryWorker{
		queue:   q,
		writer:  w,
		name:    "persist",
		retries: defaultRetries,
		backoff: 50 * time.Millisecond,
		done:    make(chan struct{}),
		written: make(map[string]uint64),
	}

	for _, opt := range opts {
		opt(wk)
	}

	if wk.logger == nil {
		wk.logger = logger.Discard()
	}
	wk.logger = wk.logger.Named(wk.name)

	return wk
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "persist failed", logger.String("key", job.Key), logger.Error(err))
			}
		}
	}
}

// Shutdown closes the queue when it can be closed and waits for Run to
// finish writing what is left.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	if closer, ok := w.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			w.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// process writes a single job, retrying transient failures.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if job.Seq != 0 && job.Seq <= w.written[job.Key] {
		metrics.RecordPersistWrite(job.Key, "stale")
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordPersistLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.backoff * time.Duration(attempt)):
			}
		}
		if err = w.writer.Put(ctx, job.Key, job.Value); err == nil {
			if job.Seq != 0 {
				w.written[job.Key] = job.Seq
			}
			metrics.RecordPersistWrite(job.Key, "ok")
			w.logger.Debug(ctx, "persisted",
				logger.String("key", job.Key),
				logger.Int("bytes", len(job.Value)),
				logger.Duration("queued", start.Sub(job.EnqueuedAt)),
			)
			return nil
		}
	}

	metrics.RecordPersistWrite(job.Key, "error")
	metrics.RecordErrorByComponent("worker", "persist_failed")
	return fmt.Errorf("write %s after %d attempts: %w", job.Key, w.retries+1, err)
}

// Write stores a job synchronously. The engine falls back to it when the
// queue is full.
func (w *InMemoryWorker) Write(ctx context.Context, job queue.Job) error {
	return w.process(ctx, job)
}
