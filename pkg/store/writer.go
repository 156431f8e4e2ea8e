package store

import (
	"context"
	"log/slog"
	"sync"
)

// Op is a single persistence operation applied by the Writer.
type Op func(ctx context.Context) error

// Writer applies persistence operations on a single goroutine, in the order
// they were enqueued. Enqueueing never blocks the caller as long as the queue
// has capacity, which keeps sample ingestion decoupled from disk latency while
// preserving append order per route.
type Writer struct {
	ops     chan Op
	wg      sync.WaitGroup
	onError func(error)

	closeOnce sync.Once
}

// NewWriter creates a writer with the given queue capacity and starts its
// worker goroutine. onError is invoked for every failed operation; nil means
// log-only.
func NewWriter(ctx context.Context, capacity int, onError func(error)) *Writer {
	if capacity <= 0 {
		capacity = 1024
	}
	w := &Writer{
		ops:     make(chan Op, capacity),
		onError: onError,
	}
	w.wg.Add(1)
	go w.run(ctx)
	return w
}

func (w *Writer) run(ctx context.Context) {
	defer w.wg.Done()
	for op := range w.ops {
		if err := op(ctx); err != nil {
			slog.Error("Store writer: operation failed", "error", err)
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// Enqueue queues an operation. It returns false if the queue is full, in
// which case the operation is applied synchronously instead — order is still
// preserved because the caller blocks until the backlog drains.
func (w *Writer) Enqueue(op Op) bool {
	select {
	case w.ops <- op:
		return true
	default:
		w.ops <- op
		return false
	}
}

// Close stops accepting operations and waits for the backlog to drain.
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		close(w.ops)
	})
	w.wg.Wait()
}
