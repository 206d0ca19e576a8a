// Package async keeps a slow sink from stalling the pipeline loop. Records
// are queued on a buffered channel and written by a background goroutine.
package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/logstream/internal/model"
	"github.com/crimson-sun/logstream/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the queue capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback for inner write failures.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithBlockOnFull makes Write wait for queue space instead of dropping.
func WithBlockOnFull() Option {
	return func(a *Async) { a.blockOnFull = true }
}

// Async wraps an output.Output. By default a full queue drops the record:
// the working set already holds it, so losing a sink line is preferable to
// pausing ingestion.
type Async struct {
	inner       output.Output
	ch          chan model.LogRecord
	done        chan struct{}
	errFunc     func(error)
	bufSize     int
	blockOnFull bool
	dropped     atomic.Int64
	closeOnce   sync.Once
}

// New wraps inner and starts the drain goroutine.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:   inner,
		bufSize: defaultBufferSize,
		errFunc: func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.LogRecord, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write queues rec.
func (a *Async) Write(ctx context.Context, rec model.LogRecord) error {
	if a.blockOnFull {
		select {
		case a.ch <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case a.ch <- rec:
	default:
		if a.dropped.Add(1) == 1 {
			slog.Warn("async output queue full, dropping records", "id", rec.ID)
		}
	}
	return nil
}

// Dropped reports how many records were discarded on a full queue.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Close stops accepting records, waits (bounded) for the queue to drain,
// then closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.ch)
		select {
		case <-a.done:
		case <-time.After(defaultDrainTimeout):
			slog.Warn("async output drain timed out")
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) drain() {
	defer close(a.done)
	for rec := range a.ch {
		if err := a.inner.Write(context.Background(), rec); err != nil {
			a.errFunc(err)
		}
	}
}
