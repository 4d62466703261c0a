// Package worker drains command records from a queue into a telemetry publisher.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/pkg/logger"
	"github.com/okian/slalom/pkg/metrics"
)

// Publisher delivers one command record to an external system.
type Publisher interface {
	Publish(ctx context.Context, rec model.CommandRecord) error
}

// Source defines how the worker receives records.
type Source interface {
	Dequeue(ctx context.Context) <-chan model.CommandRecord
}

// Worker publishes records until its source closes or it is stopped.
// Publish failures are logged and counted; the record is not retried.
type Worker struct {
	source    Source
	publisher Publisher
	name      string

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	published uint64
	failed    uint64
	mu        sync.Mutex

	logger logger.Logger
}

// New creates a worker reading from source and writing to publisher.
func New(source Source, publisher Publisher, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		publisher: publisher,
		name:      "telemetry",
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))

	return w
}

// Run starts the worker loop. It returns when the source channel closes,
// ctx is canceled or Shutdown gives up waiting. The context handed to the
// source and publisher is canceled when Run returns.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	records := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			w.process(ctx, rec)
		}
	}
}

// Shutdown waits for Run to drain the closed source. When ctx expires first
// the loop is stopped and the remaining records are abandoned.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.stopOnce.Do(func() { close(w.stop) })
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Stats returns how many records were published and how many failed.
func (w *Worker) Stats() (published, failed uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.published, w.failed
}

func (w *Worker) process(ctx context.Context, rec model.CommandRecord) { //nolint:gocritic // hugeParam: records travel by value over channels
	start := time.Now()
	err := w.publisher.Publish(ctx, rec)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.failed++
		metrics.RecordIOError(metrics.ComponentPublisher)
		w.logger.Error(ctx, "publish failed",
			logger.Uint64("seq", rec.Seq),
			logger.Error(err),
		)
		return
	}
	w.published++
	metrics.RecordPublished(float64(time.Since(start).Microseconds()) / 1000)
}
