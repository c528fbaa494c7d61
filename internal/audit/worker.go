package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultBatchSize    = 100
	defaultDrainTimeout = 5 * time.Second
)

// Worker drains a Queue into a sink. Sink failures are logged and the
// batch is dropped; the vote path never waits on the sink.
type Worker struct {
	queue  *Queue
	sink   Store
	logger *slog.Logger
	batch  int
}

// NewWorker constructs a worker that drains queue into sink.
func NewWorker(queue *Queue, sink Store, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{queue: queue, sink: sink, logger: logger, batch: defaultBatchSize}
}

// Run blocks until ctx is cancelled, then flushes what is left.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultDrainTimeout)
			defer cancel()
			w.flush(drainCtx)
			return nil
		case <-w.queue.Ready():
			w.flush(ctx)
		}
	}
}

func (w *Worker) flush(ctx context.Context) {
	for {
		events := w.queue.DequeueBatch(w.batch)
		if len(events) == 0 {
			return
		}
		for _, e := range events {
			if err := w.sink.Append(ctx, e); err != nil {
				level := slog.LevelError
				if errors.Is(err, ErrSinkOpen) {
					level = slog.LevelDebug
				}
				w.logger.Log(ctx, level, "audit sink append failed",
					"error", err,
					"action", e.Action,
					"event_id", e.ID.String(),
				)
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}
