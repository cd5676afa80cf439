// Package batcher accumulates events from a channel and flushes them
// through the formatter to a pusher when either the batch size or the
// flush interval is reached.
package batcher

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/lokiship/lokiship/internal/formatter"
	"github.com/lokiship/lokiship/internal/model"
)

// Pusher delivers one encoded payload.
type Pusher interface {
	Push(ctx context.Context, payload []byte) error
}

const flushTimeout = 30 * time.Second

// Batcher is the shipping worker between the event source and the
// push client.
type Batcher struct {
	formatter     *formatter.Formatter
	pusher        Pusher
	events        <-chan model.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
}

// New creates a Batcher reading from events.
func New(f *formatter.Formatter, p Pusher, events <-chan model.Event, batchSize int, flushInterval time.Duration, logger *slog.Logger) *Batcher {
	return &Batcher{
		formatter:     f,
		pusher:        p,
		events:        events,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        logger,
	}
}

// Run loops until ctx is cancelled or the event channel closes,
// flushing pending events on the way out.
func (b *Batcher) Run(ctx context.Context) {
	batch := make([]model.Event, 0, b.batchSize)
	timer := time.NewTimer(b.flushInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("batcher shutting down", "pending_events", len(batch))
			b.flush(batch)
			return

		case e, ok := <-b.events:
			if !ok {
				b.flush(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= b.batchSize {
				b.flush(batch)
				batch = batch[:0]
				resetTimer(timer, b.flushInterval)
			}

		case <-timer.C:
			if len(batch) > 0 {
				b.flush(batch)
				batch = batch[:0]
			}
			timer.Reset(b.flushInterval)
		}
	}
}

// flush formats the batch and pushes the payload. Errors are logged,
// not propagated; a failed push drops the batch.
func (b *Batcher) flush(batch []model.Event) {
	if len(batch) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := b.formatter.Format(batch, &buf); err != nil {
		b.logger.Error("format batch failed", "error", err, "events", len(batch))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := b.pusher.Push(ctx, buf.Bytes()); err != nil {
		b.logger.Error("push batch failed", "error", err, "events", len(batch))
		return
	}
	b.logger.Debug("flushed batch", "events", len(batch), "bytes", buf.Len())
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
