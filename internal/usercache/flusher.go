// Package usercache persists observed gateway user profiles in the
// background, off the event-delivery goroutine.
package usercache

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/factrelay/internal/bus"
	"github.com/nextlevelbuilder/factrelay/internal/store"
)

// Flusher drains a queue of observed profiles into the user cache table.
// Guild-create snapshots can enqueue tens of thousands of profiles at once,
// so the queue is large and overflow is dropped rather than blocking the
// gateway handler.
type Flusher struct {
	store store.UserCacheStore
	queue *bus.Queue[store.UserRow]
}

func NewFlusher(st store.UserCacheStore, queueSize int) *Flusher {
	return &Flusher{
		store: st,
		queue: bus.NewQueue[store.UserRow](queueSize),
	}
}

// Observe enqueues one profile for the background flush.
func (f *Flusher) Observe(row store.UserRow) {
	if !f.queue.TryPush(row) {
		slog.Debug("user cache queue full, profile dropped", "user_id", row.ID)
	}
}

// Run flushes queued profiles until ctx is done, reporting backlog size
// periodically.
func (f *Flusher) Run(ctx context.Context) error {
	report := time.NewTicker(time.Minute)
	defer report.Stop()

	for {
		select {
		case <-report.C:
			if n := f.queue.Len(); n > 0 {
				slog.Info("user cache backlog", "queued", n)
			}
		default:
		}

		row, ok := f.queue.Receive(ctx)
		if !ok {
			return ctx.Err()
		}
		if err := f.store.Upsert(ctx, row); err != nil {
			slog.Warn("user cache upsert failed", "user_id", row.ID, "error", err)
		}
	}
}
