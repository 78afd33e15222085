// Package presence periodically refreshes the bot's presence string and
// records gateway statistics snapshots.
package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/factrelay/internal/status"
	"github.com/nextlevelbuilder/factrelay/internal/store"
)

// Source exposes the gateway's current counters.
type Source interface {
	GuildCount() int64
	MemberCount() int64
	ChannelCount() int64
	SentMessages() int64
	ReceivedMessages() int64
}

// Setter pushes a presence string to the gateway.
type Setter interface {
	SetPresence(text string) error
}

// Updater refreshes presence and persists a counts snapshot on a fixed
// interval.
type Updater struct {
	src      Source
	set      Setter
	counts   store.CountsStore
	dev      bool
	interval time.Duration
}

func NewUpdater(src Source, set Setter, counts store.CountsStore, dev bool) *Updater {
	return &Updater{
		src:      src,
		set:      set,
		counts:   counts,
		dev:      dev,
		interval: time.Minute,
	}
}

// Run updates until ctx is done. Failures are logged and retried on the next
// tick; presence is cosmetic and must never take the relay down.
func (u *Updater) Run(ctx context.Context) error {
	// Let the gateway finish its initial guild sync first.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
	}

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		u.tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (u *Updater) tick(ctx context.Context) {
	guilds := u.src.GuildCount()
	users := u.src.MemberCount()

	if err := u.set.SetPresence(status.FormatPresence(guilds, users)); err != nil {
		slog.Warn("presence update failed", "error", err)
	}

	row := store.CountsRow{
		Dev:      u.dev,
		Guilds:   guilds,
		Users:    users,
		Channels: u.src.ChannelCount(),
		Sent:     u.src.SentMessages(),
		Received: u.src.ReceivedMessages(),
	}
	if err := u.counts.Upsert(ctx, row); err != nil {
		slog.Warn("gateway counts snapshot failed", "error", err)
	}
}
