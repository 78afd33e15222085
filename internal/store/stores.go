package store

import "context"

// SettingsRow is one channel_settings row. ParentID is "" when the channel
// has no parent category (stored as SQL NULL).
type SettingsRow struct {
	ChannelID string
	ParentID  string
	GuildID   string
	Name      string
	Settings  string
}

// SettingsStore persists per-channel settings documents.
type SettingsStore interface {
	// Get returns the row for channelID, or nil when absent.
	Get(ctx context.Context, channelID string) (*SettingsRow, error)
	Insert(ctx context.Context, row SettingsRow) error
	// UpdateMeta reconciles the observed channel name/parent without touching
	// the settings payload.
	UpdateMeta(ctx context.Context, channelID, parentID, name string) error
	// UpdateSettings replaces the whole settings payload.
	UpdateSettings(ctx context.Context, channelID, settings string) error
	DeleteChannel(ctx context.Context, channelID string) error
	DeleteGuild(ctx context.Context, guildID string) error
}

// UserRow is one cached gateway user profile.
type UserRow struct {
	ID            string
	Username      string
	Discriminator string
	Avatar        string
	Bot           bool
}

// UserCacheStore persists observed user profiles.
type UserCacheStore interface {
	Upsert(ctx context.Context, row UserRow) error
}

// CountsRow is a periodic gateway statistics snapshot.
type CountsRow struct {
	Dev      bool
	Guilds   int64
	Users    int64
	Channels int64
	Sent     int64
	Received int64
}

// CountsStore persists gateway statistics snapshots.
type CountsStore interface {
	Upsert(ctx context.Context, row CountsRow) error
}

// Stores is the top-level container for all storage backends.
type Stores struct {
	Settings SettingsStore
	Users    UserCacheStore
	Counts   CountsStore
}
