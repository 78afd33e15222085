package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nextlevelbuilder/factrelay/internal/store"
)

// ChannelInfo is the gateway's current view of a channel, used to repair
// metadata drift in the stored row.
type ChannelInfo struct {
	Name     string
	ParentID string // "" when the channel has no parent category
	DM       bool
}

// Resolver looks up the observed metadata for a channel. Implemented by the
// gateway transport over its state cache.
type Resolver interface {
	ChannelInfo(channelID string) (ChannelInfo, bool)
}

// Cache fetches, lazily creates and repairs per-channel settings rows.
//
// A single mutex serializes every read-modify-write sequence against the
// settings store. This is a coarse but deliberate choice: documents are
// small, mutation is rare relative to reads, and one lock eliminates
// lost-update races between concurrent config commands and metadata
// reconciliation without per-row versioning.
type Cache struct {
	mu       sync.Mutex
	store    store.SettingsStore
	resolver Resolver
}

func NewCache(st store.SettingsStore, resolver Resolver) *Cache {
	return &Cache{store: st, resolver: resolver}
}

// Get returns the settings document for a channel, creating the row on first
// access and reconciling stored name/parent metadata with the observed
// values. A direct-message channel short-circuits to an all-defaults
// document without touching storage. Store failures propagate to the caller.
func (c *Cache) Get(ctx context.Context, channelID, guildID string) (Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(ctx, channelID, guildID)
}

// Put replaces a channel's whole settings payload. Last writer under the
// serialization lock wins; callers that derive the new document from a prior
// read should use Update instead.
func (c *Cache) Put(ctx context.Context, channelID string, doc Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.UpdateSettings(ctx, channelID, doc.Encode())
}

// Update applies fn to the current document and writes the result back as a
// whole, holding the serialization lock across the entire read-modify-write.
func (c *Cache) Update(ctx context.Context, channelID, guildID string, fn func(Document) Document) (Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.get(ctx, channelID, guildID)
	if err != nil {
		return Document{}, err
	}
	doc = fn(doc)
	if err := c.store.UpdateSettings(ctx, channelID, doc.Encode()); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// DeleteChannel removes a deleted channel's row.
func (c *Cache) DeleteChannel(ctx context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.DeleteChannel(ctx, channelID)
}

// DeleteGuild removes every row owned by a deleted guild.
func (c *Cache) DeleteGuild(ctx context.Context, guildID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.DeleteGuild(ctx, guildID)
}

// get runs under c.mu.
func (c *Cache) get(ctx context.Context, channelID, guildID string) (Document, error) {
	info, ok := c.resolver.ChannelInfo(channelID)
	if !ok {
		slog.Warn("settings lookup for unknown channel", "channel_id", channelID)
		return Document{}, nil
	}

	// DM channels carry no guild context and no stored settings.
	if info.DM || guildID == "" {
		return Document{}, nil
	}

	row, err := c.store.Get(ctx, channelID)
	if err != nil {
		return Document{}, err
	}

	if row == nil {
		insert := store.SettingsRow{
			ChannelID: channelID,
			ParentID:  info.ParentID,
			GuildID:   guildID,
			Name:      info.Name,
			Settings:  "{}",
		}
		if err := c.store.Insert(ctx, insert); err != nil {
			return Document{}, err
		}
		row, err = c.store.Get(ctx, channelID)
		if err != nil {
			return Document{}, err
		}
		if row == nil {
			return Document{}, nil
		}
	} else if row.Name != info.Name || row.ParentID != info.ParentID {
		// Observed metadata drifted; repair the row without touching the
		// settings payload.
		if err := c.store.UpdateMeta(ctx, channelID, info.ParentID, info.Name); err != nil {
			return Document{}, err
		}
	}

	var doc Document
	if err := json.Unmarshal([]byte(row.Settings), &doc); err != nil {
		// Malformed payload is repaired locally, never surfaced as an error.
		slog.Warn("malformed settings payload, using defaults",
			"channel_id", channelID, "error", err)
		doc = Document{}
	}
	return doc, nil
}
