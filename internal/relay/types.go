package relay

import (
	"context"
	"sync"
)

// Deliverer is the delivery collaborator: it accepts a channel id and plain
// text and owns the actual transmission. The relay never talks to the
// transport directly.
type Deliverer interface {
	Send(ctx context.Context, channelID, text string) error
}

// Mention is one resolved user mention, in message order.
type Mention struct {
	ID          string
	DisplayName string
}

// Capabilities is the precomputed capability set for (actor, channel),
// derived by the gateway transport from guild ownership and role scans.
type Capabilities struct {
	GuildOwner     bool
	ManageMessages bool
	Administrator  bool
}

// CanConfigure reports whether the actor may run config commands.
func (c Capabilities) CanConfigure() bool {
	return c.GuildOwner || c.ManageMessages || c.Administrator
}

// MessageEvent is one inbound chat message as delivered by the gateway
// transport, resolved to plain fields.
type MessageEvent struct {
	ChannelID    string
	GuildID      string
	AuthorID     string
	AuthorName   string
	AuthorBot    bool
	Content      string
	Mentions     []Mention
	Capabilities Capabilities
}

// Identity is the bot's own gateway identity, set once the session reports
// ready and read by the dispatchers on every event.
type Identity struct {
	mu       sync.RWMutex
	id       string
	username string
}

func (i *Identity) Set(id, username string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.id, i.username = id, username
}

func (i *Identity) Get() (id, username string) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.id, i.username
}
