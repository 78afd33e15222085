package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/factrelay/internal/config"
	"github.com/nextlevelbuilder/factrelay/internal/personas"
	"github.com/nextlevelbuilder/factrelay/internal/relay"
	"github.com/nextlevelbuilder/factrelay/internal/settings"
	"github.com/nextlevelbuilder/factrelay/internal/store"
	"github.com/nextlevelbuilder/factrelay/internal/usercache"
)

// Channel connects to Discord via the Bot API using gateway events. It is
// the event-delivery transport and the delivery collaborator: inbound
// messages are handed to the ingest dispatcher synchronously on the gateway
// goroutine, outbound text goes through Send.
type Channel struct {
	session *discordgo.Session
	cfg     config.DiscordConfig

	ident *relay.Identity
	// dispatcher is attached after construction because it needs this
	// channel as its deliverer.
	dispatcher *relay.Ingest
	cache      *settings.Cache
	users      *usercache.Flusher
	personas   *personas.Pool

	// Discord allows roughly 5 sends per 5 seconds per channel; one global
	// limiter keeps the bot comfortably under the global ceiling.
	limiter *rate.Limiter

	ctx      context.Context
	sent     atomic.Int64
	received atomic.Int64
}

// New creates a new Discord channel from config.
func New(cfg config.DiscordConfig, token string) (*Channel, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Channel{
		session: session,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(20), 5),
	}, nil
}

// Attach wires the collaborators that need the channel as their deliverer
// or resolver. Must be called before Start.
func (c *Channel) Attach(ident *relay.Identity, dispatcher *relay.Ingest, cache *settings.Cache, users *usercache.Flusher, pool *personas.Pool) {
	c.ident = ident
	c.dispatcher = dispatcher
	c.cache = cache
	c.users = users
	c.personas = pool
}

// Start opens the Discord gateway connection and begins receiving events.
func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting discord gateway")
	c.ctx = ctx

	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleGuildCreate)
	c.session.AddHandler(c.handleGuildDelete)
	c.session.AddHandler(c.handleGuildMemberAdd)
	c.session.AddHandler(c.handleChannelCreate)
	c.session.AddHandler(c.handleChannelDelete)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Stop closes the Discord gateway connection.
func (c *Channel) Stop() error {
	slog.Info("stopping discord gateway")
	return c.session.Close()
}

// Send implements relay.Deliverer: rate-limited, chunked plain-text
// delivery to one channel.
func (c *Channel) Send(ctx context.Context, channelID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.sendChunked(channelID, text)
}

// sendChunked splits a message into multiple sends when over Discord's 2000
// character ceiling, breaking at a newline where possible.
func (c *Channel) sendChunked(channelID, content string) error {
	const maxLen = 2000

	for len(content) > 0 {
		chunk := content
		if len(chunk) > maxLen {
			cutAt := maxLen
			if idx := strings.LastIndexByte(content[:maxLen], '\n'); idx > maxLen/2 {
				cutAt = idx + 1
			}
			chunk = content[:cutAt]
			content = content[cutAt:]
		} else {
			content = ""
		}

		if _, err := c.session.ChannelMessageSend(channelID, chunk); err != nil {
			return fmt.Errorf("send discord message: %w", err)
		}
		c.sent.Add(1)
	}
	return nil
}

func (c *Channel) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.ident.Set(r.User.ID, r.User.Username)
	slog.Info("discord gateway ready", "username", r.User.Username, "id", r.User.ID)
}

// handleMessage translates one gateway message event and hands it to the
// ingest dispatcher on this goroutine.
func (c *Channel) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	botID, _ := c.ident.Get()
	if m.Author.ID != botID {
		c.received.Add(1)
	}

	mentions := make([]relay.Mention, 0, len(m.Mentions))
	for _, u := range m.Mentions {
		mentions = append(mentions, relay.Mention{ID: u.ID, DisplayName: displayName(u)})
	}

	ev := relay.MessageEvent{
		ChannelID:    m.ChannelID,
		GuildID:      m.GuildID,
		AuthorID:     m.Author.ID,
		AuthorName:   displayName(m.Author),
		AuthorBot:    m.Author.Bot,
		Content:      m.Content,
		Mentions:     mentions,
		Capabilities: c.capabilitiesFor(m),
	}

	if err := c.dispatcher.HandleMessage(c.ctx, ev); err != nil {
		slog.Error("inbound message handling failed",
			"channel_id", m.ChannelID, "author_id", m.Author.ID, "error", err)
	}
}

// handleGuildCreate warms up settings rows for every channel, snapshots the
// guild's persona pool and queues member profiles for the user cache.
func (c *Channel) handleGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	slog.Info("guild available", "guild_id", g.ID, "name", g.Name, "members", g.MemberCount)

	for _, ch := range g.Channels {
		if _, err := c.cache.Get(c.ctx, ch.ID, g.ID); err != nil {
			slog.Warn("settings warm-up failed", "channel_id", ch.ID, "error", err)
		}
	}

	names := make([]string, 0, len(g.Members))
	for _, member := range g.Members {
		if member.User == nil {
			continue
		}
		names = append(names, member.User.Username)
		c.users.Observe(store.UserRow{
			ID:            member.User.ID,
			Username:      member.User.Username,
			Discriminator: member.User.Discriminator,
			Avatar:        member.User.Avatar,
			Bot:           member.User.Bot,
		})
	}
	c.personas.Set(g.ID, names)
}

func (c *Channel) handleGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	// Unavailable means an outage, not a removal; settings stay.
	if g.Unavailable {
		return
	}
	slog.Info("guild removed", "guild_id", g.ID)
	if err := c.cache.DeleteGuild(c.ctx, g.ID); err != nil {
		slog.Warn("guild settings delete failed", "guild_id", g.ID, "error", err)
	}
	c.personas.Remove(g.ID)
}

func (c *Channel) handleGuildMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil {
		return
	}
	c.personas.Add(m.GuildID, m.User.Username)
	c.users.Observe(store.UserRow{
		ID:            m.User.ID,
		Username:      m.User.Username,
		Discriminator: m.User.Discriminator,
		Avatar:        m.User.Avatar,
		Bot:           m.User.Bot,
	})
}

func (c *Channel) handleChannelCreate(_ *discordgo.Session, ch *discordgo.ChannelCreate) {
	if ch.GuildID == "" {
		return
	}
	if _, err := c.cache.Get(c.ctx, ch.ID, ch.GuildID); err != nil {
		slog.Warn("settings warm-up failed", "channel_id", ch.ID, "error", err)
	}
}

func (c *Channel) handleChannelDelete(_ *discordgo.Session, ch *discordgo.ChannelDelete) {
	if err := c.cache.DeleteChannel(c.ctx, ch.ID); err != nil {
		slog.Warn("channel settings delete failed", "channel_id", ch.ID, "error", err)
	}
}

// ChannelInfo implements settings.Resolver over the gateway state cache.
func (c *Channel) ChannelInfo(channelID string) (settings.ChannelInfo, bool) {
	ch, err := c.session.State.Channel(channelID)
	if err != nil || ch == nil {
		return settings.ChannelInfo{}, false
	}
	name := ch.Name
	if ch.Type == discordgo.ChannelTypeGuildText {
		name = "#" + name
	}
	return settings.ChannelInfo{
		Name:     name,
		ParentID: ch.ParentID,
		DM:       ch.Type == discordgo.ChannelTypeDM || ch.Type == discordgo.ChannelTypeGroupDM,
	}, true
}

// capabilitiesFor precomputes the actor's capability set for a message.
func (c *Channel) capabilitiesFor(m *discordgo.MessageCreate) relay.Capabilities {
	if m.GuildID == "" || m.Author == nil {
		return relay.Capabilities{}
	}
	guild, err := c.session.State.Guild(m.GuildID)
	if err != nil {
		return relay.Capabilities{}
	}
	var roleIDs []string
	if m.Member != nil {
		roleIDs = m.Member.Roles
	}
	return capabilities(guild.OwnerID, m.Author.ID, roleIDs, guild.Roles)
}

// displayName returns the best available display name for a user.
func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
