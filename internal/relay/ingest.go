package relay

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/factrelay/internal/bus"
	"github.com/nextlevelbuilder/factrelay/internal/help"
	"github.com/nextlevelbuilder/factrelay/internal/settings"
)

var (
	helpPattern   = regexp.MustCompile(`(?is)^help(?:$|\s+(.*?)\s*$)`)
	configPattern = regexp.MustCompile(`(?is)^config(?:$|\s+(.*?)\s*$)`)
	lineBreaks    = regexp.MustCompile(`\r?\n`)
)

// Ingest classifies inbound chat events and queues relay-eligible ones for
// the engine. It runs synchronously inside the gateway's event-delivery
// goroutine, so nothing here may block for long.
type Ingest struct {
	ident    *Identity
	cache    *settings.Cache
	queue    *bus.Queue[bus.RelayRequest]
	commands *Commands
	deliver  Deliverer

	// Debug restricts relaying to the test guild; help/config still work
	// everywhere.
	debug       bool
	testGuildID string
}

func NewIngest(ident *Identity, cache *settings.Cache, queue *bus.Queue[bus.RelayRequest], commands *Commands, deliver Deliverer, debug bool, testGuildID string) *Ingest {
	return &Ingest{
		ident:       ident,
		cache:       cache,
		queue:       queue,
		commands:    commands,
		deliver:     deliver,
		debug:       debug,
		testGuildID: testGuildID,
	}
}

// HandleMessage processes one inbound chat event: drops bot traffic and
// ignored authors, rewrites mentions, then routes to help, config, or the
// ingest queue. Store failures propagate to the caller.
func (d *Ingest) HandleMessage(ctx context.Context, ev MessageEvent) error {
	botID, botName := d.ident.Get()

	if ev.AuthorID == botID || ev.AuthorBot {
		return nil
	}

	doc, err := d.cache.Get(ctx, ev.ChannelID, ev.GuildID)
	if err != nil {
		return err
	}

	if id, perr := strconv.ParseUint(ev.AuthorID, 10, 64); perr == nil && doc.Ignored(id) {
		slog.Info("message dropped, author on channel ignore list",
			"channel_id", ev.ChannelID, "author_id", ev.AuthorID)
		return nil
	}

	// Rewrite user mention tokens to display names, noting whether the bot
	// itself was addressed.
	text := ev.Content
	mentioned := false
	for _, m := range ev.Mentions {
		text = strings.ReplaceAll(text, "<@"+m.ID+">", m.DisplayName)
		text = strings.ReplaceAll(text, "<@!"+m.ID+">", m.DisplayName)
		if m.ID == botID {
			mentioned = true
		}
	}

	// Leading repetitions of the bot's name are the address prefix, not part
	// of the message.
	text = strings.TrimSpace(text)
	for botName != "" && strings.HasPrefix(text, botName) {
		text = strings.TrimSpace(text[len(botName):])
	}
	// Line breaks confuse the engine's line protocol.
	text = strings.TrimSpace(lineBreaks.ReplaceAllString(text, " "))

	switch {
	case mentioned && helpPattern.MatchString(text):
		section := strings.TrimSpace(helpPattern.FindStringSubmatch(text)[1])
		rendered := help.Render(section, help.Vars{
			BotUsername:  botName,
			BotID:        botID,
			UserUsername: ev.AuthorName,
			UserID:       ev.AuthorID,
		})
		return d.deliver.Send(ctx, ev.ChannelID, rendered)

	case mentioned && configPattern.MatchString(text):
		args := strings.TrimSpace(configPattern.FindStringSubmatch(text)[1])
		return d.commands.Execute(ctx, ev, args)

	case !d.debug || ev.GuildID == d.testGuildID:
		req := bus.RelayRequest{
			TraceID:   uuid.NewString(),
			ChannelID: ev.ChannelID,
			GuildID:   ev.GuildID,
			AuthorID:  ev.AuthorID,
			Username:  ev.AuthorName,
			Text:      text,
			Mentioned: mentioned,
		}
		if !d.queue.TryPush(req) {
			slog.Warn("ingest queue full, message dropped",
				"channel_id", ev.ChannelID, "trace_id", req.TraceID)
		}
		return nil

	default:
		slog.Debug("message dropped, debug mode and not the test guild",
			"channel_id", ev.ChannelID, "guild_id", ev.GuildID)
		return nil
	}
}
