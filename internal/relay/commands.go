package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/factrelay/internal/help"
	"github.com/nextlevelbuilder/factrelay/internal/settings"
)

// Commands executes the permission-gated config command surface:
// show, set and ignore. Every mutation is a whole-document
// read-modify-write under the settings cache's serialization lock.
type Commands struct {
	ident   *Identity
	cache   *settings.Cache
	deliver Deliverer
}

func NewCommands(ident *Identity, cache *settings.Cache, deliver Deliverer) *Commands {
	return &Commands{ident: ident, cache: cache, deliver: deliver}
}

// Execute runs one config command. Permission failures and user input errors
// are surfaced to the channel, never logged as system errors; store failures
// propagate to the caller.
func (c *Commands) Execute(ctx context.Context, ev MessageEvent, args string) error {
	if !ev.Capabilities.CanConfigure() {
		return c.sendHelp(ctx, ev, "access-denied")
	}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		return c.sendHelp(ctx, ev, "missing-parameters")
	}

	switch strings.ToLower(fields[0]) {
	case "show":
		return c.show(ctx, ev)
	case "set":
		return c.set(ctx, ev, fields[1:])
	case "ignore":
		return c.ignore(ctx, ev, fields[1:])
	}
	// Unknown subcommands are ignored.
	return nil
}

func (c *Commands) show(ctx context.Context, ev MessageEvent) error {
	doc, err := c.cache.Get(ctx, ev.ChannelID, ev.GuildID)
	if err != nil {
		return err
	}
	_, botName := c.ident.Get()
	text := fmt.Sprintf(
		"**Settings for <#%s>**\nTalk without being mentioned? %s\nLearn from this channel? %s\nIgnored users: %d\n\nFor help on changing these settings, type `@%s help config`.",
		ev.ChannelID, yesNo(doc.Talkative), yesNo(doc.LearningEnabled()), len(doc.Ignores), botName)
	return c.deliver.Send(ctx, ev.ChannelID, text)
}

func (c *Commands) set(ctx context.Context, ev MessageEvent, args []string) error {
	if len(args) < 2 {
		return c.sendHelp(ctx, ev, "missing-set-var-or-value")
	}
	variable := strings.ToLower(args[0])
	value := strings.ToLower(args[1])
	if variable != "talkative" && variable != "learn" {
		return c.sendHelp(ctx, ev, "invalid-set-var-or-value")
	}

	state := value == "yes" || value == "true" || value == "on" || value == "1"

	if _, err := c.cache.Update(ctx, ev.ChannelID, ev.GuildID, func(doc settings.Document) settings.Document {
		if variable == "talkative" {
			doc.Talkative = state
		} else {
			// "learn on" clears the disabled flag.
			doc.LearningDisabled = !state
		}
		return doc
	}); err != nil {
		return err
	}

	verb := "disabled"
	if state {
		verb = "enabled"
	}
	return c.deliver.Send(ctx, ev.ChannelID,
		fmt.Sprintf("Setting **'%s'** %s on <#%s>", variable, verb, ev.ChannelID))
}

func (c *Commands) ignore(ctx context.Context, ev MessageEvent, args []string) error {
	if len(args) == 0 {
		return c.sendHelp(ctx, ev, "missing-parameters")
	}
	op := strings.ToLower(args[0])

	// Targets are the message mentions, excluding the bot itself.
	botID, _ := c.ident.Get()
	var targets []uint64
	var names []string
	for _, m := range ev.Mentions {
		if m.ID == botID {
			continue
		}
		id, err := strconv.ParseUint(m.ID, 10, 64)
		if err != nil {
			continue
		}
		targets = append(targets, id)
		names = append(names, m.DisplayName)
	}

	switch op {
	case "list":
		doc, err := c.cache.Get(ctx, ev.ChannelID, ev.GuildID)
		if err != nil {
			return err
		}
		if len(doc.Ignores) == 0 {
			return c.deliver.Send(ctx, ev.ChannelID,
				fmt.Sprintf("**Ignore list for <#%s> is empty!**", ev.ChannelID))
		}
		var b strings.Builder
		fmt.Fprintf(&b, "**Ignore list for <#%s>**\n", ev.ChannelID)
		for _, id := range doc.Ignores {
			fmt.Fprintf(&b, "<@%d> (%d)\n", id, id)
		}
		return c.deliver.Send(ctx, ev.ChannelID, strings.TrimRight(b.String(), "\n"))

	case "add":
		if len(targets) == 0 {
			return c.deliver.Send(ctx, ev.ChannelID,
				"You need to refer to the users to add or remove using mentions.")
		}
		// Self-ignore rejects the whole operation, no partial application.
		if issuer, err := strconv.ParseUint(ev.AuthorID, 10, 64); err == nil {
			for _, t := range targets {
				if t == issuer {
					return c.deliver.Send(ctx, ev.ChannelID,
						"Foolish human, you can't ignore yourself!")
				}
			}
		}
		if _, err := c.cache.Update(ctx, ev.ChannelID, ev.GuildID, func(doc settings.Document) settings.Document {
			// Duplicates are not suppressed.
			doc.Ignores = append(doc.Ignores, targets...)
			return doc
		}); err != nil {
			return err
		}
		return c.deliver.Send(ctx, ev.ChannelID,
			fmt.Sprintf("Added **%d %s** to the ignore list for <#%s>: %s",
				len(targets), plural(len(targets), "user"), ev.ChannelID, strings.Join(names, " ")))

	case "del":
		if len(targets) == 0 {
			return c.deliver.Send(ctx, ev.ChannelID,
				"You need to refer to the users to add or remove using mentions.")
		}
		if _, err := c.cache.Update(ctx, ev.ChannelID, ev.GuildID, func(doc settings.Document) settings.Document {
			kept := doc.Ignores[:0:0]
			for _, id := range doc.Ignores {
				remove := false
				for _, t := range targets {
					if t == id {
						remove = true
						break
					}
				}
				if !remove {
					kept = append(kept, id)
				}
			}
			doc.Ignores = kept
			return doc
		}); err != nil {
			return err
		}
		return c.deliver.Send(ctx, ev.ChannelID,
			fmt.Sprintf("Deleted **%d %s** from the ignore list for <#%s>: %s",
				len(targets), plural(len(targets), "user"), ev.ChannelID, strings.Join(names, " ")))
	}

	return c.sendHelp(ctx, ev, "missing-parameters")
}

func (c *Commands) sendHelp(ctx context.Context, ev MessageEvent, section string) error {
	botID, botName := c.ident.Get()
	text := help.Render(section, help.Vars{
		BotUsername:  botName,
		BotID:        botID,
		UserUsername: ev.AuthorName,
		UserID:       ev.AuthorID,
	})
	return c.deliver.Send(ctx, ev.ChannelID, text)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
