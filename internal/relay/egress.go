package relay

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nextlevelbuilder/factrelay/internal/bus"
	"github.com/nextlevelbuilder/factrelay/internal/settings"
	"github.com/nextlevelbuilder/factrelay/internal/status"
)

var (
	statusPattern = regexp.MustCompile(`Since (.+?), there have been (\d+) modifications and (\d+) questions\. I have been alive for (.+?), I currently know (\d+)`)
	urlToken      = regexp.MustCompile(`(?i)^https?://`)
)

// Egress drains engine responses, re-applies the talkative/mention gate with
// a fresh settings lookup, post-processes text and forwards it to delivery.
// Runs on its own dedicated goroutine.
type Egress struct {
	queue   *bus.Queue[bus.RelayResponse]
	cache   *settings.Cache
	deliver Deliverer
}

func NewEgress(queue *bus.Queue[bus.RelayResponse], cache *settings.Cache, deliver Deliverer) *Egress {
	return &Egress{queue: queue, cache: cache, deliver: deliver}
}

// Run consumes the egress queue until ctx is done. Each wakeup drains the
// whole queue into a local batch first, so per-item processing cost never
// holds up producers.
func (e *Egress) Run(ctx context.Context) error {
	for {
		first, ok := e.queue.Receive(ctx)
		if !ok {
			return ctx.Err()
		}
		batch := []bus.RelayResponse{first}
		for {
			item, more := e.queue.TryReceive()
			if !more {
				break
			}
			batch = append(batch, item)
		}

		for _, item := range batch {
			if err := e.process(ctx, item); err != nil {
				// A failing item never aborts the rest of the batch.
				slog.Warn("egress item failed",
					"trace_id", item.TraceID, "channel_id", item.ChannelID, "error", err)
			}
		}
	}
}

func (e *Egress) process(ctx context.Context, item bus.RelayResponse) error {
	// Second, independent gate check: a settings flip while the item was in
	// flight is honored here.
	doc, err := e.cache.Get(ctx, item.ChannelID, item.GuildID)
	if err != nil {
		return err
	}
	if !item.Mentioned && !doc.Talkative {
		slog.Debug("engine reply dropped, not mentioned and channel not talkative",
			"trace_id", item.TraceID, "channel_id", item.ChannelID)
		return nil
	}

	if m := statusPattern.FindStringSubmatch(item.Text); m != nil {
		summary := status.Summary{
			Since:         m[1],
			Modifications: m[2],
			Questions:     m[3],
			Uptime:        m[4],
			Facts:         m[5],
		}
		return e.deliver.Send(ctx, item.ChannelID, status.FormatSummary(summary))
	}

	return e.deliver.Send(ctx, item.ChannelID, FormatReply(item.Text))
}

// FormatReply applies the generic reply post-processing: a leading legacy
// action-escape marker becomes emphasis markup, and every URL token after
// the first is wrapped in angle brackets to suppress extra link previews.
func FormatReply(text string) string {
	text = strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(text, "\x01ACTION "); ok {
		rest = strings.TrimSuffix(rest, "\x01")
		text = "*" + rest + "*"
	}

	words := strings.Fields(text)
	urls := 0
	for i, w := range words {
		if urlToken.MatchString(w) {
			urls++
			if urls > 1 {
				words[i] = "<" + w + ">"
			}
		}
	}
	return strings.Join(words, " ")
}
