package relay

import (
	"context"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/factrelay/internal/bus"
	"github.com/nextlevelbuilder/factrelay/internal/store"
)

func newTestIngest(debug bool, testGuildID string) (*Ingest, *memSettingsStore, *bus.Queue[bus.RelayRequest], *fakeDeliverer) {
	cache, st := newTestCache()
	queue := bus.NewQueue[bus.RelayRequest](16)
	deliver := &fakeDeliverer{}
	ident := newTestIdentity()
	cmds := NewCommands(ident, cache, deliver)
	return NewIngest(ident, cache, queue, cmds, deliver, debug, testGuildID), st, queue, deliver
}

func relayEvent(content string) MessageEvent {
	return MessageEvent{
		ChannelID:  "c1",
		GuildID:    "g1",
		AuthorID:   "10",
		AuthorName: "alice",
		Content:    content,
	}
}

func TestIngestDropsBots(t *testing.T) {
	ingest, _, queue, _ := newTestIngest(false, "")

	ev := relayEvent("hello")
	ev.AuthorBot = true
	if err := ingest.HandleMessage(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	own := relayEvent("hello")
	own.AuthorID = "900" // the bot's own id
	if err := ingest.HandleMessage(context.Background(), own); err != nil {
		t.Fatal(err)
	}

	if queue.Len() != 0 {
		t.Errorf("queue.Len() = %d, want 0", queue.Len())
	}
}

func TestIngestDropsIgnoredAuthors(t *testing.T) {
	ingest, st, queue, _ := newTestIngest(false, "")
	st.rows["c1"] = &store.SettingsRow{
		ChannelID: "c1", GuildID: "g1", Name: "#test",
		Settings: `{"ignores":[10]}`,
	}

	if err := ingest.HandleMessage(context.Background(), relayEvent("hello")); err != nil {
		t.Fatal(err)
	}
	if queue.Len() != 0 {
		t.Errorf("queue.Len() = %d, want 0", queue.Len())
	}
}

func TestIngestRelaysPlainMessage(t *testing.T) {
	ingest, _, queue, _ := newTestIngest(false, "")

	if err := ingest.HandleMessage(context.Background(), relayEvent("what is go")); err != nil {
		t.Fatal(err)
	}
	req, ok := queue.TryReceive()
	if !ok {
		t.Fatal("expected a queued request")
	}
	if req.Text != "what is go" || req.Username != "alice" || req.Mentioned {
		t.Errorf("request = %+v", req)
	}
	if req.TraceID == "" {
		t.Error("request must carry a trace id")
	}
}

func TestIngestTextNormalization(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		mentions []Mention
		wantText string
		wantFlag bool
	}{
		{
			name:     "mention token rewritten",
			content:  "ask <@42> about it",
			mentions: []Mention{{ID: "42", DisplayName: "bob"}},
			wantText: "ask bob about it",
		},
		{
			name:     "nickname mention token rewritten",
			content:  "ask <@!42> about it",
			mentions: []Mention{{ID: "42", DisplayName: "bob"}},
			wantText: "ask bob about it",
		},
		{
			name:     "bot mention sets the flag and prefix is stripped",
			content:  "<@900> what is go",
			mentions: []Mention{{ID: "900", DisplayName: "factbot"}},
			wantText: "what is go",
			wantFlag: true,
		},
		{
			name:     "repeated name prefix stripped",
			content:  "<@900> <@900> what is go",
			mentions: []Mention{{ID: "900", DisplayName: "factbot"}},
			wantText: "what is go",
			wantFlag: true,
		},
		{
			name:     "line breaks collapsed",
			content:  "first\nsecond\r\nthird",
			wantText: "first second third",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingest, _, queue, _ := newTestIngest(false, "")
			ev := relayEvent(tt.content)
			ev.Mentions = tt.mentions
			if err := ingest.HandleMessage(context.Background(), ev); err != nil {
				t.Fatal(err)
			}
			req, ok := queue.TryReceive()
			if !ok {
				t.Fatal("expected a queued request")
			}
			if req.Text != tt.wantText {
				t.Errorf("text = %q, want %q", req.Text, tt.wantText)
			}
			if req.Mentioned != tt.wantFlag {
				t.Errorf("mentioned = %v, want %v", req.Mentioned, tt.wantFlag)
			}
		})
	}
}

func TestIngestHelp(t *testing.T) {
	ingest, _, queue, deliver := newTestIngest(false, "")

	ev := relayEvent("<@900> help")
	ev.Mentions = []Mention{{ID: "900", DisplayName: "factbot"}}
	if err := ingest.HandleMessage(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if queue.Len() != 0 {
		t.Error("help request must not be queued for the engine")
	}
	if len(deliver.sent) != 1 || deliver.last() == "" {
		t.Fatalf("expected one help reply, got %d", len(deliver.sent))
	}
	if !strings.Contains(deliver.last(), "factbot") {
		t.Errorf("help text should mention the bot name: %q", deliver.last())
	}
}

func TestIngestHelpWithoutMentionIsRelayed(t *testing.T) {
	ingest, _, queue, deliver := newTestIngest(false, "")

	if err := ingest.HandleMessage(context.Background(), relayEvent("help me please")); err != nil {
		t.Fatal(err)
	}
	if queue.Len() != 1 {
		t.Error("unaddressed help text is an ordinary message")
	}
	if len(deliver.sent) != 0 {
		t.Error("no help reply without a mention")
	}
}

func TestIngestConfigDispatch(t *testing.T) {
	ingest, st, queue, _ := newTestIngest(false, "")

	ev := relayEvent("<@900> config set talkative on")
	ev.Mentions = []Mention{{ID: "900", DisplayName: "factbot"}}
	ev.Capabilities = Capabilities{Administrator: true}
	if err := ingest.HandleMessage(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if queue.Len() != 0 {
		t.Error("config command must not be queued for the engine")
	}
	if !storedDoc(st, "c1").Talkative {
		t.Error("config set was not applied")
	}
}

func TestIngestDebugGate(t *testing.T) {
	tests := []struct {
		name    string
		guildID string
		want    int
	}{
		{"test guild passes", "gtest", 1},
		{"other guild dropped", "gother", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingest, _, queue, _ := newTestIngest(true, "gtest")
			ev := relayEvent("hello")
			ev.GuildID = tt.guildID
			if err := ingest.HandleMessage(context.Background(), ev); err != nil {
				t.Fatal(err)
			}
			if queue.Len() != tt.want {
				t.Errorf("queue.Len() = %d, want %d", queue.Len(), tt.want)
			}
		})
	}
}
