package relay

import (
	"context"
	"sync"

	"github.com/nextlevelbuilder/factrelay/internal/settings"
	"github.com/nextlevelbuilder/factrelay/internal/store"
)

// Shared fakes for the relay package tests.

type fakeDeliverer struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	ChannelID string
	Text      string
}

func (f *fakeDeliverer) Send(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Text: text})
	return nil
}

func (f *fakeDeliverer) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

func (f *fakeDeliverer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeDeliverer) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

type memSettingsStore struct {
	rows map[string]*store.SettingsRow
}

func newMemSettingsStore() *memSettingsStore {
	return &memSettingsStore{rows: make(map[string]*store.SettingsRow)}
}

func (m *memSettingsStore) Get(_ context.Context, channelID string) (*store.SettingsRow, error) {
	row, ok := m.rows[channelID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memSettingsStore) Insert(_ context.Context, row store.SettingsRow) error {
	if _, ok := m.rows[row.ChannelID]; !ok {
		cp := row
		m.rows[row.ChannelID] = &cp
	}
	return nil
}

func (m *memSettingsStore) UpdateMeta(_ context.Context, channelID, parentID, name string) error {
	if row, ok := m.rows[channelID]; ok {
		row.ParentID = parentID
		row.Name = name
	}
	return nil
}

func (m *memSettingsStore) UpdateSettings(_ context.Context, channelID, payload string) error {
	if row, ok := m.rows[channelID]; ok {
		row.Settings = payload
	}
	return nil
}

func (m *memSettingsStore) DeleteChannel(_ context.Context, channelID string) error {
	delete(m.rows, channelID)
	return nil
}

func (m *memSettingsStore) DeleteGuild(_ context.Context, guildID string) error {
	for id, row := range m.rows {
		if row.GuildID == guildID {
			delete(m.rows, id)
		}
	}
	return nil
}

type staticResolver struct{}

func (staticResolver) ChannelInfo(channelID string) (settings.ChannelInfo, bool) {
	return settings.ChannelInfo{Name: "#test"}, true
}

func newTestCache() (*settings.Cache, *memSettingsStore) {
	st := newMemSettingsStore()
	return settings.NewCache(st, staticResolver{}), st
}

func newTestIdentity() *Identity {
	ident := &Identity{}
	ident.Set("900", "factbot")
	return ident
}

func adminEvent(channelID, authorID string) MessageEvent {
	return MessageEvent{
		ChannelID:    channelID,
		GuildID:      "g1",
		AuthorID:     authorID,
		AuthorName:   "alice",
		Capabilities: Capabilities{ManageMessages: true},
	}
}

func storedDoc(st *memSettingsStore, channelID string) settings.Document {
	row, ok := st.rows[channelID]
	if !ok {
		return settings.Document{}
	}
	return settings.Parse(row.Settings)
}
