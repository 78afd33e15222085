package settings

import (
	"context"
	"testing"

	"github.com/nextlevelbuilder/factrelay/internal/store"
)

type fakeSettingsStore struct {
	rows        map[string]*store.SettingsRow
	inserts     int
	metaUpdates int
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{rows: make(map[string]*store.SettingsRow)}
}

func (f *fakeSettingsStore) Get(_ context.Context, channelID string) (*store.SettingsRow, error) {
	row, ok := f.rows[channelID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeSettingsStore) Insert(_ context.Context, row store.SettingsRow) error {
	f.inserts++
	if _, ok := f.rows[row.ChannelID]; !ok {
		cp := row
		f.rows[row.ChannelID] = &cp
	}
	return nil
}

func (f *fakeSettingsStore) UpdateMeta(_ context.Context, channelID, parentID, name string) error {
	f.metaUpdates++
	if row, ok := f.rows[channelID]; ok {
		row.ParentID = parentID
		row.Name = name
	}
	return nil
}

func (f *fakeSettingsStore) UpdateSettings(_ context.Context, channelID, settings string) error {
	if row, ok := f.rows[channelID]; ok {
		row.Settings = settings
	}
	return nil
}

func (f *fakeSettingsStore) DeleteChannel(_ context.Context, channelID string) error {
	delete(f.rows, channelID)
	return nil
}

func (f *fakeSettingsStore) DeleteGuild(_ context.Context, guildID string) error {
	for id, row := range f.rows {
		if row.GuildID == guildID {
			delete(f.rows, id)
		}
	}
	return nil
}

type fakeResolver struct {
	channels map[string]ChannelInfo
}

func (f *fakeResolver) ChannelInfo(channelID string) (ChannelInfo, bool) {
	info, ok := f.channels[channelID]
	return info, ok
}

func newTestCache() (*Cache, *fakeSettingsStore, *fakeResolver) {
	st := newFakeSettingsStore()
	res := &fakeResolver{channels: map[string]ChannelInfo{
		"100": {Name: "#general", ParentID: "55"},
		"200": {Name: "dm", DM: true},
	}}
	return NewCache(st, res), st, res
}

func TestCacheLazyCreate(t *testing.T) {
	cache, st, _ := newTestCache()
	ctx := context.Background()

	doc, err := cache.Get(ctx, "100", "g1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Talkative || doc.LearningDisabled {
		t.Errorf("first Get() = %+v, want defaults", doc)
	}
	row := st.rows["100"]
	if row == nil {
		t.Fatal("expected row to be created on first access")
	}
	if row.Settings != "{}" || row.Name != "#general" || row.ParentID != "55" || row.GuildID != "g1" {
		t.Errorf("created row = %+v", row)
	}

	if _, err := cache.Get(ctx, "100", "g1"); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if st.inserts != 1 {
		t.Errorf("inserts = %d, want 1", st.inserts)
	}
}

func TestCacheMetadataRepair(t *testing.T) {
	cache, st, res := newTestCache()
	ctx := context.Background()

	if _, err := cache.Get(ctx, "100", "g1"); err != nil {
		t.Fatal(err)
	}
	res.channels["100"] = ChannelInfo{Name: "#renamed", ParentID: "77"}

	if _, err := cache.Get(ctx, "100", "g1"); err != nil {
		t.Fatal(err)
	}
	if st.metaUpdates != 1 {
		t.Errorf("metaUpdates = %d, want 1", st.metaUpdates)
	}
	row := st.rows["100"]
	if row.Name != "#renamed" || row.ParentID != "77" {
		t.Errorf("row after repair = %+v", row)
	}
}

func TestCacheDMShortCircuit(t *testing.T) {
	cache, st, _ := newTestCache()

	doc, err := cache.Get(context.Background(), "200", "")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Talkative || doc.LearningDisabled || len(doc.Ignores) != 0 {
		t.Errorf("DM Get() = %+v, want defaults", doc)
	}
	if len(st.rows) != 0 {
		t.Error("DM lookup must not touch storage")
	}
}

func TestCacheUnknownChannelDefaults(t *testing.T) {
	cache, st, _ := newTestCache()

	doc, err := cache.Get(context.Background(), "999", "g1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Talkative {
		t.Errorf("unknown channel Get() = %+v, want defaults", doc)
	}
	if len(st.rows) != 0 {
		t.Error("unknown channel lookup must not create a row")
	}
}

func TestCacheMalformedPayloadDefaults(t *testing.T) {
	cache, st, _ := newTestCache()
	st.rows["100"] = &store.SettingsRow{
		ChannelID: "100", ParentID: "55", GuildID: "g1",
		Name: "#general", Settings: "{{{nope",
	}

	doc, err := cache.Get(context.Background(), "100", "g1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Talkative || doc.LearningDisabled {
		t.Errorf("malformed payload Get() = %+v, want defaults", doc)
	}
}

func TestCacheUpdateRMW(t *testing.T) {
	cache, st, _ := newTestCache()
	ctx := context.Background()

	doc, err := cache.Update(ctx, "100", "g1", func(d Document) Document {
		d.Talkative = true
		return d
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !doc.Talkative {
		t.Error("Update() result should reflect the mutation")
	}

	stored := Parse(st.rows["100"].Settings)
	if !stored.Talkative {
		t.Errorf("stored settings = %q, talkative not persisted", st.rows["100"].Settings)
	}

	doc, err = cache.Update(ctx, "100", "g1", func(d Document) Document {
		d.Ignores = append(d.Ignores, 42)
		return d
	})
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Talkative || len(doc.Ignores) != 1 {
		t.Errorf("second Update() = %+v, earlier mutation lost", doc)
	}
}

func TestCacheDeleteGuild(t *testing.T) {
	cache, st, res := newTestCache()
	ctx := context.Background()
	res.channels["101"] = ChannelInfo{Name: "#other"}

	cache.Get(ctx, "100", "g1")
	cache.Get(ctx, "101", "g2")

	if err := cache.DeleteGuild(ctx, "g1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.rows["100"]; ok {
		t.Error("g1 row should be deleted")
	}
	if _, ok := st.rows["101"]; !ok {
		t.Error("g2 row should survive")
	}
}
