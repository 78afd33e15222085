package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nextlevelbuilder/factrelay/internal/store"
)

// PGSettingsStore implements store.SettingsStore backed by Postgres.
type PGSettingsStore struct {
	db *sql.DB
}

func NewPGSettingsStore(db *sql.DB) *PGSettingsStore {
	return &PGSettingsStore{db: db}
}

func (s *PGSettingsStore) Get(ctx context.Context, channelID string) (*store.SettingsRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(parent_id::text, ''), guild_id, name, settings
		 FROM channel_settings WHERE id = $1`, channelID)

	var r store.SettingsRow
	if err := row.Scan(&r.ChannelID, &r.ParentID, &r.GuildID, &r.Name, &r.Settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select channel settings: %w", err)
	}
	return &r, nil
}

func (s *PGSettingsStore) Insert(ctx context.Context, row store.SettingsRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channel_settings (id, parent_id, guild_id, name, settings)
		 VALUES ($1, NULLIF($2, '')::bigint, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		row.ChannelID, row.ParentID, row.GuildID, row.Name, row.Settings)
	if err != nil {
		return fmt.Errorf("insert channel settings: %w", err)
	}
	return nil
}

func (s *PGSettingsStore) UpdateMeta(ctx context.Context, channelID, parentID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channel_settings SET parent_id = NULLIF($2, '')::bigint, name = $3 WHERE id = $1`,
		channelID, parentID, name)
	if err != nil {
		return fmt.Errorf("update channel metadata: %w", err)
	}
	return nil
}

func (s *PGSettingsStore) UpdateSettings(ctx context.Context, channelID, settings string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channel_settings SET settings = $2 WHERE id = $1`,
		channelID, settings)
	if err != nil {
		return fmt.Errorf("update channel settings: %w", err)
	}
	return nil
}

func (s *PGSettingsStore) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channel_settings WHERE id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("delete channel settings: %w", err)
	}
	return nil
}

func (s *PGSettingsStore) DeleteGuild(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channel_settings WHERE guild_id = $1`, guildID)
	if err != nil {
		return fmt.Errorf("delete guild settings: %w", err)
	}
	return nil
}
