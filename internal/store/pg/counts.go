package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/factrelay/internal/store"
)

// PGCountsStore implements store.CountsStore backed by Postgres.
// One row per deployment flavour (production/dev).
type PGCountsStore struct {
	db *sql.DB
}

func NewPGCountsStore(db *sql.DB) *PGCountsStore {
	return &PGCountsStore{db: db}
}

func (s *PGCountsStore) Upsert(ctx context.Context, row store.CountsRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gateway_counts (dev, guild_count, user_count, channel_count, sent_messages, received_messages, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (dev) DO UPDATE SET
		   guild_count = EXCLUDED.guild_count,
		   user_count = EXCLUDED.user_count,
		   channel_count = EXCLUDED.channel_count,
		   sent_messages = EXCLUDED.sent_messages,
		   received_messages = EXCLUDED.received_messages,
		   updated_at = now()`,
		row.Dev, row.Guilds, row.Users, row.Channels, row.Sent, row.Received)
	if err != nil {
		return fmt.Errorf("upsert gateway counts: %w", err)
	}
	return nil
}
