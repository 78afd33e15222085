package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/factrelay/internal/store"
)

// PGUserCacheStore implements store.UserCacheStore backed by Postgres.
type PGUserCacheStore struct {
	db *sql.DB
}

func NewPGUserCacheStore(db *sql.DB) *PGUserCacheStore {
	return &PGUserCacheStore{db: db}
}

func (s *PGUserCacheStore) Upsert(ctx context.Context, row store.UserRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_cache (id, username, discriminator, avatar, bot)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   username = EXCLUDED.username,
		   discriminator = EXCLUDED.discriminator,
		   avatar = EXCLUDED.avatar`,
		row.ID, row.Username, row.Discriminator, row.Avatar, row.Bot)
	if err != nil {
		return fmt.Errorf("upsert user cache: %w", err)
	}
	return nil
}
