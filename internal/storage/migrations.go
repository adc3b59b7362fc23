package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []struct {
	name string
	ddl  string
}{
	{
		name: "pixels",
		ddl: `
			CREATE TABLE IF NOT EXISTS pixels (
				id         TEXT PRIMARY KEY,
				color      TEXT NOT NULL,
				owner_id   TEXT,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);

			CREATE INDEX IF NOT EXISTS idx_pixels_owner
				ON pixels (owner_id) WHERE owner_id IS NOT NULL;
		`,
	},
	{
		name: "users",
		ddl: `
			CREATE TABLE IF NOT EXISTS users (
				id            UUID PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				verified      BOOLEAN NOT NULL DEFAULT false,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
			);
		`,
	},
	{
		name: "capability_tokens",
		ddl: `
			CREATE TABLE IF NOT EXISTS capability_tokens (
				token_hash TEXT PRIMARY KEY,
				purpose    TEXT NOT NULL,
				subject    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
				expires_at TIMESTAMPTZ NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);

			CREATE INDEX IF NOT EXISTS idx_capability_tokens_expiry
				ON capability_tokens (expires_at);
		`,
	},
}

// RunMigrations creates the pixel, user, and token tables if they are missing.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.ddl); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}
