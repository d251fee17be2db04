package identity

import (
	"context"

	"github.com/Parimal-b/InstagramCloneApp/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS identity_accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS revoked_tokens (
	token      TEXT PRIMARY KEY,
	revoked_at TIMESTAMPTZ NOT NULL
)`

func Migrate(ctx context.Context, querier db.Querier) error {
	_, err := querier.Exec(ctx, schema)
	return err
}
