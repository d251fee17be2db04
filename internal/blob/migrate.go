package blob

import (
	"context"

	"github.com/Parimal-b/InstagramCloneApp/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS media_objects (
	id         TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	source_ref TEXT NOT NULL,
	url        TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func Migrate(ctx context.Context, querier db.Querier) error {
	_, err := querier.Exec(ctx, schema)
	return err
}
