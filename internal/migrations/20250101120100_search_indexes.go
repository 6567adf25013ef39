package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upSearchIndexes, downSearchIndexes)
}

func upSearchIndexes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE EXTENSION IF NOT EXISTS pg_trgm;

	CREATE INDEX IF NOT EXISTS items_groups_gin      ON items USING GIN ("groups");
	CREATE INDEX IF NOT EXISTS items_experiences_gin ON items USING GIN (experiences);
	CREATE INDEX IF NOT EXISTS items_caption_trgm    ON items USING GIN (caption gin_trgm_ops);
	CREATE INDEX IF NOT EXISTS items_place_name_trgm ON items USING GIN (place_name gin_trgm_ops);

	CREATE INDEX IF NOT EXISTS items_updated_at_idx ON items (updated_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS items_views_idx      ON items (views);
	CREATE INDEX IF NOT EXISTS items_likes_idx      ON items (likes);
	CREATE INDEX IF NOT EXISTS items_timestamp_idx  ON items ("timestamp");

	CREATE INDEX IF NOT EXISTS item_hashtags_hashtag_idx ON item_hashtags (hashtag_id);
	`)
	return err
}

func downSearchIndexes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP INDEX IF EXISTS item_hashtags_hashtag_idx;
	DROP INDEX IF EXISTS items_timestamp_idx;
	DROP INDEX IF EXISTS items_likes_idx;
	DROP INDEX IF EXISTS items_views_idx;
	DROP INDEX IF EXISTS items_updated_at_idx;
	DROP INDEX IF EXISTS items_place_name_trgm;
	DROP INDEX IF EXISTS items_caption_trgm;
	DROP INDEX IF EXISTS items_experiences_gin;
	DROP INDEX IF EXISTS items_groups_gin;
	`)
	return err
}
