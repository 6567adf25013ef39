package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE users (
		id            BIGSERIAL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		name          VARCHAR(80)  NOT NULL,
		password_hash TEXT         NOT NULL,
		created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
	);

	CREATE TABLE items (
		id                      BIGSERIAL PRIMARY KEY,
		source_post_id          VARCHAR(255) NOT NULL UNIQUE,
		source                  VARCHAR(32)  NOT NULL DEFAULT 'instagram',
		caption                 TEXT         NOT NULL DEFAULT '',
		likes                   BIGINT,
		views                   BIGINT,
		"timestamp"             TIMESTAMPTZ,
		place_name              TEXT         NOT NULL DEFAULT '',
		address                 TEXT         NOT NULL DEFAULT '',
		atmosphere              TEXT         NOT NULL DEFAULT '',
		loudness                TEXT         NOT NULL DEFAULT '',
		lighting                TEXT         NOT NULL DEFAULT '',
		recurring_entertainment TEXT         NOT NULL DEFAULT '',
		price_range             TEXT         NOT NULL DEFAULT '',
		review_summary          TEXT         NOT NULL DEFAULT '',
		yelp_stars              DOUBLE PRECISION,
		"groups"                TEXT[]       NOT NULL DEFAULT '{}',
		experiences             TEXT[]       NOT NULL DEFAULT '{}',
		created_at              TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at              TIMESTAMPTZ  NOT NULL DEFAULT now()
	);

	CREATE TABLE media (
		id         BIGSERIAL PRIMARY KEY,
		item_id    BIGINT      NOT NULL REFERENCES items (id) ON DELETE CASCADE,
		url        TEXT        NOT NULL,
		provider   VARCHAR(32) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (item_id, url)
	);

	CREATE TABLE hashtags (
		id  BIGSERIAL PRIMARY KEY,
		tag VARCHAR(255) NOT NULL UNIQUE
	);

	CREATE TABLE item_hashtags (
		item_id    BIGINT NOT NULL REFERENCES items (id) ON DELETE CASCADE,
		hashtag_id BIGINT NOT NULL REFERENCES hashtags (id) ON DELETE CASCADE,
		PRIMARY KEY (item_id, hashtag_id)
	);
	`)
	return err
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS item_hashtags;
	DROP TABLE IF EXISTS hashtags;
	DROP TABLE IF EXISTS media;
	DROP TABLE IF EXISTS items;
	DROP TABLE IF EXISTS users;
	`)
	return err
}
