package postgres

import (
	"context"
	"fmt"
)

// Schema creates the tables the tag store reads and writes. The animals
// table is owned by the herd records service; only the columns the uniqueness
// check needs are declared here.
const Schema = `
CREATE TABLE IF NOT EXISTS tagging_settings (
    farm_id             TEXT PRIMARY KEY,
    method              TEXT NOT NULL DEFAULT '',
    numbering_system    TEXT NOT NULL DEFAULT 'sequential',
    tag_prefix          TEXT NOT NULL DEFAULT 'COW',
    custom_format       TEXT NOT NULL DEFAULT '',
    barcode_type        TEXT NOT NULL DEFAULT 'code128',
    barcode_length      INTEGER NOT NULL DEFAULT 12,
    padding_zeros       BOOLEAN NOT NULL DEFAULT TRUE,
    sequence_width      INTEGER NOT NULL DEFAULT 3,
    include_check_digit BOOLEAN NOT NULL DEFAULT FALSE,
    next_number         BIGINT NOT NULL DEFAULT 1,
    custom_attributes   JSONB NOT NULL DEFAULT '[]'::jsonb,
    tag_rule            TEXT NOT NULL DEFAULT '',
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tag_sequences (
    farm_id     TEXT PRIMARY KEY,
    current_val BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS animals (
    id         UUID PRIMARY KEY,
    farm_id    TEXT NOT NULL,
    tag_number TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active'
);

CREATE INDEX IF NOT EXISTS idx_animals_farm_tag_active
    ON animals (farm_id, tag_number) WHERE status = 'active';
`

// Migrate applies Schema. It is idempotent.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
