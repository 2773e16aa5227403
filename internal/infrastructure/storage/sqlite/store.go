// Package sqlite provides a single-file tag store for local and CLI use.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"herdbook/internal/core/apperror"
	"herdbook/internal/core/id"
	"herdbook/internal/core/tagging"
)

const schema = `
CREATE TABLE IF NOT EXISTS tagging_settings (
	farm_id             TEXT PRIMARY KEY,
	method              TEXT NOT NULL DEFAULT '',
	numbering_system    TEXT NOT NULL DEFAULT 'sequential',
	tag_prefix          TEXT NOT NULL DEFAULT 'COW',
	custom_format       TEXT NOT NULL DEFAULT '',
	barcode_type        TEXT NOT NULL DEFAULT 'code128',
	barcode_length      INTEGER NOT NULL DEFAULT 12,
	padding_zeros       INTEGER NOT NULL DEFAULT 1,
	sequence_width      INTEGER NOT NULL DEFAULT 3,
	include_check_digit INTEGER NOT NULL DEFAULT 0,
	next_number         INTEGER NOT NULL DEFAULT 1,
	custom_attributes   TEXT NOT NULL DEFAULT '[]',
	tag_rule            TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS tag_sequences (
	farm_id     TEXT PRIMARY KEY,
	current_val INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS animals (
	id         TEXT PRIMARY KEY,
	farm_id    TEXT NOT NULL,
	tag_number TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'active'
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_animals_farm_tag_active
	ON animals (farm_id, tag_number) WHERE status = 'active';
`

// Store implements tagging.Store and tagging.SettingsWriter on SQLite.
// All access goes through one connection, which serializes counter updates.
type Store struct {
	db   *sql.DB
	path string
}

// Ensure compile-time interface compliance.
var (
	_ tagging.Store          = (*Store)(nil)
	_ tagging.SettingsWriter = (*Store)(nil)
)

// Open opens (creating if needed) the store at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "herdbook.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ready pings the database.
func (s *Store) Ready(ctx context.Context) error { return s.db.PingContext(ctx) }

// GetTaggingSettings implements tagging.SettingsProvider.
func (s *Store) GetTaggingSettings(ctx context.Context, farmID string) (*tagging.Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT farm_id, method, numbering_system, tag_prefix, custom_format,
		       barcode_type, barcode_length, padding_zeros, sequence_width,
		       include_check_digit, next_number, custom_attributes, tag_rule
		FROM tagging_settings WHERE farm_id = ?`, farmID)

	var (
		out   tagging.Settings
		attrs string
	)
	err := row.Scan(&out.FarmID, &out.Method, &out.NumberingSystem, &out.TagPrefix, &out.CustomFormat,
		&out.BarcodeType, &out.BarcodeLength, &out.PaddingZeros, &out.SequenceWidth,
		&out.IncludeCheckDigit, &out.NextNumber, &attrs, &out.TagRule)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("tagging settings", farmID)
	}
	if err != nil {
		return nil, apperror.NewDatabase("get tagging settings", err)
	}
	if err := json.Unmarshal([]byte(attrs), &out.CustomAttributes); err != nil {
		return nil, apperror.NewDatabase("decode custom attributes", err)
	}
	return &out, nil
}

// SaveTaggingSettings implements tagging.SettingsWriter. next_number and the
// counter only move forward, so echoing back a stale read cannot rewind them.
func (s *Store) SaveTaggingSettings(ctx context.Context, settings tagging.Settings) error {
	if settings.FarmID == "" {
		return apperror.NewValidation("farm id is required")
	}
	if err := settings.Normalized().Validate(); err != nil {
		return apperror.NewValidation(err.Error())
	}
	attrs := settings.CustomAttributes
	if attrs == nil {
		attrs = []tagging.AttributeDefinition{}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal custom attributes: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tagging_settings (farm_id, method, numbering_system, tag_prefix, custom_format,
				barcode_type, barcode_length, padding_zeros, sequence_width, include_check_digit,
				next_number, custom_attributes, tag_rule)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (farm_id) DO UPDATE SET
				method = excluded.method,
				numbering_system = excluded.numbering_system,
				tag_prefix = excluded.tag_prefix,
				custom_format = excluded.custom_format,
				barcode_type = excluded.barcode_type,
				barcode_length = excluded.barcode_length,
				padding_zeros = excluded.padding_zeros,
				sequence_width = excluded.sequence_width,
				include_check_digit = excluded.include_check_digit,
				next_number = MAX(next_number, excluded.next_number),
				custom_attributes = excluded.custom_attributes,
				tag_rule = excluded.tag_rule`,
			settings.FarmID, settings.Method, string(settings.NumberingSystem), settings.TagPrefix,
			settings.CustomFormat, string(settings.BarcodeType), settings.BarcodeLength, settings.PaddingZeros,
			settings.SequenceWidth, settings.IncludeCheckDigit, settings.NextNumber, string(raw), settings.TagRule)
		if err != nil {
			return apperror.NewDatabase("save tagging settings", err)
		}
		if settings.NextNumber > 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO tag_sequences (farm_id, current_val) VALUES (?, ?)
				ON CONFLICT (farm_id) DO UPDATE SET current_val = MAX(current_val, excluded.current_val)`,
				settings.FarmID, settings.NextNumber-1)
			if err != nil {
				return apperror.NewDatabase("set next number", err)
			}
		}
		return nil
	})
}

// IncrementSequence implements tagging.SequenceCounter.
func (s *Store) IncrementSequence(ctx context.Context, farmID string) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tag_sequences (farm_id, current_val) VALUES (?, 1)
			ON CONFLICT (farm_id) DO UPDATE SET current_val = current_val + 1
			RETURNING current_val`, farmID).Scan(&n)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE tagging_settings SET next_number = MAX(next_number, ?) WHERE farm_id = ?`, n+1, farmID)
		return err
	})
	if err != nil {
		return 0, apperror.NewDatabase("increment sequence", err)
	}
	return n, nil
}

// TagExists implements tagging.TagRegistry. Only active animals count.
func (s *Store) TagExists(ctx context.Context, farmID, candidate string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM animals WHERE farm_id = ? AND tag_number = ? AND status = 'active')`,
		farmID, candidate).Scan(&exists)
	if err != nil {
		return false, apperror.NewDatabase("check tag exists", err)
	}
	return exists, nil
}

// RegisterTag records an active animal carrying tag, so later uniqueness
// checks see it. It returns the new animal's id.
func (s *Store) RegisterTag(ctx context.Context, farmID, tag string) (string, error) {
	animalID := id.NewAnimal()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO animals (id, farm_id, tag_number) VALUES (?, ?, ?)`, animalID, farmID, tag)
	if err != nil {
		if exists, _ := s.TagExists(ctx, farmID, tag); exists {
			return "", apperror.NewTagUniqueness(farmID, tag)
		}
		return "", apperror.NewDatabase("register tag", err)
	}
	return animalID, nil
}

// RetireTag marks the animal carrying tag as inactive, freeing the tag.
func (s *Store) RetireTag(ctx context.Context, farmID, tag string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE animals SET status = 'retired' WHERE farm_id = ? AND tag_number = ? AND status = 'active'`,
		farmID, tag)
	if err != nil {
		return apperror.NewDatabase("retire tag", err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
