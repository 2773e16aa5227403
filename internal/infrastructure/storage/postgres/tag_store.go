package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"herdbook/internal/core/apperror"
	corenumerator "herdbook/internal/core/numerator"
	"herdbook/internal/core/tagging"
	"herdbook/pkg/logger"
)

const (
	settingsTable = "tagging_settings"
	animalsTable  = "animals"

	statusActive = "active"
)

var settingsColumns = ExtractDBColumns[tagging.Settings]()

// TagStore implements tagging.Store and tagging.SettingsWriter on PostgreSQL.
// The counter is injected so the strict or cached strategy can be chosen at
// startup.
type TagStore struct {
	txm     *TxManager
	counter corenumerator.Counter
}

// Ensure compile-time interface compliance.
var (
	_ tagging.Store          = (*TagStore)(nil)
	_ tagging.SettingsWriter = (*TagStore)(nil)
)

// NewTagStore creates a tag store.
func NewTagStore(txm *TxManager, counter corenumerator.Counter) *TagStore {
	return &TagStore{txm: txm, counter: counter}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetTaggingSettings implements tagging.SettingsProvider.
func (s *TagStore) GetTaggingSettings(ctx context.Context, farmID string) (*tagging.Settings, error) {
	sql, args, err := selectSettingsQuery(farmID)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out tagging.Settings
	if err := pgxscan.Get(ctx, s.txm.Querier(ctx), &out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("tagging settings", farmID)
		}
		return nil, apperror.NewDatabase("get tagging settings", err)
	}
	return &out, nil
}

// IncrementSequence implements tagging.SequenceCounter. The advisory
// next_number column is refreshed afterwards; a failure there is logged and
// does not fail the call because the number is already consumed.
func (s *TagStore) IncrementSequence(ctx context.Context, farmID string) (int64, error) {
	n, err := s.counter.IncrementSequence(ctx, farmID)
	if err != nil {
		return 0, apperror.NewDatabase("increment sequence", err)
	}

	sql, args, err := refreshNextNumberQuery(farmID, n+1)
	if err == nil {
		_, err = s.txm.Querier(ctx).Exec(ctx, sql, args...)
	}
	if err != nil {
		logger.Warn(ctx, "refresh next_number failed", "farm_id", farmID, "error", err)
	}
	return n, nil
}

// TagExists implements tagging.TagRegistry. Only active animals count.
func (s *TagStore) TagExists(ctx context.Context, farmID, candidate string) (bool, error) {
	sql, args, err := tagExistsQuery(farmID, candidate)
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists bool
	if err := s.txm.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, apperror.NewDatabase("check tag exists", err)
	}
	return exists, nil
}

// SaveTaggingSettings implements tagging.SettingsWriter. The settings row and
// the counter move in one transaction, and neither next_number nor the
// counter ever moves back.
func (s *TagStore) SaveTaggingSettings(ctx context.Context, settings tagging.Settings) error {
	if settings.FarmID == "" {
		return apperror.NewValidation("farm id is required")
	}
	if err := settings.Normalized().Validate(); err != nil {
		return apperror.NewValidation(err.Error())
	}

	sql, args, err := upsertSettingsQuery(settings)
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	return s.txm.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.txm.Querier(ctx).Exec(ctx, sql, args...); err != nil {
			return apperror.NewDatabase("save tagging settings", err)
		}
		if settings.NextNumber > 0 {
			if err := s.counter.SetNext(ctx, settings.FarmID, settings.NextNumber); err != nil {
				return apperror.NewDatabase("set next number", err)
			}
		}
		return nil
	})
}

func selectSettingsQuery(farmID string) (string, []any, error) {
	return Builder().
		Select(settingsColumns...).
		From(settingsTable).
		Where(squirrel.Eq{"farm_id": farmID}).
		Limit(1).
		ToSql()
}

func refreshNextNumberQuery(farmID string, next int64) (string, []any, error) {
	return Builder().
		Update(settingsTable).
		Set("next_number", squirrel.Expr("GREATEST(next_number, ?)", next)).
		Where(squirrel.Eq{"farm_id": farmID}).
		ToSql()
}

func tagExistsQuery(farmID, candidate string) (string, []any, error) {
	return Builder().
		Select("1").
		Prefix("SELECT EXISTS (").
		From(animalsTable).
		Where(squirrel.Eq{"farm_id": farmID, "tag_number": candidate, "status": statusActive}).
		Suffix(")").
		ToSql()
}

func upsertSettingsQuery(settings tagging.Settings) (string, []any, error) {
	values := StructToMap(settings)
	attrs := settings.CustomAttributes
	if attrs == nil {
		attrs = []tagging.AttributeDefinition{}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", nil, fmt.Errorf("marshal custom attributes: %w", err)
	}
	values["custom_attributes"] = string(raw)

	cols := make([]string, 0, len(settingsColumns))
	vals := make([]any, 0, len(settingsColumns))
	for _, c := range settingsColumns {
		cols = append(cols, c)
		vals = append(vals, values[c])
	}

	return Builder().
		Insert(settingsTable).
		Columns(cols...).
		Values(vals...).
		Suffix(`ON CONFLICT (farm_id) DO UPDATE SET
			method = EXCLUDED.method,
			numbering_system = EXCLUDED.numbering_system,
			tag_prefix = EXCLUDED.tag_prefix,
			custom_format = EXCLUDED.custom_format,
			barcode_type = EXCLUDED.barcode_type,
			barcode_length = EXCLUDED.barcode_length,
			padding_zeros = EXCLUDED.padding_zeros,
			sequence_width = EXCLUDED.sequence_width,
			include_check_digit = EXCLUDED.include_check_digit,
			next_number = GREATEST(tagging_settings.next_number, EXCLUDED.next_number),
			custom_attributes = EXCLUDED.custom_attributes,
			tag_rule = EXCLUDED.tag_rule,
			updated_at = now()`).
		ToSql()
}
