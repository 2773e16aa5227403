package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdbook/internal/core/apperror"
	corenumerator "herdbook/internal/core/numerator"
	"herdbook/internal/core/tagging"
	"herdbook/internal/infrastructure/numerator"
)

func TestSelectSettingsQuery(t *testing.T) {
	sql, args, err := selectSettingsQuery("farm-1")
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM tagging_settings WHERE farm_id = $1 LIMIT 1")
	assert.Contains(t, sql, "custom_attributes")
	assert.Equal(t, []any{"farm-1"}, args)
}

func TestTagExistsQuery(t *testing.T) {
	sql, args, err := tagExistsQuery("farm-1", "COW-001")
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT EXISTS ( SELECT 1 FROM animals WHERE farm_id = $1 AND status = $2 AND tag_number = $3 )",
		sql)
	assert.Equal(t, []any{"farm-1", "active", "COW-001"}, args)
}

func TestRefreshNextNumberQuery(t *testing.T) {
	sql, args, err := refreshNextNumberQuery("farm-1", 8)
	require.NoError(t, err)

	assert.Equal(t, "UPDATE tagging_settings SET next_number = GREATEST(next_number, $1) WHERE farm_id = $2", sql)
	assert.Equal(t, []any{int64(8), "farm-1"}, args)
}

func TestUpsertSettingsQuery(t *testing.T) {
	sql, args, err := upsertSettingsQuery(tagging.Settings{
		FarmID:          "farm-1",
		NumberingSystem: tagging.SystemCustom,
		CustomAttributes: []tagging.AttributeDefinition{
			{Name: "Pen", Values: []string{"north", "south"}},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO tagging_settings")
	assert.Contains(t, sql, "ON CONFLICT (farm_id) DO UPDATE")
	require.Len(t, args, len(settingsColumns))
	assert.Equal(t, "farm-1", args[0])
	assert.Contains(t, args, `[{"name":"Pen","values":["north","south"]}]`)

	assert.Contains(t, sql, "next_number = GREATEST(tagging_settings.next_number, EXCLUDED.next_number)")

	_, args, err = upsertSettingsQuery(tagging.Settings{FarmID: "farm-2"})
	require.NoError(t, err)
	assert.Contains(t, args, "[]")
}

// TestTagStore_Integration runs against a real database when
// HERDBOOK_TEST_DATABASE_URL is set.
func TestTagStore_Integration(t *testing.T) {
	dsn := os.Getenv("HERDBOOK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HERDBOOK_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := NewPool(ctx, DefaultPoolConfig(dsn))
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, Migrate(ctx, pool))

	txm := NewTxManager(pool)
	store := NewTagStore(txm, numerator.New(ContextQuerier{Manager: txm}, corenumerator.DefaultOptions()))

	farmID := "it-" + t.Name()
	_, err = pool.Exec(ctx, `DELETE FROM tagging_settings WHERE farm_id = $1`, farmID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM animals WHERE farm_id = $1`, farmID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM tag_sequences WHERE farm_id = $1`, farmID)
	require.NoError(t, err)

	_, err = store.GetTaggingSettings(ctx, farmID)
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, store.SaveTaggingSettings(ctx, tagging.Settings{
		FarmID:          farmID,
		NumberingSystem: tagging.SystemSequential,
		TagPrefix:       "IT",
		NextNumber:      5,
		CustomAttributes: []tagging.AttributeDefinition{
			{Name: "Pen", Values: []string{"north"}},
		},
	}))

	got, err := store.GetTaggingSettings(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, "IT", got.TagPrefix)
	assert.Equal(t, []tagging.AttributeDefinition{{Name: "Pen", Values: []string{"north"}}}, got.CustomAttributes)

	n, err := store.IncrementSequence(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	got, err = store.GetTaggingSettings(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.NextNumber)

	// saving without a next number, or with a stale one, moves nothing back
	require.NoError(t, store.SaveTaggingSettings(ctx, tagging.Settings{FarmID: farmID, TagPrefix: "IT"}))
	require.NoError(t, store.SaveTaggingSettings(ctx, tagging.Settings{FarmID: farmID, TagPrefix: "IT", NextNumber: 2}))
	got, err = store.GetTaggingSettings(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.NextNumber)
	n, err = store.IncrementSequence(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	exists, err := store.TagExists(ctx, farmID, "IT-005")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = pool.Exec(ctx, `INSERT INTO animals (id, farm_id, tag_number) VALUES (gen_random_uuid(), $1, 'IT-005')`, farmID)
	require.NoError(t, err)
	exists, err = store.TagExists(ctx, farmID, "IT-005")
	require.NoError(t, err)
	assert.True(t, exists)
}
