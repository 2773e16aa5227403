package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"herdbook/internal/core/tagging"
)

type AuditFields struct {
	UpdatedBy string `db:"updated_by"`
}

type settingsRow struct {
	tagging.Settings
	AuditFields
	Ignored  string `db:"-"`
	Untagged string
}

func TestExtractDBColumns_Settings(t *testing.T) {
	cols := ExtractDBColumns[tagging.Settings]()

	assert.Equal(t, "farm_id", cols[0])
	for _, expected := range []string{
		"numbering_system", "tag_prefix", "custom_format", "barcode_type",
		"next_number", "custom_attributes", "tag_rule",
	} {
		assert.Contains(t, cols, expected)
	}
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[settingsRow]()

	assert.Contains(t, cols, "tag_prefix")
	assert.Contains(t, cols, "updated_by")
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(ExtractDBColumns[tagging.Settings]())+1)
}

func TestStructToMap(t *testing.T) {
	row := settingsRow{
		Settings: tagging.Settings{
			FarmID:          "farm-1",
			NumberingSystem: tagging.SystemBarcode,
			NextNumber:      42,
		},
		AuditFields: AuditFields{UpdatedBy: "vet"},
		Untagged:    "x",
	}

	m := StructToMap(&row)

	assert.Equal(t, "farm-1", m["farm_id"])
	assert.Equal(t, tagging.SystemBarcode, m["numbering_system"])
	assert.Equal(t, int64(42), m["next_number"])
	assert.Equal(t, "vet", m["updated_by"])
	assert.NotContains(t, m, "Untagged")
	assert.Nil(t, StructToMap(42))
}
