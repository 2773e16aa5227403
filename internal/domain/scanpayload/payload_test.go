package scanpayload

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdbook/internal/core/apperror"
)

var printedAt = time.Date(2026, 3, 7, 9, 30, 0, 0, time.UTC)

func newCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(func() time.Time { return now })
	require.NoError(t, err)
	return c
}

func TestBuild(t *testing.T) {
	c := newCodec(t, printedAt.Add(450*time.Millisecond))

	p := c.Build("animal-1", "COW-001", "farm-1")

	assert.Equal(t, CurrentVersion, p.Version)
	assert.Equal(t, printedAt, p.Timestamp)
	assert.Equal(t, "COW-001", p.TagNumber)
}

func TestEncode_RoundTripBothForms(t *testing.T) {
	c := newCodec(t, printedAt)
	p := c.Build("animal-1", "COW-HO-0007", "farm-1")

	plain, err := c.Encode(p)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(plain)))
	assert.Contains(t, plain, `"tagNumber":"COW-HO-0007"`)

	compact, err := c.EncodeCompact(p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(compact, "z1:"))
	assert.NotContains(t, compact, "+")
	assert.NotContains(t, compact, "/")

	for _, data := range []string{plain, compact} {
		got, err := c.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestEncode_RequiresIdentifyingFields(t *testing.T) {
	c := newCodec(t, printedAt)

	_, err := c.Encode(Payload{TagNumber: "COW-001"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePayloadInvalid, appErr.Code)
	assert.Equal(t, []string{"animalId", "farmId"}, appErr.Details["missing"])
}

func TestParse_Rejects(t *testing.T) {
	c := newCodec(t, printedAt)

	tests := []struct {
		name string
		data string
	}{
		{"empty", "   "},
		{"not json", "COW-001"},
		{"bad base64", "z1:***"},
		{"not zstd", "z1:aGVsbG8"},
		{"missing farm", `{"animalId":"a","tagNumber":"t","timestamp":"2026-03-07T09:00:00Z","version":1}`},
		{"no timestamp", `{"animalId":"a","tagNumber":"t","farmId":"f","version":1}`},
		{"future", `{"animalId":"a","tagNumber":"t","farmId":"f","timestamp":"2026-03-07T09:40:00Z","version":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Parse(tt.data)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodePayloadInvalid), err.Error())
		})
	}
}

func TestParse_ClockSkewIsTolerated(t *testing.T) {
	c := newCodec(t, printedAt)
	p := Payload{AnimalID: "a", TagNumber: "t", FarmID: "f", Timestamp: printedAt.Add(4 * time.Minute), Version: 1}

	data, err := c.Encode(p)
	require.NoError(t, err)

	_, err = c.Parse(data)
	assert.NoError(t, err)
}

func TestParse_Expired(t *testing.T) {
	printer := newCodec(t, printedAt)
	data, err := printer.EncodeCompact(printer.Build("a", "COW-001", "f"))
	require.NoError(t, err)

	scanner := newCodec(t, printedAt.Add(MaxAge+time.Hour))
	_, err = scanner.Parse(data)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExpired))
	assert.True(t, apperror.HasCode(err, apperror.CodePayloadExpired))

	_, err = newCodec(t, printedAt.Add(MaxAge-time.Hour)).Parse(data)
	assert.NoError(t, err)
}
