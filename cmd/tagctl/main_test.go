package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdbook/internal/domain/auth"
)

// run executes tagctl with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestPreviewCmd(t *testing.T) {
	out, err := run(t, "preview", "--prefix", "HF", "--start", "17", "--count", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"HF-017", "HF-018"}, lines(out))

	out, err = run(t, "preview", "--system", "custom", "--format", "{PREFIX}-{BREED}-{NUMBER:4}",
		"--breed", "Holstein", "--start", "7", "--count", "1")
	require.NoError(t, err)
	assert.Equal(t, "COW-HO-0007", strings.TrimSpace(out))

	_, err = run(t, "preview", "--count", "101")
	assert.Error(t, err)

	_, err = run(t, "preview", "--system", "roman")
	assert.Error(t, err)
}

func TestCheckDigitCmd(t *testing.T) {
	out, err := run(t, "checkdigit", "590123412345")
	require.NoError(t, err)
	assert.Equal(t, "5901234123457", strings.TrimSpace(out))

	out, err = run(t, "checkdigit", "--symbology", "upc", "03600029145")
	require.NoError(t, err)
	assert.Equal(t, "036000291452", strings.TrimSpace(out))

	_, err = run(t, "checkdigit", "12ab")
	assert.Error(t, err)

	_, err = run(t, "checkdigit", "--symbology", "qr", "1")
	assert.Error(t, err)
}

func TestValidateCmd(t *testing.T) {
	out, err := run(t, "validate", "COW-001")
	require.NoError(t, err)
	assert.Equal(t, "valid", strings.TrimSpace(out))

	out, err = run(t, "validate", "--system", "barcode", "--barcode-type", "ean13", "12345")
	require.Error(t, err)
	assert.Contains(t, out, "EAN-13")

	_, err = run(t, "validate", "--rule", `tag.startsWith("HF")`, "COW-001")
	assert.Error(t, err)

	_, err = run(t, "validate", "--rule", `tag +`, "COW-001")
	assert.Error(t, err)
}

func TestSettingsAndGenerate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "herd.db")

	_, err := run(t, "--db", db, "generate", "--farm", "farm-1")
	require.Error(t, err, "generate needs stored settings")

	_, err = run(t, "--db", db, "settings", "set", "--farm", "farm-1", "--prefix", "HF", "--next", "17")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "settings", "get", "--farm", "farm-1")
	require.NoError(t, err)
	assert.Contains(t, out, "prefix=HF")

	out, err = run(t, "--db", db, "generate", "--farm", "farm-1", "--count", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"HF-017", "HF-018"}, lines(out))

	// A stale --next cannot move the counter back over consumed numbers.
	_, err = run(t, "--db", db, "settings", "set", "--farm", "farm-1", "--prefix", "HF", "--next", "17")
	require.NoError(t, err)

	out, err = run(t, "--db", db, "--json", "generate", "--farm", "farm-1")
	require.NoError(t, err)
	var got []generatedTag
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "HF-019", got[0].Tag)
	assert.Equal(t, "generated", got[0].Outcome)
	assert.False(t, got[0].Fallback)
	assert.NotEmpty(t, got[0].AnimalID)

	_, err = run(t, "--db", db, "settings", "set", "--farm", "farm-1", "--prefix", "HF",
		"--system", "custom", "--format", "{PREFIX}-1{NUMBER:2}")
	require.NoError(t, err)
	out, err = run(t, "--db", db, "generate", "--farm", "farm-1", "--count", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"HF-120", "HF-121"}, lines(out))

	// Back to sequential at 120: HF-120 is taken, retired HF-121 is free again.
	_, err = run(t, "--db", db, "retire", "--farm", "farm-1", "HF-121")
	require.NoError(t, err)
	_, err = run(t, "--db", db, "settings", "set", "--farm", "farm-1", "--prefix", "HF", "--next", "120")
	require.NoError(t, err)

	out, err = run(t, "--db", db, "--json", "generate", "--farm", "farm-1", "--no-register")
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "HF-121", got[0].Tag)
	assert.Equal(t, "retried", got[0].Outcome)
}

func TestSettingsSet_RejectsBrokenRule(t *testing.T) {
	db := filepath.Join(t.TempDir(), "herd.db")
	_, err := run(t, "--db", db, "settings", "set", "--farm", "farm-1", "--rule", "tag ===")
	assert.Error(t, err)
}

func TestPayloadCmd(t *testing.T) {
	for _, compact := range []bool{false, true} {
		args := []string{"--json", "payload", "encode", "--animal", "a-1", "--tag", "COW-001", "--farm", "farm-1"}
		if compact {
			args = append(args, "--compact")
		}
		out, err := run(t, args...)
		require.NoError(t, err)

		var encoded struct {
			Data string `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &encoded))
		assert.Equal(t, compact, strings.HasPrefix(encoded.Data, "z1:"))

		out, err = run(t, "payload", "decode", encoded.Data)
		require.NoError(t, err)
		assert.Contains(t, out, "animal=a-1 tag=COW-001 farm=farm-1")
	}

	_, err := run(t, "payload", "decode", "{}")
	assert.Error(t, err)
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("HERDBOOK_JWT_SECRET", "tagctl-test-secret")

	out, err := run(t, "token", "--farm", "farm-1", "--role", "manager")
	require.NoError(t, err)

	user, err := auth.NewJWTService(auth.DefaultJWTConfig("tagctl-test-secret")).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "farm-1", user.FarmID)
	assert.Equal(t, []string{"manager"}, user.Roles)
}
