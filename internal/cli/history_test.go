package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/ledger"
	"github.com/roach88/apigen/internal/testutil"
)

func TestHistory(t *testing.T) {
	dir := testutil.Project(t, testutil.CritterSource)
	db := filepath.Join(dir, "history.db")
	args := append([]string{"generate", "--ledger", db}, projectArgs(dir)...)

	_, _, err := execute(t, args...)
	require.NoError(t, err)
	testutil.WriteTree(t, dir, testutil.Tree{"src/Extra.h": "///@ Property Critter Public int32 Mana\n"})
	out, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "! Scripting surface changed since")

	out, _, err = execute(t, "history", "--ledger", db)
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "SEQ"))
	assert.True(t, strings.HasPrefix(lines[1], "2 "))
	assert.Contains(t, lines[1], " *")
	assert.True(t, strings.HasPrefix(lines[2], "1 "))
	assert.Contains(t, lines[2], "24/24")

	out, _, err = execute(t, "--format", "json", "history", "--ledger", db, "-n", "1")
	require.NoError(t, err)
	var resp struct {
		Status string         `json:"status"`
		Data   []ledger.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(2), resp.Data[0].Seq)
}

func TestHistoryEmpty(t *testing.T) {
	out, _, err := execute(t, "history", "--ledger", filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	assert.Equal(t, "No generations recorded\n", out)
}

func TestHistoryNeedsLedger(t *testing.T) {
	out, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no ledger configured")
}
