package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, Level(VerbosityQuiet))
	assert.Equal(t, zapcore.InfoLevel, Level(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, Level(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, Level(7))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, VerbosityInfo, true)
	log.Infow("stage done", "stage", "scan", "files", 3)
	log.Debugw("hidden")
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "stage done", entry["msg"])
	assert.Equal(t, "scan", entry["stage"])
	assert.Equal(t, "apigen", entry["logger"])
	assert.EqualValues(t, 3, entry["files"])
}

func TestNewConsoleQuiet(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, VerbosityQuiet, false)
	log.Info("progress")
	log.Warnw("fingerprint changed", "previous", "abc")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "progress")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "fingerprint changed")
	assert.Contains(t, out, `"previous": "abc"`)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Errorw("ignored", "k", 1) })
}
