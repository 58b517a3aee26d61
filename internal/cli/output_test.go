package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/diag"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}, "ignored"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.NotContains(t, buf.String(), "ignored")
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}, "done"))
	assert.Equal(t, "done\n", buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E001", "config invalid", map[string]string{"hint": "fix it"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "config invalid", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E003", "ledger locked", nil))
	assert.Equal(t, "Error [E003]: ledger locked\n", buf.String())
}

var sampleDiagnostics = []diag.Diagnostic{
	{Kind: diag.KindSemantic, Code: diag.ErrUnknownType, File: "Critter.h", Line: 12, Message: `unknown type "Shade"`},
	{Kind: diag.KindIO, Code: diag.ErrTemplateMissing, Message: "template not found"},
}

func TestOutputFormatter_TextDiagnostics(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Diagnostics("Generation failed", sampleDiagnostics, nil))
	assert.Equal(t,
		"✗ Generation failed\n\n"+
			"  Critter.h:12: [E301] unknown type \"Shade\"\n"+
			"  [E402] template not found\n",
		buf.String())
}

func TestOutputFormatter_JSONDiagnostics(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Diagnostics("Generation failed", sampleDiagnostics, ValidationResult{Diagnostics: sampleDiagnostics}))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E301", resp.Error.Code)
	require.Len(t, resp.Data.Diagnostics, 2)
	assert.Equal(t, 12, resp.Data.Diagnostics[0].Line)
}

func TestExitError(t *testing.T) {
	err := WrapExitError(ExitCommandError, "E001", errors.New("boom"))
	assert.Equal(t, "E001: boom", err.Error())
	assert.Equal(t, "boom", errors.UnwrapOnce(err).Error())

	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.Wrap(NewExitError(ExitFailure, "x"), "wrapped")))
}
