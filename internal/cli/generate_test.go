package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/testutil"
)

// projectArgs returns generate flags for a testutil project in dir.
func projectArgs(dir string) []string {
	return []string{
		"--source", filepath.Join(dir, "src"),
		"--template", filepath.Join(dir, "templates", "*-Template.cpp"),
		"--gen-output", filepath.Join(dir, "out", "gen"),
		"--script-output", filepath.Join(dir, "out", "scripts"),
		"--doc-output", filepath.Join(dir, "out", "docs"),
		"--version", "1.0.0",
		"--game-name", "TLA",
	}
}

func TestGenerate(t *testing.T) {
	dir := testutil.Project(t, testutil.CritterSource)

	out, _, err := execute(t, append([]string{"generate"}, projectArgs(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Generated 24 file(s), 0 unchanged")

	out, _, err = execute(t, append([]string{"generate"}, projectArgs(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Generated 0 file(s), 24 unchanged")
}

func TestGenerateJSON(t *testing.T) {
	dir := testutil.Project(t, testutil.CritterSource)

	out, _, err := execute(t, append([]string{"--format", "json", "generate"}, projectArgs(dir)...)...)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.Len(t, resp.Data.Written, 24)
	assert.NotNil(t, resp.Data.Unchanged)
	assert.False(t, resp.Data.Drifted)
}

func TestGenerateSelectedTargets(t *testing.T) {
	dir := testutil.Project(t, testutil.CritterSource)
	args := append([]string{"generate"}, projectArgs(dir)...)
	args = append(args, "--native", "--side", "Server", "--server-ref", "System.dll")

	out, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Generated 3 file(s)")

	for _, name := range []string{"DataRegistration-Server.cpp", "FOnline.Server.h", "Version-Include.h"} {
		assert.FileExists(t, filepath.Join(dir, "out", "gen", name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "out", "gen", "DataRegistration-Client.cpp"))
}

func TestGenerateManagedAssemblies(t *testing.T) {
	dir := testutil.Project(t, testutil.CritterSource)
	args := append([]string{"generate"}, projectArgs(dir)...)
	args = append(args, "--managed", "--side", "Server",
		"--assembly", "Game", "--assembly", "Tools",
		"--server-ref", "Game,Tools", "--server-ref", "Tools,libs/Json.dll",
		"--server-source", "Tools,Tools/Util.cs")

	out, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Generated 6 file(s)")

	scripts := filepath.Join(dir, "out", "scripts")
	assert.FileExists(t, filepath.Join(scripts, "Game.sln"))
	tools, err := os.ReadFile(filepath.Join(scripts, "Tools.Server.csproj"))
	require.NoError(t, err)
	assert.Contains(t, string(tools), `<Compile Include="Tools/Util.cs" />`)
	assert.Contains(t, string(tools), "<HintPath>libs/Json.dll</HintPath>")
	game, err := os.ReadFile(filepath.Join(scripts, "Game.Server.csproj"))
	require.NoError(t, err)
	assert.Contains(t, string(game), `<ProjectReference Include="Tools.Server.csproj">`)

	_, _, err = execute(t, append(args, "--server-ref", "Editor,x.dll")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "names unknown assembly Editor")
}

func TestGenerateFailureWritesPlaceholders(t *testing.T) {
	broken := strings.Replace(testutil.CritterSource, "Public Color Tint", "Public Shade Tint", 1)
	dir := testutil.Project(t, broken)

	out, _, err := execute(t, append([]string{"generate"}, projectArgs(dir)...)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Generation failed at build stage, 24 placeholder(s) in place")
	assert.Contains(t, out, "[E301]")
	assert.Contains(t, out, `unknown type "Shade"`)

	data, err := os.ReadFile(filepath.Join(dir, "out", "gen", "Version-Include.h"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Stub generated due to code generation error")
}

func TestGenerateFailureJSON(t *testing.T) {
	broken := strings.Replace(testutil.CritterSource, "Public Color Tint", "Public Shade Tint", 1)
	dir := testutil.Project(t, broken)

	out, _, err := execute(t, append([]string{"--format", "json", "generate"}, projectArgs(dir)...)...)
	require.Error(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   AbortReport `json:"data"`
		Error  CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "build", string(resp.Data.Stage))
	assert.Equal(t, 24, resp.Data.Placeholders)
	assert.NotEmpty(t, resp.Data.Diagnostics)
	assert.Equal(t, resp.Data.Diagnostics[0].Code, resp.Error.Code)
}

func TestGenerateWithConfigFile(t *testing.T) {
	dir := testutil.Project(t, testutil.CritterSource)
	testutil.WriteTree(t, dir, testutil.Tree{
		"apigen.yaml": `sources: [src, templates]
output:
  gen: out/gen
targets:
  native: true
  script: true
sides: [Client]
build:
  version: "2.0"
`,
	})

	out, _, err := execute(t, "generate", "--config", filepath.Join(dir, "apigen.yaml"), "--build-hash", "cafe")
	require.NoError(t, err)
	// Two native, two script VM and the version header.
	assert.Contains(t, out, "✓ Generated 5 file(s)")

	data, err := os.ReadFile(filepath.Join(dir, "out", "gen", "Version-Include.h"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `#define FO_GAME_VERSION "2.0"`)
	assert.Contains(t, string(data), `#define FO_BUILD_HASH "cafe"`)
}

func TestGenerateConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no sources", []string{"generate", "--gen-output", "out"}, "no sources configured"},
		{"missing config", []string{"generate", "--config", "/nonexistent/apigen.yaml"}, "read config"},
		{"bad side", []string{"generate", "--source", "src", "--gen-output", "g", "--native", "--side", "Editor"}, `unknown output side "Editor"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [E001]")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestGenerateVerboseLogsToStderr(t *testing.T) {
	dir := testutil.Project(t, testutil.CritterSource)

	out, logs, err := execute(t, append([]string{"-v", "--log-json", "generate"}, projectArgs(dir)...)...)
	require.NoError(t, err)
	assert.NotContains(t, out, "generation complete")
	assert.Contains(t, logs, `"msg":"generation complete"`)
	assert.Contains(t, logs, `"logger":"apigen"`)
}
