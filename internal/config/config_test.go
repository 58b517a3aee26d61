package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/gen"
	"github.com/roach88/apigen/internal/ir"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "apigen.yaml", `
sources: [src, /abs/engine]
exclude: ["*_test.h"]
output:
  gen: out/gen
  script: out/script
targets:
  native: true
sides: [Server, Client]
build:
  version: "1.0"
  game_name: TLA
managed:
  assemblies: [Game, Tools]
  references:
    Server: [System.dll]
scripts:
  sources: [scripts]
  content: [content/items]
ledger: out/history.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, []string{filepath.Join(dir, "src"), "/abs/engine"}, cfg.Sources)
	assert.Equal(t, []string{"*_test.h"}, cfg.Exclude)
	assert.Equal(t, filepath.Join(dir, "out/gen"), cfg.Output.Gen)
	assert.Equal(t, filepath.Join(dir, "out/history.db"), cfg.Ledger)
	assert.True(t, cfg.Targets.Native)
	assert.False(t, cfg.Targets.Script)
	assert.Equal(t, "TLA", cfg.Build.GameName)
	assert.Equal(t, []string{"System.dll"}, cfg.Managed.References["Server"])
	assert.Equal(t, []string{"Game", "Tools"}, cfg.Managed.Assemblies)
	assert.Equal(t, []string{filepath.Join(dir, "scripts")}, cfg.Scripts.Sources)
	assert.Equal(t, []string{filepath.Join(dir, "content/items")}, cfg.Scripts.Content)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	path := writeConfig(t, "apigen.yml", "sources: [src]\noutputs:\n  gen: out\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outputs")
}

func TestLoad_CUE(t *testing.T) {
	path := writeConfig(t, "apigen.cue", `
sources: ["src"]
output: gen: "gen"
targets: {
	script: true
	docs:   false
}
sides: ["Mapper"]
build: version: "2.1"
managed: assemblies: ["Game", "Tools"]
scripts: content: ["content"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(filepath.Dir(path), "src")}, cfg.Sources)
	assert.True(t, cfg.Targets.Script)
	assert.Equal(t, []string{"Mapper"}, cfg.Sides)
	assert.Equal(t, "2.1", cfg.Build.Version)
	assert.Equal(t, []string{"Game", "Tools"}, cfg.Managed.Assemblies)
	assert.Equal(t, []string{filepath.Join(filepath.Dir(path), "content")}, cfg.Scripts.Content)
}

func TestLoad_CUESchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown side", `sources: ["src"], sides: ["Common"]`},
		{"unknown field", `sources: ["src"], verbose: true`},
		{"wrong type", `sources: ["src"], targets: native: "yes"`},
		{"empty sources", `sources: []`},
		{"unknown reference side", `sources: ["src"], managed: references: Editor: ["a.dll"]`},
		{"assembly with separator", `sources: ["src"], managed: assemblies: ["Game,Tools"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "apigen.cue", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestMerge(t *testing.T) {
	cfg := Config{
		Sources: []string{"a"},
		Output:  Output{Gen: "gen", Doc: "doc"},
		Targets: Targets{Native: true},
		Build:   Build{Version: "1.0", GameName: "TLA"},
		Managed: Managed{References: map[string][]string{"Server": {"x.dll"}}},
	}
	cfg.Merge(Config{
		Sources: []string{"b", "c"},
		Output:  Output{Gen: "gen2"},
		Targets: Targets{Docs: true},
		Build:   Build{Version: "2.0"},
		Managed: Managed{References: map[string][]string{"Client": {"y.dll"}}},
	})

	assert.Equal(t, []string{"b", "c"}, cfg.Sources)
	assert.Equal(t, "gen2", cfg.Output.Gen)
	assert.Equal(t, "doc", cfg.Output.Doc)
	assert.Equal(t, Targets{Native: true, Docs: true}, cfg.Targets)
	assert.Equal(t, "2.0", cfg.Build.Version)
	assert.Equal(t, "TLA", cfg.Build.GameName)
	assert.Equal(t, map[string][]string{"Server": {"x.dll"}, "Client": {"y.dll"}}, cfg.Managed.References)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "valid with defaults",
			cfg:  Config{Sources: []string{"s"}, Output: Output{Gen: "g", Script: "s", Doc: "d"}},
		},
		{
			name: "no sources",
			cfg:  Config{Output: Output{Gen: "g"}, Targets: Targets{Native: true}},
			want: []string{"no sources configured"},
		},
		{
			name: "all targets need all outputs",
			cfg:  Config{Sources: []string{"s"}},
			want: []string{"--gen-output", "--script-output", "--doc-output"},
		},
		{
			name: "bad sides",
			cfg: Config{
				Sources: []string{"s"},
				Output:  Output{Gen: "g"},
				Targets: Targets{Native: true},
				Sides:   []string{"Server", "Common", "Server"},
			},
			want: []string{`unknown output side "Common"`, "side Server listed twice"},
		},
		{
			name: "assembly entries",
			cfg: Config{
				Sources: []string{"s"},
				Output:  Output{Gen: "g", Script: "sc"},
				Targets: Targets{Managed: true},
				Managed: Managed{
					Assemblies: []string{"Game", "Game", "a/b"},
					References: map[string][]string{"Server": {"Game,libs/Json.dll", "Tools,Tools.dll", "Game,"}},
				},
			},
			want: []string{"assembly Game listed twice", `bad assembly name "a/b"`, "names unknown assembly Tools", `"Game," has no path`},
		},
		{
			name: "script roots need script output",
			cfg: Config{
				Sources: []string{"s"},
				Output:  Output{Gen: "g"},
				Targets: Targets{Script: true},
				Scripts: Scripts{Content: []string{"content"}},
			},
			want: []string{"script root modules need a script output directory"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := Config{
		Sources: []string{"s"},
		Output:  Output{Gen: "g", Script: "sc"},
		Targets: Targets{Managed: true},
		Sides:   []string{"Client"},
		Build:   Build{Version: "3", Hash: "h", GameName: "G"},
		Managed: Managed{
			Assemblies: []string{"Game", "Tools"},
			Sources:    map[string][]string{"Client": {"Extra.cs", "Tools,Tools/Util.cs"}},
			References: map[string][]string{"Client": {"Tools,Game", "Tools,libs/Json.dll"}},
		},
		Scripts: Scripts{Sources: []string{"scripts"}, Content: []string{"content"}},
	}
	opts := cfg.Options()
	assert.False(t, opts.Native)
	assert.True(t, opts.Managed)
	assert.Equal(t, "sc", opts.ScriptOutput)
	assert.Equal(t, []ir.Side{ir.SideClient}, opts.Sides)
	assert.Equal(t, []string{"Game", "Tools"}, opts.Assemblies)
	assert.Equal(t, []gen.AssemblyItem{
		{Assembly: "Game", Path: "Extra.cs"},
		{Assembly: "Tools", Path: "Tools/Util.cs"},
	}, opts.Sources[ir.SideClient])
	assert.Equal(t, []gen.AssemblyItem{
		{Assembly: "Tools", Path: "Game"},
		{Assembly: "Tools", Path: "libs/Json.dll"},
	}, opts.References[ir.SideClient])
	assert.Equal(t, []string{"scripts"}, opts.ScriptSources)
	assert.Equal(t, []string{"content"}, opts.ContentDirs)
	assert.Equal(t, "h", opts.BuildHash)
}

func TestEffectiveTargets_DefaultsToAll(t *testing.T) {
	var cfg Config
	assert.Equal(t, Targets{Native: true, Script: true, Managed: true, Docs: true}, cfg.EffectiveTargets())
	assert.Equal(t, []string(nil), cfg.SkipDirs())

	cfg.Output = Output{Gen: "g", Doc: "d"}
	assert.Equal(t, []string{"g", "d"}, cfg.SkipDirs())
}

func TestValidateInputs(t *testing.T) {
	cfg := Config{}
	require.Error(t, cfg.ValidateInputs())

	cfg.Sources = []string{"src"}
	assert.NoError(t, cfg.ValidateInputs())
	assert.Error(t, cfg.Validate())
}
