package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func TestReadScriptModules(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Main.fos":  "// FOS Server\nvoid init() {}\n",
		"Quest.fos": "\uFEFF// FOS Common Sort -5\r\n",
		"Hud.fos":   "// FOS Client Sort 10",
		"Bad.fos":   "void nope() {}\n",
		"Sort.fos":  "// FOS Server Sort x\n",
	})
	paths := []string{
		filepath.Join(root, "Main.fos"),
		filepath.Join(root, "Quest.fos"),
		filepath.Join(root, "Hud.fos"),
		filepath.Join(root, "Bad.fos"),
		filepath.Join(root, "Sort.fos"),
		filepath.Join(root, "Missing.fos"),
	}

	var diags diag.List
	mods := ReadScriptModules(paths, &diags)

	assert.Equal(t, []ir.ScriptModule{
		{Path: paths[0], Tags: []string{"Server"}},
		{Path: paths[1], Tags: []string{"Common", "Sort", "-5"}, Sort: -5},
		{Path: paths[2], Tags: []string{"Client", "Sort", "10"}, Sort: 10},
	}, mods)
	assert.True(t, mods[1].Includes(ir.SideMapper))
	assert.False(t, mods[2].Includes(ir.SideMapper), "only exact sides match")

	require.Equal(t, 3, diags.Len())
	items := diags.Sorted()
	var codes []string
	for _, d := range items {
		codes = append(codes, d.Code)
	}
	assert.ElementsMatch(t, []string{diag.ErrScriptHeader, diag.ErrScriptHeader, diag.ErrReadFailed}, codes)
	assert.True(t, diags.HasCode(diag.ErrScriptHeader))
}

func TestReadContent(t *testing.T) {
	root := t.TempDir()
	items := filepath.Join(root, "items")
	maps := filepath.Join(root, "maps")
	writeFiles(t, root, map[string]string{
		"items/Stimpak.foitem":  "[Proto]\n$Name = SuperStimpak\nWeight = 1\n$Name=Stimpak\n",
		"items/Knife.foitem":    "[Proto]\n",
		"items/notes.txt":       "$Name = Ignored\n",
		"items/Brahmin.focr":    "[Critter]\n",
		"items/sub/Deep.foitem": "[Proto]\n",
		"maps/Den.fomap":        "[Header]\n$Name = 2Den\n",
		"maps/Knife.foitem":     "",
	})

	var diags diag.List
	content := ReadContent([]string{items, maps, filepath.Join(root, "missing")}, &diags)

	assert.Equal(t, ir.Content{
		"foitem": {"Knife", "Stimpak", "SuperStimpak"},
		"focr":   {"Brahmin"},
		"fomap":  {"Den"},
	}, content)

	require.Equal(t, 2, diags.Len())
	assert.True(t, diags.HasCode(diag.ErrContentName))
	assert.True(t, diags.HasCode(diag.ErrReadFailed))
}
