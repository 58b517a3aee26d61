package gen

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/apigen/internal/emit"
	"github.com/roach88/apigen/internal/ir"
)

// genContent publishes content proto ids as hashed-string constants, one
// namespace per content kind.
func genContent(ctx *Context, out Output, f *emit.File) error {
	var b block
	b.line("// FOS Common", "")
	for _, k := range ir.ContentKinds {
		b.line("namespace "+k.Namespace, "{")
		for _, id := range ctx.Content[k.Ext] {
			b.linef(`    hstring %s = hstring("%s");`, id, id)
		}
		b.line("}", "")
	}
	f.Write(trimTrailingBlank(b)...)
	return nil
}

// genRootModule includes the content module and every script module of
// the output side, ordered by sort value then path. Each include is
// wrapped in a namespace named after the file.
func genRootModule(ctx *Context, out Output, f *emit.File) error {
	var mods []ir.ScriptModule
	for _, m := range ctx.Scripts {
		if m.Includes(out.Side) {
			mods = append(mods, m)
		}
	}
	sort.SliceStable(mods, func(i, j int) bool {
		if mods[i].Sort != mods[j].Sort {
			return mods[i].Sort < mods[j].Sort
		}
		return mods[i].Path < mods[j].Path
	})

	var b block
	include := func(path, comment string) {
		name := filepath.Base(path)
		b.linef("namespace %s {", strings.TrimSuffix(name, filepath.Ext(name)))
		if comment != "" {
			b.linef(`#include "%s" // %s`, includePath(out.Dir, path), comment)
		} else {
			b.linef(`#include "%s"`, includePath(out.Dir, path))
		}
		b.line("}")
	}
	include(filepath.Join(out.Dir, ContentModule), "Generated")
	for _, m := range mods {
		comment := ""
		if m.Sort != 0 {
			comment = "Sort " + strconv.Itoa(m.Sort)
		}
		include(m.Path, comment)
	}
	f.Write(b...)
	return nil
}

// includePath renders path relative to the root module's directory when
// possible, always with forward slashes.
func includePath(dir, path string) string {
	absDir, err1 := filepath.Abs(dir)
	absPath, err2 := filepath.Abs(path)
	if err1 == nil && err2 == nil {
		if rel, err := filepath.Rel(absDir, absPath); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}
