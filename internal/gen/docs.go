package gen

import (
	"strings"

	"github.com/roach88/apigen/internal/emit"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/typesys"
)

// genDocs writes the Markdown API reference covering every side.
func genDocs(ctx *Context, _ Output, f *emit.File) error {
	reg := ctx.Reg
	var b block
	title := "Script API"
	if ctx.Opts.GameName != "" {
		title = ctx.Opts.GameName + " " + title
	}
	b.linef("# %s", title)
	b.line("")
	if ctx.Opts.Version != "" {
		b.linef("Version `%s`, registry `%s`.", ctx.Opts.Version, ir.ShortFingerprint(ctx.Fingerprint))
	} else {
		b.linef("Registry `%s`.", ir.ShortFingerprint(ctx.Fingerprint))
	}
	b.line("")

	if len(reg.Enums) > 0 {
		b.line("## Enums", "")
		for _, e := range reg.Enums {
			b.linef("### %s", e.Name)
			b.line("")
			docParagraph(&b, e.Comment)
			b.linef("Underlying type `%s`.", e.Underlying)
			b.line("", "| Key | Value | Description |", "|-----|-------|-------------|")
			for _, en := range e.Entries {
				b.linef("| %s | %d | %s |", en.Key, en.Value, cell(en.Comment))
			}
			b.line("")
		}
	}

	entities := reg.ConcreteEntities()
	if len(entities) > 0 {
		b.line("## Entities", "")
	}
	for _, ent := range entities {
		b.linef("### %s", ent.Name)
		b.line("")
		docParagraph(&b, ent.Comment)
		b.linef("Server class `%s`, client class `%s`.", ent.ServerClass, ent.ClientClass)
		b.line("")

		if props := reg.PropertiesOf(ent.Name); len(props) > 0 {
			b.line("#### Properties", "", "| # | Property | Access | Description |", "|---|----------|--------|-------------|")
			for _, p := range props {
				decl := typesys.Doc(p.Type) + " " + p.Name
				if p.ReadOnly {
					decl = "const " + decl
				}
				b.linef("| %d | `%s` | %s | %s |", p.Ordinal, decl, p.Access, cell(p.Comment))
			}
			b.line("")
		}

		if methods := reg.MethodsOf(ent.Name); len(methods) > 0 {
			b.line("#### Methods", "")
			for _, m := range methods {
				b.linef("* **%s** `%s %s(%s)`%s", m.Target, typesys.Doc(m.Ret), m.Name, docParams(m.Params), docSuffix(m.Comment))
			}
			b.line("")
		}

		var events []*ir.Event
		for _, ev := range reg.Events {
			if ev.Entity == ent.Name || ev.Entity == ir.FamilyEntity {
				events = append(events, ev)
			}
		}
		if len(events) > 0 {
			b.line("#### Events", "")
			for _, ev := range events {
				b.linef("* **%s** `%s(%s)`%s", ev.Target, ev.Name, docParams(ev.Params), docSuffix(ev.Comment))
			}
			b.line("")
		}
	}

	if len(reg.ValueTypes)+len(reg.RefTypes) > 0 {
		b.line("## Objects", "")
		for _, vt := range reg.ValueTypes {
			b.linef("### %s (value, %s)", vt.Name, vt.Target)
			b.line("")
			docParagraph(&b, vt.Comment)
			for _, fl := range vt.Fields {
				b.linef("* `%s %s`", typesys.Doc(fl.Type), fl.Name)
			}
			b.line("")
		}
		for _, rt := range reg.RefTypes {
			b.linef("### %s (reference, %s)", rt.Name, rt.Target)
			b.line("")
			docParagraph(&b, rt.Comment)
			for _, fl := range rt.Fields {
				b.linef("* `%s %s`", typesys.Doc(fl.Type), fl.Name)
			}
			for _, m := range rt.Methods {
				b.linef("* `%s %s(%s)`", typesys.Doc(m.Ret), m.Name, docParams(m.Params))
			}
			b.line("")
		}
	}

	if len(reg.RemoteCalls) > 0 {
		b.line("## Remote calls", "")
		for _, rc := range reg.RemoteCalls {
			b.linef("* **%s** `%s(%s)`%s", rc.Target, rc.Name, docParams(rc.Params), docSuffix(rc.Comment))
		}
		b.line("")
	}

	if len(reg.Settings) > 0 {
		b.line("## Settings", "")
		for _, g := range reg.Settings {
			b.linef("### %s", g.Name)
			b.line("", "| Setting | Type | Default | Description |", "|---------|------|---------|-------------|")
			for _, s := range g.Settings {
				def := s.Default
				if def != "" {
					def = "`" + def + "`"
				}
				b.linef("| %s | `%s` | %s | %s |", s.Name, typesys.Doc(s.Type), def, cell(s.Comment))
			}
			b.line("")
		}
	}

	f.Write(trimTrailingBlank(b)...)
	return nil
}

func docParams(ps []ir.Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = typesys.Doc(p.Type) + " " + p.Name
	}
	return strings.Join(parts, ", ")
}

func docParagraph(b *block, comment []string) {
	if len(comment) == 0 {
		return
	}
	b.line(comment...)
	b.line("")
}

func docSuffix(comment []string) string {
	if len(comment) == 0 {
		return ""
	}
	return ": " + strings.Join(comment, " ")
}

func cell(comment []string) string {
	return strings.ReplaceAll(strings.Join(comment, " "), "|", `\|`)
}
