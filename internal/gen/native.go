package gen

import (
	"strconv"
	"strings"

	"github.com/roach88/apigen/internal/emit"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/typesys"
)

// genDataRegistration fills the DataRegistration template: enum groups,
// property registrators, settings and migration rules.
func genDataRegistration(ctx *Context, out Output, f *emit.File) error {
	v := newView(ctx, out.Side)

	var defines block
	for _, s := range ir.OutputSides {
		defines.linef("#define %s_REGISTRATION %d", strings.ToUpper(string(s)), boolInt(s == out.Side))
	}

	var register block
	register.line("// Enums")
	for _, e := range ctx.Reg.Enums {
		register.linef("AddEnumGroup(\"%s\", typeid(%s),", e.Name, e.Underlying)
		register.line("{")
		for _, en := range e.Entries {
			register.linef("    {\"%s\", %d},", en.Key, en.Value)
		}
		register.line("});", "")
	}

	register.line("// Properties")
	for _, ent := range v.entities() {
		register.linef("registrators[\"%s\"] = CreatePropertyRegistrator(\"%s\");", ent.Name, ent.Name)
	}
	register.line("")
	for _, ent := range v.entities() {
		props := v.properties(ent.Name)
		if len(props) == 0 {
			continue
		}
		register.linef("registrator = registrators[\"%s\"];", ent.Name)
		for _, p := range props {
			register.linef("RegisterProperty<%s>(registrator, Property::AccessType::%s, \"%s\", {%s});",
				v.native(p.Type, typesys.PassOut), p.Access, p.Name, quoteList(v.propertyFlags(p)))
		}
		register.line("")
	}

	if groups := v.settings(); len(groups) > 0 {
		register.line("// Settings")
		for _, g := range groups {
			for _, s := range g.Settings {
				register.linef("RegisterSetting<%s>(\"%s\", \"%s\", %s, {%s});",
					v.native(s.Type, typesys.PassOut), g.Name, s.Name, strconv.Quote(s.Default), quoteList(s.Flags))
			}
		}
		register.line("")
	}

	var global block
	global.linef("static constexpr string_view RegistryFingerprint = \"%s\";", ctx.Fingerprint)
	if len(ctx.Reg.Migrations) > 0 {
		global.line("", "static const vector<MigrationRule> MigrationRules =", "{")
		for _, m := range ctx.Reg.Migrations {
			global.linef("    {\"%s\", \"%s\", \"%s\", \"%s\"},", m.Kind, m.Scope, m.From, m.To)
		}
		global.line("};")
	}

	for _, step := range []struct {
		entry string
		lines block
	}{
		{"Register", register},
		{"Global", global},
		{"Defines", defines},
	} {
		if err := insert(f, step.entry, step.lines); err != nil {
			return err
		}
	}
	return nil
}

func (v view) propertyFlags(p *ir.Property) []string {
	flags := append([]string(nil), p.Flags...)
	if p.ReadOnly && !containsString(flags, "ReadOnly") {
		flags = append(flags, "ReadOnly")
	}
	return append(flags, v.enumFlags(p.Type)...)
}

// genNativeHeader writes the native declarations scripts bind against.
// Engine enums, value types and ref types already live in engine headers.
func genNativeHeader(ctx *Context, out Output, f *emit.File) error {
	v := newView(ctx, out.Side)
	var b block
	header(&b, "//", "Scripting API, "+string(out.Side)+" side")
	b.line("#pragma once", "", "#include \"Common.h\"", "")

	b.line("// Enums")
	for _, e := range ctx.Reg.Enums {
		if e.Engine {
			continue
		}
		b.linef("enum class %s : %s", e.Name, e.Underlying)
		b.line("{")
		for _, en := range e.Entries {
			b.linef("    %s = %d,", en.Key, en.Value)
		}
		b.line("};", "")
	}

	if fds := v.funcdefs(); len(fds) > 0 {
		b.line("// Function handles")
		for _, fd := range fds {
			b.linef("using %s = %s;", fd.Handle, v.native(fd.Type, typesys.PassOut))
		}
		b.line("")
	}

	if decls := v.declarations(); len(decls) > 0 {
		b.line("// Entity methods")
		for _, m := range decls {
			ret := v.native(ir.Resolve(m.Ret, ir.FamilyEntity), typesys.PassOut)
			self := v.class(m.Entity) + "* self"
			args := params(resolveParams(m.Params, ir.FamilyEntity), v.native)
			if args != "" {
				self += ", "
			}
			b.linef("extern %s %s(%s%s);", ret, boundMethod{Method: m, Decl: m}.NativeName(), self, args)
		}
		b.line("")
	}

	inbound, outbound := v.remoteCalls()
	if len(inbound)+len(outbound) > 0 {
		b.line("// Remote calls")
		for _, rc := range inbound {
			b.linef("extern void RemoteCall_%s(%s);", rc.Name, params(rc.Params, v.native))
		}
		for _, rc := range outbound {
			b.linef("void Send_%s(%s);", rc.Name, params(rc.Params, v.native))
		}
		b.line("")
	}

	for _, g := range v.settings() {
		b.linef("struct %sSettings", g.Name)
		b.line("{")
		for _, s := range g.Settings {
			def := "{}"
			if s.Default != "" {
				def = s.Default
			}
			b.linef("    %s %s = %s;", v.native(s.Type, typesys.PassOut), s.Name, def)
		}
		b.line("};", "")
	}

	f.Write(trimTrailingBlank(b)...)
	return nil
}

func resolveParams(ps []ir.Param, entity string) []ir.Param {
	out := make([]ir.Param, len(ps))
	for i, p := range ps {
		out[i] = ir.Param{Name: p.Name, Type: ir.Resolve(p.Type, entity)}
	}
	return out
}

func trimTrailingBlank(b block) block {
	for len(b) > 0 && b[len(b)-1] == "" {
		b = b[:len(b)-1]
	}
	return b
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
