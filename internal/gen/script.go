package gen

import (
	"strings"

	"github.com/roach88/apigen/internal/emit"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/typesys"
)

// genScriptRegistration fills the AngelScript template. The compiler
// variant registers the same surface with bodies that throw, so scripts
// can be compiled offline without linking the engine.
func genScriptRegistration(ctx *Context, out Output, f *emit.File) error {
	v := newView(ctx, out.Side)

	var defines block
	for _, s := range ir.OutputSides {
		defines.linef("#define %s_SCRIPTING %d", strings.ToUpper(string(s)), boolInt(s == out.Side))
	}
	defines.linef("#define COMPILER_MODE %d", boolInt(out.Compiler))

	var global block
	global.line("// Marshalling entity methods")
	for _, ent := range v.entities() {
		for _, m := range v.methods(ent.Name) {
			v.marshal(&global, "AS", m, !out.Compiler)
		}
	}

	var register block
	if fds := v.funcdefs(); len(fds) > 0 {
		register.line("// Function handles")
		for _, fd := range fds {
			register.linef("AS_VERIFY(engine->RegisterFuncdef(\"%s\"));", v.scriptFuncdef(fd))
		}
		register.line("")
	}

	register.line("// Enums")
	for _, e := range ctx.Reg.Enums {
		register.linef("AS_VERIFY(engine->RegisterEnum(\"%s\"));", e.Name)
		for _, en := range e.Entries {
			register.linef("AS_VERIFY(engine->RegisterEnumValue(\"%s\", \"%s\", %d));", e.Name, en.Key, en.Value)
		}
	}
	register.line("")

	if vts := v.valueTypes(); len(vts) > 0 {
		register.line("// Value types")
		for _, vt := range vts {
			register.linef("AS_VERIFY(engine->RegisterObjectType(\"%s\", sizeof(%s), asOBJ_VALUE | asOBJ_POD | asGetTypeTraits<%s>()));", vt.Name, vt.Name, vt.Name)
			for _, fl := range vt.Fields {
				register.linef("AS_VERIFY(engine->RegisterObjectProperty(\"%s\", \"%s %s\", offsetof(%s, %s)));",
					vt.Name, v.script(fl.Type, typesys.PassOut), fl.Name, vt.Name, fl.Name)
			}
			register.line("")
		}
	}

	if rts := v.refTypes(); len(rts) > 0 {
		register.line("// Reference types")
		for _, rt := range rts {
			n := rt.Name
			register.linef("AS_VERIFY(engine->RegisterObjectType(\"%s\", sizeof(%s), asOBJ_REF));", n, n)
			register.linef("AS_VERIFY(engine->RegisterObjectBehaviour(\"%s\", asBEHAVE_ADDREF, \"void f()\", SCRIPT_METHOD(%s, AddRef), SCRIPT_METHOD_CONV));", n, n)
			register.linef("AS_VERIFY(engine->RegisterObjectBehaviour(\"%s\", asBEHAVE_RELEASE, \"void f()\", SCRIPT_METHOD(%s, Release), SCRIPT_METHOD_CONV));", n, n)
			register.linef("AS_VERIFY(engine->RegisterObjectBehaviour(\"%s\", asBEHAVE_FACTORY, \"%s@ f()\", SCRIPT_FUNC((ScriptableObject_Factory<%s>)), SCRIPT_FUNC_CONV));", n, n, n)
			for _, fl := range rt.Fields {
				register.linef("AS_VERIFY(engine->RegisterObjectProperty(\"%s\", \"%s %s\", offsetof(%s, %s)));",
					n, v.script(fl.Type, typesys.PassOut), fl.Name, n, fl.Name)
			}
			for _, m := range rt.Methods {
				register.linef("AS_VERIFY(engine->RegisterObjectMethod(\"%s\", \"%s %s(%s)\", SCRIPT_METHOD(%s, %s), SCRIPT_METHOD_CONV));",
					n, v.script(m.Ret, typesys.PassOut), m.Name, params(m.Params, v.script), n, m.Name)
			}
			register.line("")
		}
	}

	register.line("// Entities")
	for _, ent := range v.entities() {
		class := v.class(ent.Name)
		switch {
		case ent.Global:
			register.linef("REGISTER_GLOBAL_ENTITY(\"%s\", %s);", ent.Name, class)
		case ent.HasProtos:
			register.linef("REGISTER_ENTITY_WITH_PROTO(\"%s\", %s);", ent.Name, class)
		default:
			register.linef("REGISTER_ENTITY(\"%s\", %s);", ent.Name, class)
		}
		if ent.HasStatics {
			register.linef("REGISTER_ENTITY_STATICS(\"%s\", Static%s);", ent.Name, ent.Name)
		}
		if ent.HasAbstract {
			register.linef("REGISTER_ENTITY_ABSTRACT(\"%s\", Abstract%s);", ent.Name, ent.Name)
		}
		if ent.HasTimeEvents {
			register.linef("REGISTER_ENTITY_TIME_EVENTS(\"%s\", %s);", ent.Name, class)
		}
	}
	register.line("")

	register.line("// Properties")
	for _, ent := range v.entities() {
		for _, p := range v.properties(ent.Name) {
			macro := "REGISTER_GETSET_ENTITY_PROPERTY"
			if p.ReadOnly {
				macro = "REGISTER_GET_ENTITY_PROPERTY"
			}
			register.linef("%s(\"%s\", \"%s\", %s, %sProperty::%s);", macro, ent.Name, v.script(p.Type, typesys.PassOut), p.Name, ent.Name, p.Name)
		}
	}
	register.line("")

	register.line("// Methods")
	for _, ent := range v.entities() {
		for _, m := range v.methods(ent.Name) {
			register.linef("AS_VERIFY(engine->RegisterObjectMethod(\"%s\", \"%s %s(%s)\", SCRIPT_FUNC_THIS(%s), SCRIPT_FUNC_THIS_CONV));",
				ent.Name, v.script(m.Ret, typesys.PassOut), m.Name, params(m.Params, v.script), marshalName("AS", m))
		}
	}
	register.line("")

	register.line("// Events")
	for _, ent := range v.entities() {
		for _, ev := range v.events(ent.Name) {
			register.linef("REGISTER_ENTITY_EVENT(\"%s\", \"%s\", \"%s\", {%s});", ent.Name, ev.Name, params(ev.Params, v.script), quoteList(ev.Flags))
		}
	}
	register.line("")

	if inbound, outbound := v.remoteCalls(); len(inbound)+len(outbound) > 0 {
		register.line("// Remote calls")
		for _, rc := range inbound {
			register.linef("REGISTER_INBOUND_REMOTE_CALL(\"%s\", \"%s\");", rc.Name, params(rc.Params, v.script))
		}
		for _, rc := range outbound {
			register.linef("REGISTER_OUTBOUND_REMOTE_CALL(\"%s\", \"%s\");", rc.Name, params(rc.Params, v.script))
		}
		register.line("")
	}

	if groups := v.settings(); len(groups) > 0 {
		register.line("// Settings")
		for _, g := range groups {
			for _, s := range g.Settings {
				register.linef("REGISTER_SETTING(\"%s\", \"%s %s\");", g.Name, v.script(s.Type, typesys.PassOut), s.Name)
			}
		}
	}

	for _, step := range []struct {
		entry string
		lines block
	}{
		{"Register", trimTrailingBlank(register)},
		{"Global", global},
		{"Defines", defines},
	} {
		if err := insert(f, step.entry, step.lines); err != nil {
			return err
		}
	}
	return nil
}

// scriptFuncdef renders a function handle declaration.
func (v view) scriptFuncdef(fd typesys.Funcdef) string {
	ret := "void"
	var ps []ir.Type
	switch t := fd.Type.(type) {
	case ir.Callback:
		ps = t.Params
	case ir.Predicate:
		ret = "bool"
		ps = t.Params
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = v.script(p, typesys.PassIn)
	}
	return ret + " " + fd.Handle + "(" + strings.Join(parts, ", ") + ")"
}

func marshalName(prefix string, m boundMethod) string {
	return prefix + "_" + string(m.Target) + "_" + m.Entity + "_" + m.Name
}

// marshal writes a static wrapper forwarding a script call to the native
// engine function. Generic methods call the family implementation and
// narrow a returned Self back to the concrete class. Without live the
// wrapper throws.
func (v view) marshal(b *block, prefix string, m boundMethod, live bool) {
	self := v.class(m.Entity) + "* self"
	args := params(m.Params, v.native)
	if args != "" {
		self += ", "
	}
	ret := v.native(m.Ret, typesys.PassOut)
	b.linef("static %s %s(%s%s)", ret, marshalName(prefix, m), self, args)
	b.line("{")
	if !live {
		b.line("    throw ScriptCompilerException(\"Stub\");", "}", "")
		return
	}

	b.line("    ENTITY_VERIFY(self);")
	for _, p := range m.Params {
		if p.Type.Kind() == ir.KindEntityRef {
			b.linef("    ENTITY_VERIFY(%s);", p.Name)
		}
	}

	declRet := v.native(ir.Resolve(m.Decl.Ret, ir.FamilyEntity), typesys.PassOut)
	declSelf := v.class(m.Decl.Entity) + "*"
	declArgs := paramTypes(resolveParams(m.Decl.Params, ir.FamilyEntity), v.native)
	if declArgs != "" {
		declSelf += ", "
	}
	b.linef("    extern %s %s(%s%s);", declRet, m.NativeName(), declSelf, declArgs)

	callArgs := "self"
	if names := paramNames(m.Params); names != "" {
		callArgs += ", " + names
	}
	call := m.NativeName() + "(" + callArgs + ")"
	switch {
	case ir.IsVoid(m.Ret):
		b.linef("    %s;", call)
	case m.Decl.Ret.Kind() == ir.KindSelfEntity:
		b.linef("    return static_cast<%s>(%s);", ret, call)
	default:
		b.linef("    return %s;", call)
	}
	b.line("}", "")
}
