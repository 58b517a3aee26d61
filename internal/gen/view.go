package gen

import (
	"strings"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/typesys"
)

// view is the registry as seen from one output side.
type view struct {
	*Context
	side ir.Side
}

func newView(ctx *Context, side ir.Side) view {
	return view{Context: ctx, side: side}
}

func (v view) entities() []*ir.Entity {
	return v.Reg.ConcreteEntities()
}

// properties returns the properties of entity registered on this side.
func (v view) properties(entity string) []*ir.Property {
	var out []*ir.Property
	for _, p := range v.Reg.PropertiesOf(entity) {
		if p.Access.VisibleOn(v.side) {
			out = append(out, p)
		}
	}
	return out
}

// boundMethod is a method attached to a concrete entity. Decl is the
// declaration it came from, which differs for generic methods.
type boundMethod struct {
	*ir.Method
	Decl *ir.Method
}

// NativeName is the engine function implementing the method.
func (m boundMethod) NativeName() string {
	return string(m.Decl.Target) + "_" + m.Decl.Entity + "_" + m.Decl.Name
}

// methods returns the methods of entity on this side, own methods first.
func (v view) methods(entity string) []boundMethod {
	var own, generic []boundMethod
	for _, m := range v.Reg.Methods {
		if !v.side.Includes(m.Target) {
			continue
		}
		switch {
		case m.Entity == entity:
			own = append(own, boundMethod{Method: m, Decl: m})
		case m.Generic():
			generic = append(generic, boundMethod{Method: m.Instantiate(entity), Decl: m})
		}
	}
	return append(own, generic...)
}

// declarations returns every method declaration visible on this side.
func (v view) declarations() []*ir.Method {
	var out []*ir.Method
	for _, m := range v.Reg.Methods {
		if v.side.Includes(m.Target) {
			out = append(out, m)
		}
	}
	return out
}

// events returns the events of entity including those of the family.
func (v view) events(entity string) []*ir.Event {
	var out []*ir.Event
	for _, ev := range v.Reg.Events {
		if (ev.Entity == entity || ev.Entity == ir.FamilyEntity) && v.side.Includes(ev.Target) {
			out = append(out, ev)
		}
	}
	return out
}

func (v view) valueTypes() []*ir.ValueObject {
	var out []*ir.ValueObject
	for _, t := range v.Reg.ValueTypes {
		if v.side.Includes(t.Target) {
			out = append(out, t)
		}
	}
	return out
}

func (v view) refTypes() []*ir.RefType {
	var out []*ir.RefType
	for _, t := range v.Reg.RefTypes {
		if v.side.Includes(t.Target) {
			out = append(out, t)
		}
	}
	return out
}

// remoteCalls splits remote calls into those handled on this side and
// those this side sends. The mapper has no network peer.
func (v view) remoteCalls() (inbound, outbound []*ir.RemoteCall) {
	if v.side == ir.SideMapper {
		return nil, nil
	}
	for _, rc := range v.Reg.RemoteCalls {
		if rc.Target == v.side {
			inbound = append(inbound, rc)
		} else {
			outbound = append(outbound, rc)
		}
	}
	return inbound, outbound
}

// settings returns the groups visible on this side. Groups named after a
// side follow side eligibility; other groups are everywhere.
func (v view) settings() []*ir.SettingsGroup {
	var out []*ir.SettingsGroup
	for _, g := range v.Reg.Settings {
		if s, ok := ir.ParseSide(g.Name); ok && !v.side.Includes(s) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// funcdefs collects every function handle used by members on this side.
func (v view) funcdefs() []typesys.Funcdef {
	var fd typesys.Funcdefs
	for _, ent := range v.entities() {
		for _, p := range v.properties(ent.Name) {
			fd.Collect(p.Type)
		}
		for _, m := range v.methods(ent.Name) {
			fd.Collect(m.Ret)
			for _, p := range m.Params {
				fd.Collect(p.Type)
			}
		}
		for _, ev := range v.events(ent.Name) {
			for _, p := range ev.Params {
				fd.Collect(p.Type)
			}
		}
	}
	return fd.List()
}

func (v view) class(entity string) string {
	return v.Types.ClassFor(entity, v.side)
}

func (v view) native(t ir.Type, mode typesys.Mode) string {
	return v.Types.Render(t, typesys.Target{Lang: typesys.LangNative, Side: v.side}, mode)
}

func (v view) script(t ir.Type, mode typesys.Mode) string {
	return v.Types.Render(t, typesys.Target{Lang: typesys.LangScript, Side: v.side}, mode)
}

func (v view) managed(t ir.Type, mode typesys.Mode) string {
	return v.Types.Render(t, typesys.Target{Lang: typesys.LangManaged, Side: v.side}, mode)
}

// params renders "Type name" pairs with render.
func params(ps []ir.Param, render func(ir.Type, typesys.Mode) string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = render(p.Type, typesys.PassIn) + " " + p.Name
	}
	return strings.Join(parts, ", ")
}

// paramTypes renders only the types.
func paramTypes(ps []ir.Param, render func(ir.Type, typesys.Mode) string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = render(p.Type, typesys.PassIn)
	}
	return strings.Join(parts, ", ")
}

func paramNames(ps []ir.Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.Name
	}
	return strings.Join(parts, ", ")
}

// enumFlags names the enums a property type stores so the engine can
// persist keys instead of values.
func (v view) enumFlags(t ir.Type) []string {
	var out []string
	var visit func(t ir.Type, flag string)
	visit = func(t ir.Type, flag string) {
		switch x := t.(type) {
		case ir.Scalar:
			if cat, _ := v.Types.Lookup(x.Name); cat == typesys.CatEnum {
				out = append(out, flag+"="+x.Name)
			}
		case ir.Array:
			visit(x.Elem, flag)
		case ir.Map:
			visit(x.Key, "KeyEnum")
			visit(x.Value, flag)
		}
	}
	visit(t, "Enum")
	return out
}
