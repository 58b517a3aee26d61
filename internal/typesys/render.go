package typesys

import (
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

// Lang is an output language.
type Lang int

const (
	LangNative Lang = iota
	LangScript
	LangManaged
	LangDoc
)

// Target selects the syntax a type is rendered in.
type Target struct {
	Lang Lang
	Side ir.Side
}

// Mode is how a value crosses the boundary being rendered.
type Mode int

const (
	// PassIn is an input parameter: collections render as read-only views.
	PassIn Mode = iota
	// PassOut is a return value or stored field: collections are owned.
	PassOut
	// PassRef is an in/out parameter.
	PassRef
)

var nativeScalars = map[string]string{
	"float32": "float",
	"float64": "double",
}

var scriptScalars = map[string]string{
	"int32":   "int",
	"uint32":  "uint",
	"float32": "float",
	"float64": "double",
}

var managedScalars = map[string]string{
	"int8": "sbyte", "uint8": "byte", "int16": "short", "uint16": "ushort",
	"int32": "int", "uint32": "uint", "int64": "long", "uint64": "ulong",
	"float32": "float", "float64": "double", "bool": "bool",
	"string": "string", "hstring": "string", "void": "void", "any": "object",
}

// Render writes t in the syntax of tgt.
func (u *Universe) Render(t ir.Type, tgt Target, mode Mode) string {
	if mode == PassRef {
		if t.Kind() != ir.KindReference {
			t = ir.Reference{Inner: t}
		}
		mode = PassOut
	}
	switch tgt.Lang {
	case LangNative:
		return u.renderNative(t, tgt.Side, mode)
	case LangScript:
		return u.renderScript(t, mode)
	case LangManaged:
		return u.renderManaged(t, mode)
	default:
		return Doc(t)
	}
}

func (u *Universe) renderNative(t ir.Type, side ir.Side, mode Mode) string {
	switch v := t.(type) {
	case ir.Scalar:
		switch u.category(v.Name) {
		case CatRefType, CatCompanion:
			return v.Name + "*"
		}
		if v.Name == "string" && mode == PassIn {
			return "string_view"
		}
		if n, ok := nativeScalars[v.Name]; ok {
			return n
		}
		return v.Name
	case ir.Array:
		return nativeContainer("vector<"+u.renderNative(v.Elem, side, PassOut)+">", mode)
	case ir.Map:
		return nativeContainer("map<"+u.renderNative(v.Key, side, PassOut)+", "+u.renderNative(v.Value, side, PassOut)+">", mode)
	case ir.Callback:
		return "std::function<void(" + u.renderNativeList(v.Params, side) + ")>"
	case ir.Predicate:
		return "std::function<bool(" + u.renderNativeList(v.Params, side) + ")>"
	case ir.EntityRef:
		return u.ClassFor(v.Entity, side) + "*"
	case ir.SelfEntity:
		return SelfClass + "*"
	case ir.ValueType:
		if mode == PassIn {
			return "const " + v.Name + "&"
		}
		return v.Name
	case ir.Reference:
		return u.renderNative(v.Inner, side, PassOut) + "&"
	}
	return ""
}

func nativeContainer(s string, mode Mode) string {
	if mode == PassIn {
		return "const " + s + "&"
	}
	return s
}

func (u *Universe) renderNativeList(ts []ir.Type, side ir.Side) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = u.renderNative(t, side, PassIn)
	}
	return strings.Join(parts, ", ")
}

func (u *Universe) renderScript(t ir.Type, mode Mode) string {
	handle := func(s string) string {
		if mode == PassIn {
			return s + "@+"
		}
		return s + "@"
	}
	switch v := t.(type) {
	case ir.Scalar:
		switch u.category(v.Name) {
		case CatRefType, CatCompanion:
			return handle(v.Name)
		}
		if n, ok := scriptScalars[v.Name]; ok {
			return n
		}
		return v.Name
	case ir.Array:
		return handle(u.renderScript(v.Elem, PassOut) + "[]")
	case ir.Map:
		return handle("dict<" + u.renderScript(v.Key, PassOut) + ", " + u.renderScript(v.Value, PassOut) + ">")
	case ir.Callback, ir.Predicate:
		return handle(HandleName(t))
	case ir.EntityRef:
		return handle(v.Entity)
	case ir.SelfEntity:
		return handle(ir.FamilyEntity)
	case ir.ValueType:
		return v.Name
	case ir.Reference:
		return u.renderScript(v.Inner, PassOut) + "&"
	}
	return ""
}

func (u *Universe) renderManaged(t ir.Type, mode Mode) string {
	switch v := t.(type) {
	case ir.Scalar:
		if n, ok := managedScalars[v.Name]; ok {
			return n
		}
		return v.Name
	case ir.Array:
		elem := u.renderManaged(v.Elem, PassOut)
		if mode == PassIn {
			return "IReadOnlyList<" + elem + ">"
		}
		return "List<" + elem + ">"
	case ir.Map:
		kv := u.renderManaged(v.Key, PassOut) + ", " + u.renderManaged(v.Value, PassOut)
		if mode == PassIn {
			return "IReadOnlyDictionary<" + kv + ">"
		}
		return "Dictionary<" + kv + ">"
	case ir.Callback:
		if len(v.Params) == 0 {
			return "Action"
		}
		return "Action<" + u.renderManagedList(v.Params) + ">"
	case ir.Predicate:
		if len(v.Params) == 0 {
			return "Func<bool>"
		}
		return "Func<" + u.renderManagedList(v.Params) + ", bool>"
	case ir.EntityRef:
		return v.Entity
	case ir.SelfEntity:
		return ir.FamilyEntity
	case ir.ValueType:
		return v.Name
	case ir.Reference:
		return "ref " + u.renderManaged(v.Inner, PassOut)
	}
	return ""
}

func (u *Universe) renderManagedList(ts []ir.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = u.renderManaged(t, PassIn)
	}
	return strings.Join(parts, ", ")
}
