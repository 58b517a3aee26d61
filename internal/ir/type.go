package ir

import (
	"strconv"
	"strings"
)

// TypeKind identifies the variant of a canonical Type.
type TypeKind int

const (
	KindScalar TypeKind = iota
	KindArray
	KindMap
	KindCallback
	KindPredicate
	KindEntityRef
	KindSelfEntity
	KindValueType
	KindReference
)

// Type is a canonical, target-independent type.
//
// It is a closed sum type: Scalar, Array, Map, Callback, Predicate,
// EntityRef, SelfEntity, ValueType and Reference are the only
// implementations.
type Type interface {
	Kind() TypeKind
	// String returns the unified dotted form, see Unified.
	String() string
	isType()
}

// Scalar is a builtin, an enum group, a reference object or an entity
// companion type, named as registered.
type Scalar struct{ Name string }

// Array is an ordered collection of Elem.
type Array struct{ Elem Type }

// Map is a keyed collection.
type Map struct{ Key, Value Type }

// Callback is a function handle taking Params and returning nothing.
type Callback struct{ Params []Type }

// Predicate is a function handle taking Params and returning bool.
type Predicate struct{ Params []Type }

// EntityRef is a handle to an entity instance.
type EntityRef struct{ Entity string }

// SelfEntity stands for the entity a generic member is instantiated for.
// It is resolved with Resolve at generation time, never while parsing.
type SelfEntity struct{}

// ValueType is a flat, stack-passed user object.
type ValueType struct{ Name string }

// Reference marks Inner as passed by reference.
type Reference struct{ Inner Type }

func (Scalar) Kind() TypeKind     { return KindScalar }
func (Array) Kind() TypeKind      { return KindArray }
func (Map) Kind() TypeKind        { return KindMap }
func (Callback) Kind() TypeKind   { return KindCallback }
func (Predicate) Kind() TypeKind  { return KindPredicate }
func (EntityRef) Kind() TypeKind  { return KindEntityRef }
func (SelfEntity) Kind() TypeKind { return KindSelfEntity }
func (ValueType) Kind() TypeKind  { return KindValueType }
func (Reference) Kind() TypeKind  { return KindReference }

func (Scalar) isType()     {}
func (Array) isType()      {}
func (Map) isType()        {}
func (Callback) isType()   {}
func (Predicate) isType()  {}
func (EntityRef) isType()  {}
func (SelfEntity) isType() {}
func (ValueType) isType()  {}
func (Reference) isType()  {}

func (t Scalar) String() string     { return Unified(t) }
func (t Array) String() string      { return Unified(t) }
func (t Map) String() string        { return Unified(t) }
func (t Callback) String() string   { return Unified(t) }
func (t Predicate) String() string  { return Unified(t) }
func (t EntityRef) String() string  { return Unified(t) }
func (t SelfEntity) String() string { return Unified(t) }
func (t ValueType) String() string  { return Unified(t) }
func (t Reference) String() string  { return Unified(t) }

// Unified-form tokens.
const (
	TokArray     = "arr"
	TokMap       = "dict"
	TokCallback  = "callback"
	TokPredicate = "predicate"
	TokReference = "ref"
	TokSelf      = "self"
)

// Void is the canonical empty return type.
var Void Type = Scalar{Name: "void"}

// Unified renders t in the dotted prefix form used as a registry key and in
// documentation, e.g. "arr.dict.string.int32". Function handles carry their
// arity in the head token: "callback2.int32.Critter".
func Unified(t Type) string {
	var b strings.Builder
	writeUnified(&b, t)
	return b.String()
}

func writeUnified(b *strings.Builder, t Type) {
	switch v := t.(type) {
	case Scalar:
		b.WriteString(v.Name)
	case Array:
		b.WriteString(TokArray + ".")
		writeUnified(b, v.Elem)
	case Map:
		b.WriteString(TokMap + ".")
		writeUnified(b, v.Key)
		b.WriteByte('.')
		writeUnified(b, v.Value)
	case Callback:
		writeFunc(b, TokCallback, v.Params)
	case Predicate:
		writeFunc(b, TokPredicate, v.Params)
	case EntityRef:
		b.WriteString(v.Entity)
	case SelfEntity:
		b.WriteString(TokSelf)
	case ValueType:
		b.WriteString(v.Name)
	case Reference:
		b.WriteString(TokReference + ".")
		writeUnified(b, v.Inner)
	}
}

func writeFunc(b *strings.Builder, head string, params []Type) {
	b.WriteString(head)
	b.WriteString(strconv.Itoa(len(params)))
	for _, p := range params {
		b.WriteByte('.')
		writeUnified(b, p)
	}
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Scalar:
		return x.Name == b.(Scalar).Name
	case Array:
		return Equal(x.Elem, b.(Array).Elem)
	case Map:
		y := b.(Map)
		return Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case Callback:
		return equalParams(x.Params, b.(Callback).Params)
	case Predicate:
		return equalParams(x.Params, b.(Predicate).Params)
	case EntityRef:
		return x.Entity == b.(EntityRef).Entity
	case SelfEntity:
		return true
	case ValueType:
		return x.Name == b.(ValueType).Name
	case Reference:
		return Equal(x.Inner, b.(Reference).Inner)
	}
	return false
}

func equalParams(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Resolve returns t with every SelfEntity replaced by EntityRef(entity).
func Resolve(t Type, entity string) Type {
	switch v := t.(type) {
	case SelfEntity:
		return EntityRef{Entity: entity}
	case Array:
		return Array{Elem: Resolve(v.Elem, entity)}
	case Map:
		return Map{Key: Resolve(v.Key, entity), Value: Resolve(v.Value, entity)}
	case Callback:
		return Callback{Params: resolveAll(v.Params, entity)}
	case Predicate:
		return Predicate{Params: resolveAll(v.Params, entity)}
	case Reference:
		return Reference{Inner: Resolve(v.Inner, entity)}
	default:
		return t
	}
}

func resolveAll(ts []Type, entity string) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Resolve(t, entity)
	}
	return out
}

// ContainsSelf reports whether t mentions SelfEntity anywhere.
func ContainsSelf(t Type) bool {
	found := false
	Walk(t, func(n Type) {
		if n.Kind() == KindSelfEntity {
			found = true
		}
	})
	return found
}

// Walk calls fn for t and every nested type, parents first.
func Walk(t Type, fn func(Type)) {
	if t == nil {
		return
	}
	fn(t)
	switch v := t.(type) {
	case Array:
		Walk(v.Elem, fn)
	case Map:
		Walk(v.Key, fn)
		Walk(v.Value, fn)
	case Callback:
		for _, p := range v.Params {
			Walk(p, fn)
		}
	case Predicate:
		for _, p := range v.Params {
			Walk(p, fn)
		}
	case Reference:
		Walk(v.Inner, fn)
	}
}

// IsVoid reports whether t is the void scalar.
func IsVoid(t Type) bool {
	s, ok := t.(Scalar)
	return ok && s.Name == "void"
}

// Deref strips one Reference wrapper.
func Deref(t Type) (Type, bool) {
	if r, ok := t.(Reference); ok {
		return r.Inner, true
	}
	return t, false
}
