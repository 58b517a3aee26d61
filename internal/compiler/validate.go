package compiler

import (
	"fmt"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
)

// EnumProblems checks one enum group: exactly one zero entry, unique keys,
// unique values and values that fit the underlying type.
// Returns all problems found (does not fail-fast).
func EnumProblems(e *ir.Enum) []diag.Diagnostic {
	var out []diag.Diagnostic
	report := func(code, format string, args ...any) {
		out = append(out, diag.Diagnostic{
			Kind:    diag.KindSemantic,
			Code:    code,
			Message: fmt.Sprintf("enum %s: ", e.Name) + fmt.Sprintf(format, args...),
		})
	}

	zeros := 0
	keys := make(map[string]bool, len(e.Entries))
	values := make(map[int64]string, len(e.Entries))
	for _, en := range e.Entries {
		if en.Value == 0 {
			zeros++
		}
		if keys[en.Key] {
			report(diag.ErrEnumDuplicateKey, "key %s declared twice", en.Key)
		}
		keys[en.Key] = true
		if prev, dup := values[en.Value]; dup {
			report(diag.ErrEnumDuplicateVal, "%s and %s share value %d", prev, en.Key, en.Value)
		} else {
			values[en.Value] = en.Key
		}
		if !fitsUnderlying(e.Underlying, en.Value) {
			report(diag.ErrInvalidEnumValue, "%s = %d does not fit %s", en.Key, en.Value, e.Underlying)
		}
	}
	if zeros == 0 {
		report(diag.ErrEnumMissingZero, "no entry has value 0")
	}
	return out
}

// Validate re-checks the invariants of a built registry.
// Returns all problems found (does not fail-fast).
func Validate(reg *ir.Registry) []diag.Diagnostic {
	var out []diag.Diagnostic
	report := func(code, format string, args ...any) {
		out = append(out, diag.Diagnostic{
			Kind:    diag.KindSemantic,
			Code:    code,
			Message: fmt.Sprintf(format, args...),
		})
	}

	names := make(map[string]string)
	claim := func(name, what string) {
		if prev, dup := names[name]; dup {
			report(diag.ErrDuplicateType, "%s %s collides with %s", what, name, prev)
			return
		}
		names[name] = what
	}
	for _, e := range reg.Entities {
		claim(e.Name, "entity")
	}
	for _, e := range reg.Enums {
		claim(e.Name, "enum")
		out = append(out, EnumProblems(e)...)
	}
	for _, v := range reg.ValueTypes {
		claim(v.Name, "value type")
	}
	for _, rt := range reg.RefTypes {
		claim(rt.Name, "ref type")
	}

	for _, ent := range reg.ConcreteEntities() {
		props := reg.PropertiesOf(ent.Name)
		for i, p := range props {
			if p.Ordinal != i+1 {
				report(diag.ErrDuplicateMember, "property %s.%s has ordinal %d, want %d", ent.Name, p.Name, p.Ordinal, i+1)
			}
		}
		pe := reg.Enum(ent.PropertyEnum())
		if pe == nil {
			report(diag.ErrUnknownType, "entity %s has no %s enum", ent.Name, ent.PropertyEnum())
			continue
		}
		if len(pe.Entries) != len(props)+1 {
			report(diag.ErrEnumDuplicateKey, "%s has %d entries for %d properties", pe.Name, len(pe.Entries), len(props))
		}
	}

	for _, p := range reg.Properties {
		if reg.Entity(p.Entity) == nil {
			report(diag.ErrUnknownEntity, "property %s on unknown entity %s", p.Name, p.Entity)
		}
	}
	for _, m := range reg.Methods {
		if reg.Entity(m.Entity) == nil {
			report(diag.ErrUnknownEntity, "method %s on unknown entity %s", m.Name, m.Entity)
		}
	}
	for _, ev := range reg.Events {
		if reg.Entity(ev.Entity) == nil {
			report(diag.ErrUnknownEntity, "event %s on unknown entity %s", ev.Name, ev.Entity)
		}
	}
	return out
}
