// Package compiler builds the validated Registry from scanned tag records.
//
// Records are processed in a fixed dependency order so that every type is
// registered before anything refers to it:
//
//  1. enums (ExportEnum, Enum)
//  2. entities (Entity)
//  3. value and reference objects (ExportValueType, ExportRefType)
//  4. members (properties, methods, events, remote calls, settings,
//     migration rules, template markers)
//
// Within a phase records keep scan order, which is the deterministic file
// order. A record that fails is reported and left out of the registry;
// building always continues.
package compiler

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/scan"
	"github.com/roach88/apigen/internal/typesys"
)

// Builder accumulates descriptors while records are processed.
type Builder struct {
	diags *diag.List
	types *typesys.Universe
	reg   *ir.Registry

	scriptEnums map[string]*ir.Enum
	ordinals    map[string]int
	members     map[string]bool
	settings    map[string]*ir.SettingsGroup
}

// Build processes records and returns the registry together with the type
// universe it was validated against. Problems are recorded in diags.
func Build(records []scan.Record, diags *diag.List) (*ir.Registry, *typesys.Universe) {
	b := &Builder{
		diags:       diags,
		types:       typesys.NewUniverse(),
		reg:         &ir.Registry{},
		scriptEnums: make(map[string]*ir.Enum),
		ordinals:    make(map[string]int),
		members:     make(map[string]bool),
		settings:    make(map[string]*ir.SettingsGroup),
	}
	b.reg.Entities = append(b.reg.Entities, &ir.Entity{
		Name:        ir.FamilyEntity,
		ServerClass: "ServerEntity",
		ClientClass: "ClientEntity",
		Abstract:    true,
	})

	b.phase(records, map[scan.Kind]func(scan.Record){
		scan.KindExportEnum: b.exportEnum,
		scan.KindEnum:       b.scriptEnum,
	})
	b.finishScriptEnums()

	b.phase(records, map[scan.Kind]func(scan.Record){
		scan.KindEntity: b.entity,
	})

	b.phase(records, map[scan.Kind]func(scan.Record){
		scan.KindExportValueType: b.valueType,
		scan.KindExportRefType:   b.refType,
	})

	b.phase(records, map[scan.Kind]func(scan.Record){
		scan.KindExportProperty: b.exportProperty,
		scan.KindProperty:       b.property,
		scan.KindExportMethod:   b.exportMethod,
		scan.KindExportEvent:    b.exportEvent,
		scan.KindEvent:          b.event,
		scan.KindRemoteCall:     b.remoteCall,
		scan.KindSetting:        b.setting,
		scan.KindMigrationRule:  b.migrationRule,
		scan.KindCodeGen:        b.codeGen,
	})

	b.synthesizePropertyEnums()
	b.reg.Enums = b.checkEnums(b.reg.Enums)
	return b.reg, b.types
}

func (b *Builder) phase(records []scan.Record, handlers map[scan.Kind]func(scan.Record)) {
	for _, r := range records {
		if h, ok := handlers[r.Kind]; ok {
			h(r)
		}
	}
}

// typeError converts a type algebra failure into a diagnostic.
func (b *Builder) typeError(r scan.Record, err error) {
	var unknown *typesys.UnknownTypeError
	var dup *typesys.DuplicateTypeError
	switch {
	case errors.As(err, &unknown):
		b.diags.Semantic(r.Pos(), diag.ErrUnknownType, "%s: %v", r.Kind, err)
	case errors.As(err, &dup):
		b.diags.Semantic(r.Pos(), diag.ErrDuplicateType, "%s: %v", r.Kind, err)
	default:
		b.diags.Parse(r.Pos(), diag.ErrMalformedType, "%s: %v", r.Kind, err)
	}
}

func (b *Builder) malformed(r scan.Record, format string, args ...any) {
	b.diags.Parse(r.Pos(), diag.ErrMalformedTag, "%s: "+format, append([]any{r.Kind}, args...)...)
}

// claim records a member key and reports whether it was free.
func (b *Builder) claim(r scan.Record, kind, key string) bool {
	k := kind + ":" + key
	if b.members[k] {
		b.diags.Semantic(r.Pos(), diag.ErrDuplicateMember, "duplicate %s %s", kind, key)
		return false
	}
	b.members[k] = true
	return true
}

func (b *Builder) parseSide(r scan.Record, s string) (ir.Side, bool) {
	side, ok := ir.ParseSide(s)
	if !ok {
		b.diags.Semantic(r.Pos(), diag.ErrInvalidTarget, "%s: unknown target %q", r.Kind, s)
	}
	return side, ok
}

func (b *Builder) lookupEntity(r scan.Record, name string) (*ir.Entity, bool) {
	e := b.reg.Entity(name)
	if e == nil {
		b.diags.Semantic(r.Pos(), diag.ErrUnknownEntity, "%s: unknown entity %q", r.Kind, name)
		return nil, false
	}
	return e, true
}
