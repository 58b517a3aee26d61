package compiler

import (
	"strings"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/scan"
	"github.com/roach88/apigen/internal/typesys"
)

// propertiesSuffix names the native class holding an entity's exported
// properties: CritterProperties, EntityProperties.
const propertiesSuffix = "Properties"

// entity handles "Entity Name ServerClass ClientClass [flags]".
func (b *Builder) entity(r scan.Record) {
	fields := strings.Fields(r.Args)
	if len(fields) < 3 {
		b.malformed(r, "expected \"Name ServerClass ClientClass [flags]\"")
		return
	}
	e := &ir.Entity{
		Name:        fields[0],
		ServerClass: fields[1],
		ClientClass: fields[2],
		Comment:     r.Comment,
	}
	for _, f := range fields[3:] {
		switch f {
		case "Global":
			e.Global = true
		case "HasProtos":
			e.HasProtos = true
		case "HasStatics":
			e.HasStatics = true
		case "HasAbstract":
			e.HasAbstract = true
		case "HasTimeEvents":
			e.HasTimeEvents = true
		default:
			b.malformed(r, "unknown entity flag %q", f)
			return
		}
	}
	if e.Global && e.HasProtos {
		b.diags.Semantic(r.Pos(), diag.ErrEntityFamily, "global entity %s cannot have prototypes", e.Name)
		return
	}

	if err := b.types.AddEntity(e.Name, e.ServerClass, e.ClientClass); err != nil {
		b.typeError(r, err)
		return
	}
	for _, c := range e.Companions() {
		if err := b.types.AddCompanion(c); err != nil {
			b.typeError(r, err)
		}
	}
	if err := b.types.AddEnum(e.PropertyEnum(), "uint16"); err != nil {
		b.typeError(r, err)
	}
	b.reg.Entities = append(b.reg.Entities, e)
}

// exportProperty handles ENTITY_PROPERTY(Access, Type, Name) lines inside
// a <Entity>Properties class.
func (b *Builder) exportProperty(r scan.Record) {
	ctx, ok := r.Context.(scan.PropertyContext)
	if !ok {
		b.malformed(r, "missing property declaration")
		return
	}
	entity, ok := strings.CutSuffix(ctx.Owner, propertiesSuffix)
	if !ok || entity == "" {
		b.diags.Semantic(r.Pos(), diag.ErrEntityFamily, "property class %q must be named <Entity>%s", ctx.Owner, propertiesSuffix)
		return
	}

	open := strings.IndexByte(ctx.Line, '(')
	closeIdx := strings.LastIndexByte(ctx.Line, ')')
	if open < 0 || closeIdx < open {
		b.malformed(r, "expected ENTITY_PROPERTY(Access, Type, Name), got %q", ctx.Line)
		return
	}
	parts := typesys.SplitTopLevel(ctx.Line[open+1:closeIdx], ',')
	if len(parts) != 3 {
		b.malformed(r, "expected 3 property arguments, got %d", len(parts))
		return
	}

	typ, err := b.types.ParseEngine(parts[1])
	if err != nil {
		b.typeError(r, err)
		return
	}
	flags := strings.Fields(r.Args)
	b.addProperty(r, entity, parts[0], typ, parts[2], hasFlag(flags, "ReadOnly"), flags, true)
}

// property handles "Entity Access [const] Type Name [flags]" with the type
// in script syntax.
func (b *Builder) property(r scan.Record) {
	fields := strings.Fields(r.Args)
	if len(fields) < 4 {
		b.malformed(r, "expected \"Entity Access [const] Type Name [flags]\"")
		return
	}
	entity, access := fields[0], fields[1]
	rest := fields[2:]
	readOnly := false
	if rest[0] == "const" {
		readOnly = true
		rest = rest[1:]
	}
	if len(rest) < 2 {
		b.malformed(r, "missing property type or name")
		return
	}
	typ, err := b.types.ParseScript(rest[0])
	if err != nil {
		b.typeError(r, err)
		return
	}
	flags := rest[2:]
	b.addProperty(r, entity, access, typ, rest[1], readOnly || hasFlag(flags, "ReadOnly"), flags, false)
}

// addProperty validates and attaches a property. Properties on the family
// marker fan out to every concrete entity.
func (b *Builder) addProperty(r scan.Record, entity, accessText string, typ ir.Type, name string, readOnly bool, flags []string, native bool) {
	access, ok := ir.ParseAccess(accessText)
	if !ok {
		b.diags.Semantic(r.Pos(), diag.ErrInvalidAccess, "unknown access %q for property %s", accessText, name)
		return
	}
	if !isIdent(name) {
		b.malformed(r, "bad property name %q", name)
		return
	}
	if ir.ContainsSelf(typ) {
		b.diags.Semantic(r.Pos(), diag.ErrEntityFamily, "property %s cannot use Self", name)
		return
	}
	owner, ok := b.lookupEntity(r, entity)
	if !ok {
		return
	}

	targets := []*ir.Entity{owner}
	if owner.Abstract {
		targets = b.reg.ConcreteEntities()
	}
	for _, e := range targets {
		if !b.claim(r, "property", e.Name+"."+name) {
			continue
		}
		b.ordinals[e.Name]++
		b.reg.Properties = append(b.reg.Properties, &ir.Property{
			Entity:   e.Name,
			Access:   access,
			Type:     typ,
			Name:     name,
			ReadOnly: readOnly,
			Flags:    flags,
			Ordinal:  b.ordinals[e.Name],
			Native:   native,
			Comment:  r.Comment,
		})
	}
}
