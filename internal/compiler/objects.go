package compiler

import (
	"strings"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/scan"
)

// object is the parsed body of a struct block.
type object struct {
	name    string
	fields  []string
	methods []string
}

// parseObject splits "struct Name { fields; methods(); };" into raw member
// declarations. Access labels, macros without arguments and comments are
// ignored.
func parseObject(lines []string) (object, bool) {
	var obj object
	for _, raw := range lines {
		line := raw
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if obj.name == "" {
			fields := strings.Fields(line)
			if len(fields) >= 2 && (fields[0] == "struct" || fields[0] == "class") {
				obj.name = strings.TrimRight(fields[1], ":{;")
			}
			continue
		}
		line = strings.Trim(line, "{}")
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))
		switch {
		case line == "", strings.HasSuffix(line, ":"), strings.HasPrefix(line, "SCRIPTABLE_OBJECT"):
		case strings.Contains(line, "("):
			obj.methods = append(obj.methods, line)
		default:
			obj.fields = append(obj.fields, line)
		}
	}
	return obj, obj.name != "" && isIdent(obj.name)
}

func (b *Builder) objectTarget(r scan.Record) (ir.Side, bool) {
	fields := strings.Fields(r.Args)
	if len(fields) == 0 {
		return ir.SideCommon, true
	}
	return b.parseSide(r, fields[0])
}

// objectFields parses field declarations. Bad fields are reported one by
// one and skipped.
func (b *Builder) objectFields(r scan.Record, decls []string) []ir.Param {
	var out []ir.Param
	for _, d := range decls {
		typText, name := splitDecl(d)
		if name == "" {
			b.malformed(r, "field %q has no name", d)
			continue
		}
		typ, err := b.types.ParseEngine(typText)
		if err != nil {
			b.typeError(r, err)
			continue
		}
		out = append(out, ir.Param{Name: name, Type: typ})
	}
	return out
}

// valueType handles a flat struct block. The name is registered before the
// fields are parsed so a field may not refer to its own struct by value
// but later declarations may.
func (b *Builder) valueType(r scan.Record) {
	ctx, ok := r.Context.(scan.ObjectContext)
	if !ok {
		b.malformed(r, "missing struct block")
		return
	}
	target, ok := b.objectTarget(r)
	if !ok {
		return
	}
	obj, ok := parseObject(ctx.Lines)
	if !ok {
		b.malformed(r, "expected \"struct Name { ... };\"")
		return
	}
	if len(obj.methods) > 0 {
		b.diags.Semantic(r.Pos(), diag.ErrInvalidMemberName, "value type %s cannot declare methods", obj.name)
		return
	}
	if err := b.types.AddValueType(obj.name); err != nil {
		b.typeError(r, err)
		return
	}
	b.reg.ValueTypes = append(b.reg.ValueTypes, &ir.ValueObject{
		Target:  target,
		Name:    obj.name,
		Fields:  b.objectFields(r, obj.fields),
		Comment: r.Comment,
	})
}

// refType handles a reference-counted struct block with fields and
// methods.
func (b *Builder) refType(r scan.Record) {
	ctx, ok := r.Context.(scan.ObjectContext)
	if !ok {
		b.malformed(r, "missing struct block")
		return
	}
	target, ok := b.objectTarget(r)
	if !ok {
		return
	}
	obj, ok := parseObject(ctx.Lines)
	if !ok {
		b.malformed(r, "expected \"struct Name { ... };\"")
		return
	}
	if err := b.types.AddRefType(obj.name); err != nil {
		b.typeError(r, err)
		return
	}

	rt := &ir.RefType{
		Target:  target,
		Name:    obj.name,
		Fields:  b.objectFields(r, obj.fields),
		Comment: r.Comment,
	}
	for _, m := range obj.methods {
		sig, err := parseSignature(m)
		if err != nil {
			b.malformed(r, "%v", err)
			continue
		}
		ret, err := b.types.ParseEngine(sig.Ret)
		if err != nil {
			b.typeError(r, err)
			continue
		}
		params, ok := b.engineParams(r, sig.Params)
		if !ok {
			continue
		}
		rt.Methods = append(rt.Methods, ir.ObjectMethod{Name: sig.Name, Ret: ret, Params: params})
	}
	b.reg.RefTypes = append(b.reg.RefTypes, rt)
}
