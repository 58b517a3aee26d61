package compiler

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/scan"
	"github.com/roach88/apigen/internal/typesys"
)

// TemplateSuffix marks template files: the template kind is the part of
// the base name before it, e.g. AngelScript-Template.cpp.
const TemplateSuffix = "-Template"

// TemplateKinds lists the templates generators fill in.
var TemplateKinds = map[string]bool{
	"DataRegistration": true,
	"AngelScript":      true,
	"Mono":             true,
}

var (
	errUnterminatedString = errors.New("unterminated string value")
	errMissingValue       = errors.New("missing value after '='")
)

// exportMethod handles native functions named Target_Entity_Name whose
// first parameter is the receiving entity.
func (b *Builder) exportMethod(r scan.Record) {
	ctx, ok := r.Context.(scan.MethodContext)
	if !ok {
		b.malformed(r, "missing function signature")
		return
	}
	sig, err := parseSignature(ctx.Line)
	if err != nil {
		b.malformed(r, "%v", err)
		return
	}

	parts := strings.SplitN(sig.Name, "_", 3)
	if len(parts) != 3 || parts[2] == "" {
		b.diags.Semantic(r.Pos(), diag.ErrInvalidMemberName, "method %q must be named Target_Entity_Name", sig.Name)
		return
	}
	target, ok := b.parseSide(r, parts[0])
	if !ok {
		return
	}
	if _, ok := b.lookupEntity(r, parts[1]); !ok {
		return
	}
	if len(sig.Params) == 0 {
		b.diags.Semantic(r.Pos(), diag.ErrEntityFamily, "method %s must take the receiving entity first", sig.Name)
		return
	}

	ret, err := b.types.ParseEngine(sig.Ret)
	if err != nil {
		b.typeError(r, err)
		return
	}
	params, ok := b.engineParams(r, sig.Params[1:])
	if !ok {
		return
	}
	if !b.claim(r, "method", string(target)+"."+parts[1]+"."+parts[2]) {
		return
	}
	b.reg.Methods = append(b.reg.Methods, &ir.Method{
		Target:  target,
		Entity:  parts[1],
		Name:    parts[2],
		Ret:     ret,
		Params:  params,
		Flags:   strings.Fields(r.Args),
		Comment: r.Comment,
	})
}

func (b *Builder) engineParams(r scan.Record, decls []string) ([]ir.Param, bool) {
	params := make([]ir.Param, 0, len(decls))
	for i, d := range decls {
		d, comment := extractComment(d)
		typText, name := splitDecl(d)
		if name == "" {
			name = comment
		}
		typ, err := b.types.ParseEngine(typText)
		if err != nil {
			b.typeError(r, err)
			return nil, false
		}
		params = append(params, ir.Param{Name: paramName(name, i), Type: typ})
	}
	return params, true
}

func (b *Builder) scriptParams(r scan.Record, decls []string) ([]ir.Param, bool) {
	params := make([]ir.Param, 0, len(decls))
	for i, d := range decls {
		typText, name, err := splitScriptParam(d)
		if err != nil {
			b.malformed(r, "%v", err)
			return nil, false
		}
		typ, err := b.types.ParseScript(typText)
		if err != nil {
			b.typeError(r, err)
			return nil, false
		}
		params = append(params, ir.Param{Name: paramName(name, i), Type: typ})
	}
	return params, true
}

// exportEvent handles ENTITY_EVENT(Name, Type /*arg*/, ...) inside a native
// entity class. The class decides entity and side.
func (b *Builder) exportEvent(r scan.Record) {
	ctx, ok := r.Context.(scan.EventContext)
	if !ok {
		b.malformed(r, "missing event declaration")
		return
	}
	entity, ok := b.types.EntityForClass(ctx.Owner)
	if !ok {
		b.diags.Semantic(r.Pos(), diag.ErrUnknownEntity, "class %q is not an entity class", ctx.Owner)
		return
	}
	e := b.reg.Entity(entity)
	target := ir.SideCommon
	switch {
	case e.ServerClass == e.ClientClass:
	case ctx.Owner == e.ServerClass:
		target = ir.SideServer
	default:
		target = ir.SideClient
	}

	open := strings.IndexByte(ctx.Line, '(')
	closeIdx := strings.LastIndexByte(ctx.Line, ')')
	if open < 0 || closeIdx < open {
		b.malformed(r, "expected ENTITY_EVENT(Name, args...), got %q", ctx.Line)
		return
	}
	parts := typesys.SplitTopLevel(ctx.Line[open+1:closeIdx], ',')
	if !isIdent(parts[0]) {
		b.malformed(r, "event needs a name")
		return
	}
	params, ok := b.engineParams(r, parts[1:])
	if !ok {
		return
	}
	b.addEvent(r, &ir.Event{
		Target:  target,
		Entity:  entity,
		Name:    parts[0],
		Params:  params,
		Flags:   strings.Fields(r.Args),
		Native:  true,
		Comment: r.Comment,
	})
}

// event handles "Entity Target Name(Type a, Type b) [flags]".
func (b *Builder) event(r scan.Record) {
	fields := strings.SplitN(strings.TrimSpace(r.Args), " ", 3)
	if len(fields) < 3 {
		b.malformed(r, "expected \"Entity Target Name(args) [flags]\"")
		return
	}
	if _, ok := b.lookupEntity(r, fields[0]); !ok {
		return
	}
	target, ok := b.parseSide(r, fields[1])
	if !ok {
		return
	}
	c, err := parseCall(fields[2])
	if err != nil {
		b.malformed(r, "%v", err)
		return
	}
	params, ok := b.scriptParams(r, c.Params)
	if !ok {
		return
	}
	b.addEvent(r, &ir.Event{
		Target:  target,
		Entity:  fields[0],
		Name:    c.Name,
		Params:  params,
		Flags:   c.Flags,
		Comment: r.Comment,
	})
}

func (b *Builder) addEvent(r scan.Record, ev *ir.Event) {
	if !b.claim(r, "event", ev.Entity+"."+ev.Name) {
		return
	}
	b.reg.Events = append(b.reg.Events, ev)
}

// remoteCall handles "Target Name(Type a, ...) [flags]".
func (b *Builder) remoteCall(r scan.Record) {
	targetText, rest, ok := strings.Cut(strings.TrimSpace(r.Args), " ")
	if !ok {
		b.malformed(r, "expected \"Target Name(args) [flags]\"")
		return
	}
	target, ok := b.parseSide(r, targetText)
	if !ok {
		return
	}
	if target != ir.SideServer && target != ir.SideClient {
		b.diags.Semantic(r.Pos(), diag.ErrInvalidTarget, "remote calls run on Server or Client, not %s", target)
		return
	}
	c, err := parseCall(rest)
	if err != nil {
		b.malformed(r, "%v", err)
		return
	}
	params, ok := b.scriptParams(r, c.Params)
	if !ok {
		return
	}
	if !b.claim(r, "remote call", c.Name) {
		return
	}
	b.reg.RemoteCalls = append(b.reg.RemoteCalls, &ir.RemoteCall{
		Target:  target,
		Name:    c.Name,
		Params:  params,
		Flags:   c.Flags,
		Comment: r.Comment,
	})
}

// setting handles "Group Type Name [= Value] [flags]". A value may be a
// double-quoted string.
func (b *Builder) setting(r scan.Record) {
	head, tail, hasValue := strings.Cut(r.Args, "=")
	fields := strings.Fields(head)
	var value string
	var flags []string
	if hasValue {
		if len(fields) != 3 {
			b.malformed(r, "expected \"Group Type Name = Value\"")
			return
		}
		var err error
		value, flags, err = settingValue(tail)
		if err != nil {
			b.malformed(r, "%v", err)
			return
		}
	} else {
		if len(fields) < 3 {
			b.malformed(r, "expected \"Group Type Name [flags]\"")
			return
		}
		flags = fields[3:]
		fields = fields[:3]
	}

	group, name := fields[0], fields[2]
	typ, err := b.types.ParseScript(fields[1])
	if err != nil {
		b.typeError(r, err)
		return
	}
	if !b.claim(r, "setting", name) {
		return
	}
	g, ok := b.settings[group]
	if !ok {
		g = &ir.SettingsGroup{Name: group}
		b.settings[group] = g
		b.reg.Settings = append(b.reg.Settings, g)
	}
	g.Settings = append(g.Settings, ir.Setting{
		Type:    typ,
		Name:    name,
		Default: value,
		Flags:   flags,
		Comment: r.Comment,
	})
}

func settingValue(s string) (string, []string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) {
		end := strings.IndexByte(s[1:], '"')
		if end < 0 {
			return "", nil, errUnterminatedString
		}
		return s[:end+2], strings.Fields(s[end+2:]), nil
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", nil, errMissingValue
	}
	return fields[0], fields[1:], nil
}

// migrationRule handles "Kind Scope From To".
func (b *Builder) migrationRule(r scan.Record) {
	fields := strings.Fields(r.Args)
	if len(fields) != 4 {
		b.malformed(r, "expected \"Kind Scope From To\"")
		return
	}
	b.reg.Migrations = append(b.reg.Migrations, ir.MigrationRule{
		Kind:  fields[0],
		Scope: fields[1],
		From:  fields[2],
		To:    fields[3],
	})
}

// codeGen records a template insertion marker.
func (b *Builder) codeGen(r scan.Record) {
	ctx, ok := r.Context.(scan.MarkerContext)
	if !ok {
		b.malformed(r, "missing marker column")
		return
	}
	base := filepath.Base(r.File)
	kind, _, ok := strings.Cut(strings.TrimSuffix(base, filepath.Ext(base)), TemplateSuffix)
	if !ok || !TemplateKinds[kind] {
		b.diags.Semantic(r.Pos(), diag.ErrInvalidTemplate, "CodeGen marker in %s, which is not a known template", base)
		return
	}
	fields := strings.Fields(r.Args)
	if len(fields) == 0 {
		b.malformed(r, "marker needs an entry name")
		return
	}
	if !b.claim(r, "marker", kind+"."+fields[0]) {
		return
	}
	b.reg.Markers = append(b.reg.Markers, ir.TemplateMarker{
		Template: kind,
		Path:     r.File,
		Entry:    fields[0],
		Line:     r.Line - 1,
		Column:   ctx.Column,
	})
}
