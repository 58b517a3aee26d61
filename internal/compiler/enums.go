package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/scan"
)

var integralTypes = map[string]bool{
	"int8": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true,
}

var nativeIntegrals = map[string]string{
	"char": "int8", "int8": "int8", "int8_t": "int8",
	"uchar": "uint8", "uint8": "uint8", "uint8_t": "uint8",
	"short": "int16", "int16": "int16", "int16_t": "int16",
	"ushort": "uint16", "uint16": "uint16", "uint16_t": "uint16",
	"int": "int32", "int32": "int32", "int32_t": "int32",
	"uint": "uint32", "uint32": "uint32", "uint32_t": "uint32",
	"int64": "int64", "int64_t": "int64",
	"uint64": "uint64", "uint64_t": "uint64",
}

// exportEnum handles "enum class Name : type { A, B = 5, C };" blocks.
func (b *Builder) exportEnum(r scan.Record) {
	ctx, ok := r.Context.(scan.EnumContext)
	if !ok || len(ctx.Lines) == 0 {
		b.malformed(r, "missing enum block")
		return
	}

	// Strip line comments, remembering them for entry docs.
	comments := make([]string, len(ctx.Lines))
	var text strings.Builder
	for i, line := range ctx.Lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			comments[i] = strings.TrimSpace(strings.TrimLeft(line[idx+2:], "/#"))
			line = line[:idx]
		}
		text.WriteString(line)
		text.WriteByte('\n')
	}
	src := text.String()

	open := strings.IndexByte(src, '{')
	closeIdx := strings.LastIndexByte(src, '}')
	if open < 0 || closeIdx < open {
		b.malformed(r, "enum body needs braces")
		return
	}

	name, underlying, ok := parseEnumHeader(src[:open])
	if !ok {
		b.malformed(r, "expected \"enum class Name : type\", got %q", strings.TrimSpace(src[:open]))
		return
	}

	e := &ir.Enum{
		Name:       name,
		Underlying: underlying,
		Flags:      strings.Fields(r.Args),
		Engine:     true,
		Comment:    r.Comment,
	}

	body := src[open+1 : closeIdx]
	offset := open + 1
	for _, raw := range strings.Split(body, ",") {
		lead := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		line := strings.Count(src[:offset+lead], "\n")
		offset += len(raw) + 1
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		key, valueText, hasValue := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !isIdent(key) {
			b.malformed(r, "bad enum key %q in %s", key, name)
			return
		}
		value, ok := b.enumValue(r, e, strings.TrimSpace(valueText), hasValue)
		if !ok {
			return
		}
		en := ir.EnumEntry{Key: key, Value: value}
		if line < len(comments) && comments[line] != "" {
			en.Comment = []string{comments[line]}
		}
		e.Entries = append(e.Entries, en)
	}

	if err := b.types.AddEnum(name, underlying); err != nil {
		b.typeError(r, err)
		return
	}
	b.reg.Enums = append(b.reg.Enums, e)
}

// parseEnumHeader reads "enum class Name : type".
func parseEnumHeader(s string) (name, underlying string, ok bool) {
	decl, utype, hasType := strings.Cut(s, ":")
	fields := strings.Fields(decl)
	if len(fields) < 2 || fields[0] != "enum" {
		return "", "", false
	}
	fields = fields[1:]
	if fields[0] == "class" || fields[0] == "struct" {
		fields = fields[1:]
	}
	if len(fields) != 1 || !isIdent(fields[0]) {
		return "", "", false
	}
	underlying = "int32"
	if hasType {
		canon, known := nativeIntegrals[strings.TrimSpace(utype)]
		if !known {
			return "", "", false
		}
		underlying = canon
	}
	return fields[0], underlying, true
}

// scriptEnum handles "Enum Group Key [= Value] [flags]".
func (b *Builder) scriptEnum(r scan.Record) {
	head, tail, hasValue := strings.Cut(r.Args, "=")
	fields := strings.Fields(head)
	var valueText string
	var flags []string
	if hasValue {
		rest := strings.Fields(tail)
		if len(rest) == 0 {
			b.malformed(r, "missing value after '='")
			return
		}
		valueText, flags = rest[0], rest[1:]
		if len(fields) != 2 {
			b.malformed(r, "expected \"Group Key = Value\"")
			return
		}
	} else {
		if len(fields) < 2 {
			b.malformed(r, "expected \"Group Key\"")
			return
		}
		flags = fields[2:]
		fields = fields[:2]
	}
	group, key := fields[0], fields[1]
	if !isIdent(group) || !isIdent(key) {
		b.malformed(r, "bad enum group or key %q %q", group, key)
		return
	}

	e, exists := b.scriptEnums[group]
	if !exists {
		if err := b.types.AddEnum(group, "int32"); err != nil {
			b.typeError(r, err)
			return
		}
		e = &ir.Enum{Name: group, Underlying: "int32"}
		b.scriptEnums[group] = e
		b.reg.Enums = append(b.reg.Enums, e)
	}

	value, ok := b.enumValue(r, e, valueText, hasValue)
	if !ok {
		return
	}
	e.Entries = append(e.Entries, ir.EnumEntry{Key: key, Value: value, Comment: r.Comment})
	for _, f := range flags {
		if !hasFlag(e.Flags, f) {
			e.Flags = append(e.Flags, f)
		}
	}
}

// enumValue parses a literal or back-fills max(existing)+1. A value may
// also name an earlier key of the same enum.
func (b *Builder) enumValue(r scan.Record, e *ir.Enum, text string, explicit bool) (int64, bool) {
	if !explicit {
		if len(e.Entries) == 0 {
			return 0, true
		}
		maxVal := e.Entries[0].Value
		for _, en := range e.Entries[1:] {
			maxVal = max(maxVal, en.Value)
		}
		if maxVal == math.MaxInt64 {
			b.diags.Semantic(r.Pos(), diag.ErrInvalidEnumValue, "enum %s overflows", e.Name)
			return 0, false
		}
		return maxVal + 1, true
	}

	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		return v, true
	}
	if v, ok := e.Value(text); ok {
		return v, true
	}
	b.diags.Semantic(r.Pos(), diag.ErrInvalidEnumValue,
		"enum %s: value %q must be an integer literal or an earlier key of %s; expressions are not evaluated",
		e.Name, text, e.Name)
	return 0, false
}

// finishScriptEnums narrows the underlying type of tag-assembled enums to
// the smallest scalar holding every value.
func (b *Builder) finishScriptEnums() {
	for _, e := range b.scriptEnums {
		e.Underlying = underlyingFor(e.Entries)
		b.types.SetEnumUnderlying(e.Name, e.Underlying)
	}
}

func underlyingFor(entries []ir.EnumEntry) string {
	if len(entries) == 0 {
		return "uint8"
	}
	lo, hi := entries[0].Value, entries[0].Value
	for _, en := range entries[1:] {
		lo, hi = min(lo, en.Value), max(hi, en.Value)
	}
	switch {
	case lo >= 0 && hi <= math.MaxUint8:
		return "uint8"
	case lo >= 0 && hi <= math.MaxUint16:
		return "uint16"
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return "int32"
	case lo >= 0 && hi <= math.MaxUint32:
		return "uint32"
	default:
		return "int64"
	}
}

// synthesizePropertyEnums appends one <Entity>Property enum per concrete
// entity: None = 0 followed by every property in ordinal order.
func (b *Builder) synthesizePropertyEnums() {
	for _, ent := range b.reg.ConcreteEntities() {
		e := &ir.Enum{
			Name:        ent.PropertyEnum(),
			Underlying:  "uint16",
			Synthesized: true,
			Entries:     []ir.EnumEntry{{Key: "None", Value: 0}},
		}
		for _, p := range b.reg.PropertiesOf(ent.Name) {
			e.Entries = append(e.Entries, ir.EnumEntry{Key: p.Name, Value: int64(p.Ordinal), Comment: p.Comment})
		}
		b.reg.Enums = append(b.reg.Enums, e)
	}
}

// checkEnums reports broken enum invariants and drops the offending
// groups.
func (b *Builder) checkEnums(enums []*ir.Enum) []*ir.Enum {
	out := enums[:0]
	for _, e := range enums {
		problems := EnumProblems(e)
		for _, p := range problems {
			b.diags.Add(p)
		}
		if len(problems) == 0 {
			out = append(out, e)
		}
	}
	return out
}

func isIdent(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// fitsUnderlying reports whether value fits the enum's underlying type.
func fitsUnderlying(underlying string, v int64) bool {
	switch underlying {
	case "int8":
		return v >= math.MinInt8 && v <= math.MaxInt8
	case "uint8":
		return v >= 0 && v <= math.MaxUint8
	case "int16":
		return v >= math.MinInt16 && v <= math.MaxInt16
	case "uint16":
		return v >= 0 && v <= math.MaxUint16
	case "int32":
		return v >= math.MinInt32 && v <= math.MaxInt32
	case "uint32":
		return v >= 0 && v <= math.MaxUint32
	case "uint64":
		return v >= 0
	}
	return integralTypes[underlying]
}
