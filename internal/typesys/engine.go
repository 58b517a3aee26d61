package typesys

import (
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

// engineKeywords maps native scalar spellings to canonical names.
var engineKeywords = map[string]string{
	"char": "int8", "int8": "int8", "int8_t": "int8",
	"uchar": "uint8", "uint8": "uint8", "uint8_t": "uint8",
	"short": "int16", "int16": "int16", "int16_t": "int16",
	"ushort": "uint16", "uint16": "uint16", "uint16_t": "uint16",
	"int": "int32", "int32": "int32", "int32_t": "int32",
	"uint": "uint32", "uint32": "uint32", "uint32_t": "uint32",
	"int64": "int64", "int64_t": "int64",
	"uint64": "uint64", "uint64_t": "uint64",
	"float": "float32", "float32": "float32",
	"double": "float64", "float64": "float64",
	"bool": "bool", "void": "void", "any": "any",
	"string": "string", "std::string": "string",
	"string_view": "string", "std::string_view": "string",
	"hstring": "hstring",
}

// SelfClass is the native spelling of SelfEntity.
const SelfClass = "Self"

var (
	vectorPrefixes   = []string{"std::vector<", "vector<"}
	mapPrefixes      = []string{"std::unordered_map<", "unordered_map<", "std::map<", "map<"}
	functionPrefixes = []string{"std::function<", "function<"}
)

// ParseEngine converts native type syntax to a canonical type.
//
// Containers parse recursively. A trailing '*' resolves entity classes, ref
// types and companions; a trailing '&' without const is a Reference; a
// const reference is a by-value input and parses as its inner type.
func (u *Universe) ParseEngine(s string) (ir.Type, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil, syntaxErr(s, "empty type")
	}

	if strings.HasSuffix(text, "&") {
		inner := strings.TrimSpace(strings.TrimSuffix(text, "&"))
		if rest, ok := strings.CutPrefix(inner, "const "); ok {
			return u.ParseEngine(rest)
		}
		t, err := u.ParseEngine(inner)
		if err != nil {
			return nil, err
		}
		return ir.Reference{Inner: t}, nil
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "const "))

	if body, ok := cutTemplate(text, functionPrefixes); ok {
		return u.parseEngineFunction(text, body)
	}
	if body, ok := cutTemplate(text, vectorPrefixes); ok {
		elem, err := u.ParseEngine(body)
		if err != nil {
			return nil, err
		}
		return ir.Array{Elem: elem}, nil
	}
	if body, ok := cutTemplate(text, mapPrefixes); ok {
		parts := SplitTopLevel(body, ',')
		if len(parts) != 2 {
			return nil, syntaxErr(s, "map needs a key and a value type")
		}
		k, err := u.ParseEngine(parts[0])
		if err != nil {
			return nil, err
		}
		v, err := u.ParseEngine(parts[1])
		if err != nil {
			return nil, err
		}
		return ir.Map{Key: k, Value: v}, nil
	}

	if strings.HasSuffix(text, "*") {
		return u.parseEnginePointer(strings.TrimSpace(strings.TrimSuffix(text, "*")))
	}

	if canon, ok := engineKeywords[text]; ok {
		return ir.Scalar{Name: canon}, nil
	}
	if !isIdent(text) {
		return nil, syntaxErr(s, "unexpected characters")
	}
	cat, ok := u.Lookup(text)
	if !ok {
		return nil, &UnknownTypeError{Name: text}
	}
	switch cat {
	case CatEnum, CatBuiltin:
		return ir.Scalar{Name: text}, nil
	case CatValueType:
		return ir.ValueType{Name: text}, nil
	default:
		return nil, syntaxErr(s, "%s %q must be passed by pointer", cat, text)
	}
}

func (u *Universe) parseEnginePointer(name string) (ir.Type, error) {
	if name == SelfClass {
		return ir.SelfEntity{}, nil
	}
	if entity, ok := u.EntityForClass(name); ok {
		return ir.EntityRef{Entity: entity}, nil
	}
	cat, ok := u.Lookup(name)
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	switch cat {
	case CatEntity, CatFamily:
		return ir.EntityRef{Entity: name}, nil
	case CatRefType, CatCompanion:
		return ir.Scalar{Name: name}, nil
	}
	return nil, syntaxErr(name+"*", "%s %q cannot be passed by pointer", cat, name)
}

func (u *Universe) parseEngineFunction(text, body string) (ir.Type, error) {
	open := strings.IndexByte(body, '(')
	if open < 0 || !strings.HasSuffix(body, ")") {
		return nil, syntaxErr(text, "function type needs a parameter list")
	}
	ret := strings.TrimSpace(body[:open])
	params, err := u.parseEngineList(body[open+1 : len(body)-1])
	if err != nil {
		return nil, err
	}
	switch ret {
	case "void":
		return ir.Callback{Params: params}, nil
	case "bool":
		return ir.Predicate{Params: params}, nil
	}
	return nil, syntaxErr(text, "function type must return void or bool")
}

func (u *Universe) parseEngineList(s string) ([]ir.Type, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []ir.Type
	for _, part := range SplitTopLevel(s, ',') {
		t, err := u.ParseEngine(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// cutTemplate strips one of prefixes and the closing '>'.
func cutTemplate(s string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) && strings.HasSuffix(s, ">") {
			return strings.TrimSpace(s[len(p) : len(s)-1]), true
		}
	}
	return "", false
}

// SplitTopLevel splits s at sep, ignoring separators nested inside <>, ()
// or []. Parts are trimmed.
func SplitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
