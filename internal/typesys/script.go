package typesys

import (
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

// Script syntax, as written in scripting-side tags and in documentation:
//
//	type    = postfix [ "=>" type ]
//	postfix = primary { "[]" | "&" }
//	primary = "(" type ")" | func | name
//	func    = ("callback" | "predicate") { "-" postfix }
//
// "Self" is SelfEntity. The script VM spellings "int", "uint", "float"
// and "double" are accepted for their canonical scalars. Maps and nested
// function handles inside a function parameter list need parentheses.
const (
	scriptCallback  = "callback"
	scriptPredicate = "predicate"
	scriptSelf      = "Self"
)

// scriptAliases maps script VM scalar spellings back to canonical names.
var scriptAliases = func() map[string]string {
	m := make(map[string]string, len(scriptScalars))
	for canonical, script := range scriptScalars {
		m[script] = canonical
	}
	return m
}()

// ParseScript converts script syntax to a canonical type.
func (u *Universe) ParseScript(s string) (ir.Type, error) {
	p := &scriptParser{u: u, src: s, text: strings.ReplaceAll(strings.TrimSpace(s), " ", "")}
	if p.text == "" {
		return nil, syntaxErr(s, "empty type")
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.text) {
		return nil, syntaxErr(s, "unexpected %q", p.text[p.pos:])
	}
	return t, nil
}

type scriptParser struct {
	u    *Universe
	src  string
	text string
	pos  int
}

func (p *scriptParser) peek(tok string) bool {
	return strings.HasPrefix(p.text[p.pos:], tok)
}

func (p *scriptParser) parseType() (ir.Type, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.peek("=>") {
		p.pos += 2
		right, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return ir.Map{Key: left, Value: right}, nil
	}
	return left, nil
}

func (p *scriptParser) parsePostfix() (ir.Type, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.peek("[]"):
			p.pos += 2
			t = ir.Array{Elem: t}
		case p.peek("&"):
			p.pos++
			t = ir.Reference{Inner: t}
		default:
			return t, nil
		}
	}
}

func (p *scriptParser) parsePrimary() (ir.Type, error) {
	if p.peek("(") {
		p.pos++
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if !p.peek(")") {
			return nil, syntaxErr(p.src, "missing ')'")
		}
		p.pos++
		return t, nil
	}

	start := p.pos
	for p.pos < len(p.text) && isIdentByte(p.text[p.pos]) {
		p.pos++
	}
	name := p.text[start:p.pos]
	if name == "" {
		return nil, syntaxErr(p.src, "expected a type name at offset %d", start)
	}

	switch name {
	case scriptCallback, scriptPredicate:
		var params []ir.Type
		for p.peek("-") {
			p.pos++
			t, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			params = append(params, t)
		}
		if name == scriptCallback {
			return ir.Callback{Params: params}, nil
		}
		return ir.Predicate{Params: params}, nil
	case scriptSelf:
		return ir.SelfEntity{}, nil
	}
	if canonical, ok := scriptAliases[name]; ok {
		name = canonical
	}
	return p.u.Named(name)
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// Doc renders t in script syntax. It is the inverse of ParseScript.
func Doc(t ir.Type) string {
	switch v := t.(type) {
	case ir.Scalar:
		return v.Name
	case ir.EntityRef:
		return v.Entity
	case ir.ValueType:
		return v.Name
	case ir.SelfEntity:
		return scriptSelf
	case ir.Array:
		return docOperand(v.Elem) + "[]"
	case ir.Reference:
		return docOperand(v.Inner) + "&"
	case ir.Map:
		key := Doc(v.Key)
		if v.Key.Kind() == ir.KindMap {
			key = "(" + key + ")"
		}
		return key + "=>" + Doc(v.Value)
	case ir.Callback:
		return docFunc(scriptCallback, v.Params)
	case ir.Predicate:
		return docFunc(scriptPredicate, v.Params)
	}
	return ""
}

// docOperand parenthesizes types that would otherwise bind looser than a
// postfix operator.
func docOperand(t ir.Type) string {
	switch v := t.(type) {
	case ir.Map:
		return "(" + Doc(t) + ")"
	case ir.Callback:
		if len(v.Params) > 0 {
			return "(" + Doc(t) + ")"
		}
	case ir.Predicate:
		if len(v.Params) > 0 {
			return "(" + Doc(t) + ")"
		}
	}
	return Doc(t)
}

func docFunc(head string, params []ir.Type) string {
	var b strings.Builder
	b.WriteString(head)
	for _, p := range params {
		b.WriteByte('-')
		b.WriteString(docOperand(p))
	}
	return b.String()
}
