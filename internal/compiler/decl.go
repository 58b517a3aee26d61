package compiler

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/apigen/internal/typesys"
)

// Qualifiers that may precede a native function's return type.
var qualifiers = map[string]bool{
	"static": true, "inline": true, "extern": true, "virtual": true,
	"constexpr": true, "FO_SCRIPT_API": true, "auto": true,
}

// signature is a parsed native function declaration.
type signature struct {
	Ret    string
	Name   string
	Params []string
}

// parseSignature splits "static int32 Server_Critter_Foo(A a, B b) { ... }"
// into its return type, name and raw parameter declarations.
func parseSignature(line string) (signature, error) {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return signature{}, errors.Newf("no parameter list in %q", line)
	}
	closeIdx := matchingParen(line, open)
	if closeIdx < 0 {
		return signature{}, errors.Newf("unbalanced parentheses in %q", line)
	}

	head := strings.Fields(line[:open])
	for len(head) > 0 && (qualifiers[head[0]] || strings.HasPrefix(head[0], "[[")) {
		head = head[1:]
	}
	if len(head) < 2 {
		return signature{}, errors.Newf("missing return type or name in %q", line)
	}

	sig := signature{
		Name: head[len(head)-1],
		Ret:  strings.Join(head[:len(head)-1], " "),
	}
	if inner := strings.TrimSpace(line[open+1 : closeIdx]); inner != "" && inner != "void" {
		sig.Params = typesys.SplitTopLevel(inner, ',')
	}
	return sig, nil
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitDecl splits "const vector<int32>& values = {}" into its type and
// name. A declaration without a name returns an empty name.
func splitDecl(decl string) (typ, name string) {
	if i := strings.IndexByte(decl, '='); i >= 0 {
		decl = decl[:i]
	}
	decl = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(decl), ";"))
	if i := strings.IndexByte(decl, '{'); i >= 0 {
		decl = strings.TrimSpace(decl[:i])
	}

	end := len(decl)
	start := end
	for start > 0 && isIdentChar(decl[start-1]) {
		start--
	}
	rest := strings.TrimSpace(decl[:start])
	if start == end || rest == "" || strings.HasSuffix(rest, ",") || strings.HasSuffix(rest, "<") {
		return decl, ""
	}
	return rest, decl[start:end]
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// extractComment removes a "/*name*/" fragment and returns it separately.
func extractComment(s string) (rest, comment string) {
	open := strings.Index(s, "/*")
	if open < 0 {
		return strings.TrimSpace(s), ""
	}
	closeIdx := strings.Index(s[open:], "*/")
	if closeIdx < 0 {
		return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+2:])
	}
	comment = strings.TrimSpace(s[open+2 : open+closeIdx])
	rest = strings.TrimSpace(s[:open] + s[open+closeIdx+2:])
	return rest, comment
}

// call is a parsed "Name(Type a, Type b) flags" argument string.
type call struct {
	Name   string
	Params []string
	Flags  []string
}

func parseCall(s string) (call, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return call{}, errors.Newf("expected Name(args) in %q", s)
	}
	closeIdx := matchingParen(s, open)
	if closeIdx < 0 {
		return call{}, errors.Newf("unbalanced parentheses in %q", s)
	}
	c := call{
		Name:  strings.TrimSpace(s[:open]),
		Flags: strings.Fields(s[closeIdx+1:]),
	}
	if c.Name == "" || strings.ContainsAny(c.Name, " \t") {
		return call{}, errors.Newf("bad name %q", c.Name)
	}
	if inner := strings.TrimSpace(s[open+1 : closeIdx]); inner != "" {
		c.Params = typesys.SplitTopLevel(inner, ',')
	}
	return c, nil
}

// splitScriptParam splits a script-syntax "Type name" parameter.
func splitScriptParam(p string) (typ, name string, err error) {
	fields := strings.Fields(p)
	switch len(fields) {
	case 0:
		return "", "", errors.New("empty parameter")
	case 1:
		return fields[0], "", nil
	default:
		return strings.Join(fields[:len(fields)-1], ""), fields[len(fields)-1], nil
	}
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

func paramName(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("p%d", i)
}
