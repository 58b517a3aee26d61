// Package diag collects typed diagnostics produced while compiling the
// scriptable API surface.
//
// Nothing in the pipeline returns early on a bad tag. Every stage records
// what it found into a shared List and carries on; the pipeline inspects the
// list at explicit checkpoints and decides there whether to abort.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// KindParse covers malformed tag syntax and unknown tag names.
	KindParse Kind = iota
	// KindSemantic covers unknown types, duplicate registrations and broken
	// enum invariants.
	KindSemantic
	// KindIO covers unreadable inputs and unwritable outputs.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindSemantic:
		return "semantic"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Parse error codes (E200-E299)
const (
	ErrUnknownTag        = "E201" // tag name not in the vocabulary
	ErrMalformedTag      = "E202" // argument string does not match the tag grammar
	ErrUnterminatedBlock = "E203" // block context never reached its closing sentinel
	ErrMissingContext    = "E204" // tag needs a following line or enclosing class
	ErrMalformedType     = "E205" // type text does not parse
	ErrScriptHeader      = "E206" // script module lacks a "// FOS" header
)

// Semantic error codes (E300-E399)
const (
	ErrUnknownType       = "E301" // type name not registered
	ErrDuplicateType     = "E302" // type name registered twice across categories
	ErrEnumMissingZero   = "E303" // enum has no entry valued 0
	ErrEnumDuplicateKey  = "E304" // enum key repeated
	ErrEnumDuplicateVal  = "E305" // enum value repeated
	ErrUnknownEntity     = "E306" // member attached to an unknown entity
	ErrInvalidAccess     = "E307" // unknown property access scope
	ErrInvalidTarget     = "E308" // unknown side target
	ErrDuplicateMember   = "E309" // property/method/event declared twice
	ErrInvalidTemplate   = "E310" // template marker outside a template file
	ErrInvalidEnumValue  = "E311" // enum literal does not parse or overflow
	ErrEntityFamily      = "E312" // member shape does not fit its entity family
	ErrInvalidMemberName = "E313" // method name not Target_Entity_Name
	ErrContentName       = "E314" // content proto id is not an identifier
)

// IO error codes (E400-E499)
const (
	ErrReadFailed      = "E401" // source or template unreadable
	ErrTemplateMissing = "E402" // no template registered for an output
	ErrWriteFailed     = "E403" // output could not be written
	ErrStubFailed      = "E404" // placeholder could not be written
	ErrGenerator       = "E405" // generator failed unexpectedly
	ErrCollectFailed   = "E406" // glob expansion failed
)

// Diagnostic is one reported problem with optional source position.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	switch {
	case d.File != "" && d.Line > 0:
		return fmt.Sprintf("%s:%d: [%s] %s", d.File, d.Line, d.Code, d.Message)
	case d.File != "":
		return fmt.Sprintf("%s: [%s] %s", d.File, d.Code, d.Message)
	default:
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
}

// Pos is a source position used when recording diagnostics.
type Pos struct {
	File string
	Line int
}

// List accumulates diagnostics. The zero value is ready to use.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// Parse records a ParseError at pos.
func (l *List) Parse(pos Pos, code, format string, args ...any) {
	l.add(KindParse, pos, code, format, args...)
}

// Semantic records a SemanticError at pos.
func (l *List) Semantic(pos Pos, code, format string, args ...any) {
	l.add(KindSemantic, pos, code, format, args...)
}

// IO records an IOError. file may be empty.
func (l *List) IO(file, code string, err error) {
	l.Add(Diagnostic{Kind: KindIO, Code: code, File: file, Message: err.Error()})
}

func (l *List) add(kind Kind, pos Pos, code, format string, args ...any) {
	l.Add(Diagnostic{
		Kind:    kind,
		Code:    code,
		File:    pos.File,
		Line:    pos.Line,
		Message: fmt.Sprintf(format, args...),
	})
}

// Len reports how many diagnostics were recorded.
func (l *List) Len() int { return len(l.items) }

// Empty reports whether nothing was recorded.
func (l *List) Empty() bool { return len(l.items) == 0 }

// Items returns a copy of the recorded diagnostics in insertion order.
func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Sorted returns the diagnostics ordered by file, line and code.
// Diagnostics without a file sort last.
func (l *List) Sorted() []Diagnostic {
	out := l.Items()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.File == "") != (b.File == "") {
			return a.File != ""
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Code < b.Code
	})
	return out
}

// Count returns the number of diagnostics of kind k.
func (l *List) Count(k Kind) int {
	n := 0
	for _, d := range l.items {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// HasCode reports whether any diagnostic carries code.
func (l *List) HasCode(code string) bool {
	for _, d := range l.items {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Summary renders every diagnostic on its own line.
func (l *List) Summary() string {
	var b strings.Builder
	for _, d := range l.Sorted() {
		b.WriteString(d.Error())
		b.WriteByte('\n')
	}
	return b.String()
}
