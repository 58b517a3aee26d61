package scan

import "github.com/roach88/apigen/internal/diag"

// Kind is a tag name from the marker vocabulary.
type Kind string

const (
	// Declarations mirrored from native headers.
	KindExportEnum      Kind = "ExportEnum"
	KindExportProperty  Kind = "ExportProperty"
	KindExportMethod    Kind = "ExportMethod"
	KindExportEvent     Kind = "ExportEvent"
	KindExportValueType Kind = "ExportValueType"
	KindExportRefType   Kind = "ExportRefType"

	// Declarations written directly in tag arguments.
	KindEntity        Kind = "Entity"
	KindEnum          Kind = "Enum"
	KindProperty      Kind = "Property"
	KindEvent         Kind = "Event"
	KindRemoteCall    Kind = "RemoteCall"
	KindSetting       Kind = "Setting"
	KindMigrationRule Kind = "MigrationRule"

	// Insertion point inside a template file.
	KindCodeGen Kind = "CodeGen"
)

type contextShape int

const (
	shapeArgs contextShape = iota
	shapeBlock
	shapeSignature
	shapeOwnedSignature
	shapeColumn
)

var vocabulary = map[Kind]contextShape{
	KindExportEnum:      shapeBlock,
	KindExportValueType: shapeBlock,
	KindExportRefType:   shapeBlock,
	KindExportProperty:  shapeOwnedSignature,
	KindExportEvent:     shapeOwnedSignature,
	KindExportMethod:    shapeSignature,
	KindEntity:          shapeArgs,
	KindEnum:            shapeArgs,
	KindProperty:        shapeArgs,
	KindEvent:           shapeArgs,
	KindRemoteCall:      shapeArgs,
	KindSetting:         shapeArgs,
	KindMigrationRule:   shapeArgs,
	KindCodeGen:         shapeColumn,
}

// Known reports whether name is part of the vocabulary.
func Known(name string) bool {
	_, ok := vocabulary[Kind(name)]
	return ok
}

// Context is the tag-specific source context captured with a record.
// Implementations: EnumContext, ObjectContext, PropertyContext,
// MethodContext, EventContext, MarkerContext, ArgsContext.
type Context interface {
	isContext()
}

// EnumContext holds the lines of an enum declaration through its closing
// "};".
type EnumContext struct{ Lines []string }

// ObjectContext holds the lines of a struct declaration through its
// closing "};".
type ObjectContext struct{ Lines []string }

// PropertyContext holds the declaration line following the tag and the
// name of the nearest enclosing class.
type PropertyContext struct {
	Owner string
	Line  string
}

// MethodContext holds the function signature following the tag.
type MethodContext struct{ Line string }

// EventContext holds the event declaration following the tag and the name
// of the nearest enclosing class.
type EventContext struct {
	Owner string
	Line  string
}

// MarkerContext holds the position of a template insertion marker.
type MarkerContext struct {
	Column int
	Indent string
}

// ArgsContext marks tags that carry everything in their arguments.
type ArgsContext struct{}

func (EnumContext) isContext()     {}
func (ObjectContext) isContext()   {}
func (PropertyContext) isContext() {}
func (MethodContext) isContext()   {}
func (EventContext) isContext()    {}
func (MarkerContext) isContext()   {}
func (ArgsContext) isContext()     {}

// Record is one tag found in a source file.
type Record struct {
	File string
	// Line is 1-based.
	Line    int
	Kind    Kind
	Args    string
	Context Context
	Comment []string
}

// Pos returns the record position for diagnostics.
func (r Record) Pos() diag.Pos {
	return diag.Pos{File: r.File, Line: r.Line}
}
