package typesys

import (
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

// Funcdef is one function-handle shape that needs a named declaration.
type Funcdef struct {
	Handle string
	Type   ir.Type
}

// Funcdefs collects callback and predicate shapes, one entry per distinct
// unified form, in first-seen order.
type Funcdefs struct {
	list []Funcdef
	seen map[string]bool
}

// Collect records every function handle nested in t.
func (f *Funcdefs) Collect(t ir.Type) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	ir.Walk(t, func(n ir.Type) {
		switch n.Kind() {
		case ir.KindCallback, ir.KindPredicate:
			key := ir.Unified(n)
			if !f.seen[key] {
				f.seen[key] = true
				f.list = append(f.list, Funcdef{Handle: HandleName(n), Type: n})
			}
		}
	})
}

// List returns the collected shapes.
func (f *Funcdefs) List() []Funcdef { return f.list }

// HandleName derives the declaration name of a function handle from its
// unified form: callback2.int32.Critter becomes Callback2_int32_Critter.
func HandleName(t ir.Type) string {
	u := ir.Unified(t)
	return strings.ToUpper(u[:1]) + strings.ReplaceAll(u[1:], ".", "_")
}
