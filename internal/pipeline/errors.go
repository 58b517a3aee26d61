package pipeline

import (
	"fmt"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/emit"
)

// AbortError is returned when a checkpoint finds diagnostics. Placeholders
// have been written for every planned output by the time it is returned.
type AbortError struct {
	Stage       Stage
	Diagnostics []diag.Diagnostic
	Stubs       emit.Result
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("generation aborted at %s stage with %d diagnostic(s)", e.Stage, len(e.Diagnostics))
}
