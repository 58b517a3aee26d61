package typesys

import "fmt"

// UnknownTypeError reports a reference to a name that is not registered.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type %q", e.Name)
}

// DuplicateTypeError reports a second registration of a name.
type DuplicateTypeError struct {
	Name     string
	Existing Category
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type %q already registered as %s", e.Name, e.Existing)
}

// SyntaxError reports type text that does not follow the grammar.
type SyntaxError struct {
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed type %q: %s", e.Text, e.Reason)
}

func syntaxErr(text, format string, args ...any) error {
	return &SyntaxError{Text: text, Reason: fmt.Sprintf(format, args...)}
}
