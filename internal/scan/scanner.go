// Package scan extracts tag records from annotated source files.
//
// A tag line is a "///@" comment: "///@ Tag arguments // optional comment".
// Any other "///" line is documentation for the next tag. Everything else
// in a file is opaque positional context.
//
// The first "//" after the marker always starts the inline comment, so tag
// arguments cannot contain "//" themselves: "///@ Setting Common string Url
// = http://host" yields the arguments "Common string Url = http:" and the
// comment "host".
//
// The package also reads the inputs of the script root modules: the
// "// FOS" header of each script module and the proto ids of content
// directories.
package scan

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/apigen/internal/diag"
)

const (
	commentPrefix = "///"
	markerPrefix  = "@"
	docPrefix     = "#"
)

// ScanFile reads path and returns its records. Read failures are recorded
// as IO diagnostics.
func ScanFile(path string, diags *diag.List) []Record {
	f, err := os.Open(path)
	if err != nil {
		diags.IO(path, diag.ErrReadFailed, errors.Wrap(err, "open source"))
		return nil
	}
	defer f.Close()

	recs, err := Scan(f, path, diags)
	if err != nil {
		diags.IO(path, diag.ErrReadFailed, errors.Wrap(err, "read source"))
	}
	return recs
}

// Scan reads r line by line. Malformed and unknown tags are recorded in
// diags and skipped; the returned error reports only read failures.
func Scan(r io.Reader, name string, diags *diag.List) ([]Record, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	s := &scanner{file: name, lines: lines, diags: diags}
	for i := range lines {
		s.line(i)
	}
	return s.records, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

type scanner struct {
	file    string
	lines   []string
	diags   *diag.List
	pending []string
	records []Record
}

func (s *scanner) pos(i int) diag.Pos {
	return diag.Pos{File: s.file, Line: i + 1}
}

func (s *scanner) line(i int) {
	raw := s.lines[i]
	trimmed := strings.TrimLeft(raw, " \t")
	rest, ok := strings.CutPrefix(trimmed, commentPrefix)
	if !ok {
		s.pending = nil
		return
	}

	body, isMarker := strings.CutPrefix(rest, markerPrefix)
	if !isMarker {
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), docPrefix))
		if text != "" {
			s.pending = append(s.pending, text)
		}
		return
	}

	comment := s.pending
	s.pending = nil
	if idx := strings.Index(body, "//"); idx >= 0 {
		if c := strings.TrimSpace(body[idx+2:]); c != "" {
			comment = []string{c}
		}
		body = body[:idx]
	}

	body = strings.TrimSpace(body)
	if body == "" {
		s.diags.Parse(s.pos(i), diag.ErrMalformedTag, "marker without tag name")
		return
	}
	tag, args, _ := strings.Cut(body, " ")
	kind := Kind(tag)
	shape, known := vocabulary[kind]
	if !known {
		s.diags.Parse(s.pos(i), diag.ErrUnknownTag, "unknown tag %q", tag)
		return
	}

	ctx, ok := s.context(i, kind, shape, len(raw)-len(trimmed))
	if !ok {
		return
	}
	s.records = append(s.records, Record{
		File:    s.file,
		Line:    i + 1,
		Kind:    kind,
		Args:    strings.TrimSpace(args),
		Context: ctx,
		Comment: comment,
	})
}

func (s *scanner) context(i int, kind Kind, shape contextShape, column int) (Context, bool) {
	switch shape {
	case shapeBlock:
		block, ok := s.block(i)
		if !ok {
			s.diags.Parse(s.pos(i), diag.ErrUnterminatedBlock, "%s block never reaches \"};\"", kind)
			return nil, false
		}
		if kind == KindExportEnum {
			return EnumContext{Lines: block}, true
		}
		return ObjectContext{Lines: block}, true

	case shapeSignature, shapeOwnedSignature:
		next, ok := s.next(i)
		if !ok {
			s.diags.Parse(s.pos(i), diag.ErrMissingContext, "%s must precede a declaration", kind)
			return nil, false
		}
		if shape == shapeSignature {
			return MethodContext{Line: next}, true
		}
		owner, ok := s.owner(i)
		if !ok {
			s.diags.Parse(s.pos(i), diag.ErrMissingContext, "%s outside of a class", kind)
			return nil, false
		}
		if kind == KindExportProperty {
			return PropertyContext{Owner: owner, Line: next}, true
		}
		return EventContext{Owner: owner, Line: next}, true

	case shapeColumn:
		return MarkerContext{Column: column, Indent: s.lines[i][:column]}, true
	}
	return ArgsContext{}, true
}

// block captures the lines after i through the first line that starts or
// ends with "};".
func (s *scanner) block(i int) ([]string, bool) {
	for j := i + 1; j < len(s.lines); j++ {
		t := strings.TrimSpace(s.lines[j])
		if strings.HasPrefix(t, "};") || strings.HasSuffix(t, "};") {
			out := make([]string, j-i)
			copy(out, s.lines[i+1:j+1])
			return out, true
		}
	}
	return nil, false
}

// next returns the line following i if it holds a declaration.
func (s *scanner) next(i int) (string, bool) {
	if i+1 >= len(s.lines) {
		return "", false
	}
	t := strings.TrimSpace(s.lines[i+1])
	if t == "" || strings.HasPrefix(t, commentPrefix) {
		return "", false
	}
	return t, true
}

// owner finds the nearest class or struct declared above line i.
func (s *scanner) owner(i int) (string, bool) {
	for j := i - 1; j >= 0; j-- {
		fields := strings.Fields(s.lines[j])
		if len(fields) < 2 || (fields[0] != "class" && fields[0] != "struct") {
			continue
		}
		name := strings.TrimRight(fields[1], ":{;")
		if name != "" {
			return name, true
		}
	}
	return "", false
}
