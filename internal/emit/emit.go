// Package emit assembles generated files in memory and writes them out.
//
// A File is either built from scratch with Write or seeded from a template
// whose "///@ CodeGen <Entry>" markers are insertion points. Nothing touches
// the disk until Flush, which leaves files alone when their content did not
// change so that downstream builds see stable timestamps.
package emit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/apigen/internal/ir"
)

// Emitter owns every output file of one run.
type Emitter struct {
	files  []*File
	byPath map[string]*File
}

// New returns an empty emitter.
func New() *Emitter {
	return &Emitter{byPath: make(map[string]*File)}
}

// Create registers a new output file. Each path may be created once.
func (e *Emitter) Create(path string) (*File, error) {
	clean := filepath.Clean(path)
	if _, dup := e.byPath[clean]; dup {
		return nil, errors.Newf("output %s created twice", clean)
	}
	f := &File{Path: clean, markers: make(map[string]*marker)}
	e.files = append(e.files, f)
	e.byPath[clean] = f
	return f, nil
}

// Files returns the registered files in creation order.
func (e *Emitter) Files() []*File {
	return e.files
}

// File is the in-memory content of one output.
type File struct {
	Path    string
	lines   []string
	markers map[string]*marker
}

type marker struct {
	line     int
	indent   string
	inserted int
}

// Write appends lines.
func (f *File) Write(lines ...string) {
	f.lines = append(f.lines, lines...)
}

// InsertAt inserts lines before index. Markers at or after index move
// down.
func (f *File) InsertAt(index int, lines ...string) error {
	if index < 0 || index > len(f.lines) {
		return errors.Newf("%s: insert index %d out of range [0, %d]", f.Path, index, len(f.lines))
	}
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.lines)+len(lines))
	out = append(out, f.lines[:index]...)
	out = append(out, lines...)
	f.lines = append(out, f.lines[index:]...)
	for _, m := range f.markers {
		if m.line >= index {
			m.line += len(lines)
		}
	}
	return nil
}

// LoadTemplate replaces the content with the template at path and
// registers its markers. Every marker must still sit on its line.
func (f *File) LoadTemplate(path string, markers []ir.TemplateMarker) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read template %s", path)
	}
	lines := splitLines(string(normalize(data)))

	f.lines = lines
	f.markers = make(map[string]*marker, len(markers))
	for _, m := range markers {
		if m.Line < 0 || m.Line >= len(lines) || !strings.Contains(lines[m.Line], m.Entry) {
			return errors.WithHint(
				errors.Newf("template %s: marker %s not found on line %d", path, m.Entry, m.Line+1),
				"the template changed after it was scanned; rerun the generator",
			)
		}
		col := min(m.Column, len(lines[m.Line]))
		f.markers[m.Entry] = &marker{line: m.Line, indent: lines[m.Line][:col]}
	}
	return nil
}

// HasMarker reports whether entry is a registered insertion point.
func (f *File) HasMarker(entry string) bool {
	_, ok := f.markers[entry]
	return ok
}

// InsertAtMarker inserts lines after the marker named entry, indented like
// the marker. Successive inserts at one marker keep their order.
func (f *File) InsertAtMarker(entry string, lines ...string) error {
	m, ok := f.markers[entry]
	if !ok {
		return errors.Newf("%s: no marker %q", f.Path, entry)
	}
	padded := make([]string, len(lines))
	for i, l := range lines {
		if l != "" {
			l = m.indent + l
		}
		padded[i] = l
	}
	index := m.line + 1 + m.inserted
	if err := f.InsertAt(index, padded...); err != nil {
		return err
	}
	m.inserted += len(lines)
	return nil
}

// Lines returns the current content.
func (f *File) Lines() []string {
	return f.lines
}

// Content returns the file as written: lines joined by '\n' with a final
// newline.
func (f *File) Content() []byte {
	if len(f.lines) == 0 {
		return nil
	}
	return []byte(strings.Join(f.lines, "\n") + "\n")
}

// Result lists what Flush did with each file.
type Result struct {
	Written   []string
	Unchanged []string
	Failed    []WriteError
}

// WriteError is a file Flush could not write.
type WriteError struct {
	Path string
	Err  error
}

func (w WriteError) Error() string { return w.Path + ": " + w.Err.Error() }

// Flush writes every file whose normalized content differs from what is on
// disk. A failure does not stop the remaining files; the first one is
// returned.
func (e *Emitter) Flush() (Result, error) {
	var res Result
	for _, f := range e.files {
		content := f.Content()
		if existing, err := os.ReadFile(f.Path); err == nil && bytes.Equal(normalize(existing), normalize(content)) {
			res.Unchanged = append(res.Unchanged, f.Path)
			continue
		}
		if err := write(f.Path, content); err != nil {
			res.Failed = append(res.Failed, WriteError{Path: f.Path, Err: err})
			continue
		}
		res.Written = append(res.Written, f.Path)
	}
	if len(res.Failed) > 0 {
		return res, res.Failed[0]
	}
	return res, nil
}

func write(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrap(err, "write output")
	}
	return nil
}

// normalize converts line endings to '\n', strips trailing whitespace on
// every line and trailing blank lines.
func normalize(data []byte) []byte {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return []byte(strings.TrimRight(strings.Join(lines, "\n"), "\n"))
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
