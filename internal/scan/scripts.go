package scan

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
)

// ScriptExtensions are the file types collected as script modules.
var ScriptExtensions = []string{".fos"}

const (
	scriptHeader = "// FOS"
	utf8BOM      = "\uFEFF"
)

// ReadScriptModules reads the header of every script module. Unreadable
// files and bad headers are recorded and left out.
func ReadScriptModules(paths []string, diags *diag.List) []ir.ScriptModule {
	var out []ir.ScriptModule
	for _, path := range paths {
		line, err := firstLine(path)
		if err != nil {
			diags.IO(path, diag.ErrReadFailed, err)
			continue
		}
		m, err := parseScriptHeader(path, line)
		if err != nil {
			diags.Parse(diag.Pos{File: path, Line: 1}, diag.ErrScriptHeader, "%s", err.Error())
			continue
		}
		out = append(out, m)
	}
	return out
}

func firstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open script module")
	}
	defer f.Close()
	r := bufio.NewReader(f)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "read script module")
	}
	return strings.TrimRight(strings.TrimPrefix(line, utf8BOM), "\r\n"), nil
}

// parseScriptHeader reads "// FOS <words> [Sort N]".
func parseScriptHeader(path, line string) (ir.ScriptModule, error) {
	rest, ok := strings.CutPrefix(line, scriptHeader)
	if !ok {
		return ir.ScriptModule{}, errors.WithHint(
			errors.Newf("script module header must start with %q, got %q", scriptHeader, line),
			`start the file with a line like "// FOS Server Client Sort 10"`)
	}
	m := ir.ScriptModule{Path: path, Tags: strings.Fields(rest)}
	for i, t := range m.Tags {
		if t != "Sort" {
			continue
		}
		if i+1 >= len(m.Tags) {
			return ir.ScriptModule{}, errors.New("Sort needs a number")
		}
		n, err := strconv.Atoi(m.Tags[i+1])
		if err != nil {
			return ir.ScriptModule{}, errors.Newf("bad sort order %q", m.Tags[i+1])
		}
		m.Sort = n
		break
	}
	return m, nil
}

// ReadContent lists the proto ids of every content file directly inside
// dirs. A file contributes its base name and the value of each "$Name"
// line. Ids repeated within a kind keep their first occurrence.
func ReadContent(dirs []string, diags *diag.List) ir.Content {
	kinds := make(map[string]bool, len(ir.ContentKinds))
	for _, k := range ir.ContentKinds {
		kinds[k.Ext] = true
	}
	content := make(ir.Content)
	seen := make(map[string]map[string]bool)
	add := func(kind string, pos diag.Pos, name string) {
		if !identifier(name) {
			diags.Semantic(pos, diag.ErrContentName, "content id %q is not an identifier", name)
			return
		}
		if seen[kind] == nil {
			seen[kind] = make(map[string]bool)
		}
		if seen[kind][name] {
			return
		}
		seen[kind][name] = true
		content[kind] = append(content[kind], name)
	}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			diags.IO(dir, diag.ErrReadFailed, errors.Wrap(err, "read content directory"))
			continue
		}
		for _, e := range entries {
			ext := strings.TrimPrefix(filepath.Ext(e.Name()), ".")
			if e.IsDir() || !kinds[ext] {
				continue
			}
			path := filepath.Join(dir, e.Name())
			add(ext, diag.Pos{File: path}, strings.TrimSuffix(e.Name(), "."+ext))
			if err := contentNames(path, func(line int, name string) {
				add(ext, diag.Pos{File: path, Line: line}, name)
			}); err != nil {
				diags.IO(path, diag.ErrReadFailed, err)
			}
		}
	}
	return content
}

func contentNames(path string, fn func(line int, name string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open content file")
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if !strings.HasPrefix(line, "$Name") {
			continue
		}
		if _, value, ok := strings.Cut(line, "="); ok {
			fn(n, strings.TrimSpace(value))
		}
	}
	return errors.Wrap(sc.Err(), "read content file")
}

func identifier(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
