package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExtensions are the file types picked up when a source pattern
// names a directory.
var DefaultExtensions = []string{".h", ".hpp", ".cpp", ".fos", ".as", ".cs"}

// Collector resolves source patterns into the deterministic list of files
// to scan.
type Collector struct {
	// Patterns are file paths, glob patterns or directories.
	Patterns []string
	// Priority files are scanned first, in this order. An entry matches a
	// file by base name or by path suffix.
	Priority []string
	// Exclude holds gitignore-style patterns matched against paths relative
	// to Root.
	Exclude []string
	// SkipDirs are directories whose files are never scanned, typically the
	// generated-output directories.
	SkipDirs []string
	// Extensions filter files found by walking directories.
	Extensions []string
	// Root anchors Exclude patterns. Defaults to the working directory.
	Root string
}

// Collect expands every pattern, de-duplicates by absolute path, drops
// excluded files and returns them sorted with priority files first.
func (c *Collector) Collect() ([]string, error) {
	root, err := filepath.Abs(c.rootDir())
	if err != nil {
		return nil, errors.Wrap(err, "resolve collection root")
	}

	var gi *ignore.GitIgnore
	if len(c.Exclude) > 0 {
		gi = ignore.CompileIgnoreLines(c.Exclude...)
	}

	skip := make([]string, 0, len(c.SkipDirs))
	for _, d := range c.SkipDirs {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve skip dir %s", d)
		}
		skip = append(skip, abs+string(filepath.Separator))
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", path)
		}
		if seen[abs] {
			return nil
		}
		for _, s := range skip {
			if strings.HasPrefix(abs, s) {
				return nil
			}
		}
		if gi != nil {
			if rel, err := filepath.Rel(root, abs); err == nil && gi.MatchesPath(filepath.ToSlash(rel)) {
				return nil
			}
		}
		seen[abs] = true
		files = append(files, abs)
		return nil
	}

	for _, pattern := range c.Patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "bad source pattern %q", pattern)
		}
		if len(matches) == 0 {
			return nil, errors.WithHint(
				errors.Newf("source pattern %q matches no files", pattern),
				"check the --source flags or the sources list in the config file")
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, errors.Wrapf(err, "stat %s", m)
			}
			if !info.IsDir() {
				if err := add(m); err != nil {
					return nil, err
				}
				continue
			}
			if err := c.walk(m, add); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(files)
	return c.prioritize(files), nil
}

func (c *Collector) rootDir() string {
	if c.Root != "" {
		return c.Root
	}
	return "."
}

func (c *Collector) walk(dir string, add func(string) error) error {
	exts := c.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walk %s", path)
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		for _, ext := range exts {
			if strings.EqualFold(filepath.Ext(name), ext) {
				return add(path)
			}
		}
		return nil
	})
}

// prioritize moves priority files to the front in priority-list order,
// keeping the sorted order of the rest.
func (c *Collector) prioritize(files []string) []string {
	if len(c.Priority) == 0 {
		return files
	}
	taken := make(map[string]bool)
	out := make([]string, 0, len(files))
	for _, p := range c.Priority {
		suffix := filepath.FromSlash(p)
		for _, f := range files {
			if taken[f] {
				continue
			}
			if filepath.Base(f) == suffix || strings.HasSuffix(f, string(filepath.Separator)+suffix) {
				taken[f] = true
				out = append(out, f)
			}
		}
	}
	for _, f := range files {
		if !taken[f] {
			out = append(out, f)
		}
	}
	return out
}
