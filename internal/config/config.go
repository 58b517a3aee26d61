// Package config loads generator settings from a YAML or CUE file and
// merges them with command-line flags.
package config

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/apigen/internal/gen"
	"github.com/roach88/apigen/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// Config is the complete input of a generation run.
type Config struct {
	Sources   []string `yaml:"sources" json:"sources"`
	Exclude   []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Priority  []string `yaml:"priority,omitempty" json:"priority,omitempty"`
	Templates []string `yaml:"templates,omitempty" json:"templates,omitempty"`

	Output  Output   `yaml:"output,omitempty" json:"output,omitempty"`
	Targets Targets  `yaml:"targets,omitempty" json:"targets,omitempty"`
	Sides   []string `yaml:"sides,omitempty" json:"sides,omitempty"`
	Build   Build    `yaml:"build,omitempty" json:"build,omitempty"`
	Managed Managed  `yaml:"managed,omitempty" json:"managed,omitempty"`
	Scripts Scripts  `yaml:"scripts,omitempty" json:"scripts,omitempty"`
	Ledger  string   `yaml:"ledger,omitempty" json:"ledger,omitempty"`

	// Root anchors exclude patterns: the config file's directory, or the
	// working directory without a file.
	Root string `yaml:"-" json:"-"`
}

// Output holds the output directories.
type Output struct {
	Gen    string `yaml:"gen,omitempty" json:"gen,omitempty"`
	Script string `yaml:"script,omitempty" json:"script,omitempty"`
	Doc    string `yaml:"doc,omitempty" json:"doc,omitempty"`
}

// Targets selects the generators to run.
type Targets struct {
	Native  bool `yaml:"native,omitempty" json:"native,omitempty"`
	Script  bool `yaml:"script,omitempty" json:"script,omitempty"`
	Managed bool `yaml:"managed,omitempty" json:"managed,omitempty"`
	Docs    bool `yaml:"docs,omitempty" json:"docs,omitempty"`
}

// Any reports whether at least one target is selected.
func (t Targets) Any() bool {
	return t.Native || t.Script || t.Managed || t.Docs
}

// Build is metadata embedded in the version header.
type Build struct {
	Version  string `yaml:"version,omitempty" json:"version,omitempty"`
	Hash     string `yaml:"hash,omitempty" json:"hash,omitempty"`
	GameName string `yaml:"game_name,omitempty" json:"game_name,omitempty"`
}

// Managed configures the managed projects. Maps are keyed by side name;
// their entries read "assembly,path", or just "path" for the first
// assembly.
type Managed struct {
	Assemblies []string            `yaml:"assemblies,omitempty" json:"assemblies,omitempty"`
	References map[string][]string `yaml:"references,omitempty" json:"references,omitempty"`
	Sources    map[string][]string `yaml:"sources,omitempty" json:"sources,omitempty"`
}

// Scripts configures the script root modules.
type Scripts struct {
	// Sources are script module files, globs or directories.
	Sources []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	// Content lists directories of content files.
	Content []string `yaml:"content,omitempty" json:"content,omitempty"`
}

// Load reads a configuration file. The format follows the extension:
// .cue files are checked against the embedded schema, anything else is
// strict YAML. Relative paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		err = decodeCUE(path, data, &cfg)
	} else {
		err = decodeYAML(data, &cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(err, "resolve config directory")
	}
	cfg.resolve(abs)
	return &cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return errors.Wrap(err, "parse YAML")
	}
	return nil
}

func decodeCUE(path string, data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return errors.Wrap(err, "compile config schema")
	}
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return errors.Wrap(err, "parse CUE")
	}
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return errors.WithHint(errors.Wrap(err, "config does not match schema"),
			"see the #Config definition in internal/config/schema.cue")
	}
	if err := unified.Decode(cfg); err != nil {
		return errors.Wrap(err, "decode CUE")
	}
	return nil
}

// resolve anchors relative paths at dir.
func (c *Config) resolve(dir string) {
	c.Root = dir
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i, s := range c.Sources {
		c.Sources[i] = abs(s)
	}
	for _, list := range [][]string{c.Templates, c.Scripts.Sources, c.Scripts.Content} {
		for i, s := range list {
			list[i] = abs(s)
		}
	}
	c.Output.Gen = abs(c.Output.Gen)
	c.Output.Script = abs(c.Output.Script)
	c.Output.Doc = abs(c.Output.Doc)
	c.Ledger = abs(c.Ledger)
}

// Merge overlays the values set in o. Lists replace lists, maps merge per
// side, and targets are enabled when either side enables them.
func (c *Config) Merge(o Config) {
	replace := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	replace(&c.Sources, o.Sources)
	replace(&c.Exclude, o.Exclude)
	replace(&c.Priority, o.Priority)
	replace(&c.Templates, o.Templates)
	replace(&c.Sides, o.Sides)
	replace(&c.Managed.Assemblies, o.Managed.Assemblies)
	replace(&c.Scripts.Sources, o.Scripts.Sources)
	replace(&c.Scripts.Content, o.Scripts.Content)
	set(&c.Output.Gen, o.Output.Gen)
	set(&c.Output.Script, o.Output.Script)
	set(&c.Output.Doc, o.Output.Doc)
	set(&c.Build.Version, o.Build.Version)
	set(&c.Build.Hash, o.Build.Hash)
	set(&c.Build.GameName, o.Build.GameName)
	set(&c.Ledger, o.Ledger)
	set(&c.Root, o.Root)

	c.Targets.Native = c.Targets.Native || o.Targets.Native
	c.Targets.Script = c.Targets.Script || o.Targets.Script
	c.Targets.Managed = c.Targets.Managed || o.Targets.Managed
	c.Targets.Docs = c.Targets.Docs || o.Targets.Docs

	c.Managed.References = mergeSides(c.Managed.References, o.Managed.References)
	c.Managed.Sources = mergeSides(c.Managed.Sources, o.Managed.Sources)
}

func mergeSides(dst, src map[string][]string) map[string][]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string][]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Validate checks that the configuration can drive a run. Every problem is
// reported, joined into one error.
func (c *Config) Validate() error {
	errs := c.inputProblems()
	if c.Output.Gen == "" {
		errs = append(errs, errors.New("generated-source output directory is required (--gen-output)"))
	}
	targets := c.EffectiveTargets()
	if targets.Managed && c.Output.Script == "" {
		errs = append(errs, errors.New("managed target needs a script output directory (--script-output)"))
	}
	if targets.Script && c.Output.Script == "" && (len(c.Scripts.Sources) > 0 || len(c.Scripts.Content) > 0) {
		errs = append(errs, errors.New("script root modules need a script output directory (--script-output)"))
	}
	if targets.Docs && c.Output.Doc == "" {
		errs = append(errs, errors.New("docs target needs a doc output directory (--doc-output)"))
	}

	seen := make(map[string]bool)
	for _, s := range c.Sides {
		if err := checkSide(s); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[s] {
			errs = append(errs, errors.Newf("side %s listed twice", s))
		}
		seen[s] = true
	}
	errs = append(errs, c.assemblyProblems()...)
	return errors.Join(errs...)
}

// assemblyProblems checks assembly names and that every reference and
// source entry names a configured assembly.
func (c *Config) assemblyProblems() []error {
	var errs []error
	assemblies := c.Managed.Assemblies
	if len(assemblies) == 0 {
		assemblies = []string{gen.DefaultAssembly}
	}
	known := make(map[string]bool, len(assemblies))
	for _, a := range assemblies {
		switch {
		case a == "" || strings.ContainsAny(a, `,/\`):
			errs = append(errs, errors.Newf("bad assembly name %q", a))
		case known[a]:
			errs = append(errs, errors.Newf("assembly %s listed twice", a))
		}
		known[a] = true
	}
	for _, m := range []map[string][]string{c.Managed.References, c.Managed.Sources} {
		for s, items := range m {
			if err := checkSide(s); err != nil {
				errs = append(errs, err)
				continue
			}
			for _, raw := range items {
				item := gen.ParseAssemblyItem(raw, assemblies)
				if !known[item.Assembly] {
					errs = append(errs, errors.WithHint(
						errors.Newf("%s entry %q names unknown assembly %s", s, raw, item.Assembly),
						"list it with --assembly or under managed.assemblies"))
				}
				if item.Path == "" {
					errs = append(errs, errors.Newf("%s entry %q has no path", s, raw))
				}
			}
		}
	}
	return errs
}

// ValidateInputs checks only what reading the sources needs, for commands
// that never write outputs.
func (c *Config) ValidateInputs() error {
	return errors.Join(c.inputProblems()...)
}

func (c *Config) inputProblems() []error {
	if len(c.Sources) == 0 {
		return []error{errors.WithHint(errors.New("no sources configured"),
			"pass --source or list sources in the config file")}
	}
	return nil
}

func checkSide(s string) error {
	side, ok := ir.ParseSide(s)
	if !ok || side == ir.SideCommon {
		return errors.Newf("unknown output side %q (want Server, Client or Mapper)", s)
	}
	return nil
}

// EffectiveTargets returns the selected targets; with none selected every
// target runs.
func (c *Config) EffectiveTargets() Targets {
	if c.Targets.Any() {
		return c.Targets
	}
	return Targets{Native: true, Script: true, Managed: true, Docs: true}
}

// Options converts a validated configuration into generator options.
func (c *Config) Options() gen.Options {
	t := c.EffectiveTargets()
	opts := gen.Options{
		GenOutput:     c.Output.Gen,
		ScriptOutput:  c.Output.Script,
		DocOutput:     c.Output.Doc,
		Native:        t.Native,
		Script:        t.Script,
		Managed:       t.Managed,
		Docs:          t.Docs,
		Version:       c.Build.Version,
		BuildHash:     c.Build.Hash,
		GameName:      c.Build.GameName,
		Assemblies:    c.Managed.Assemblies,
		References:    c.bySide(c.Managed.References),
		Sources:       c.bySide(c.Managed.Sources),
		ScriptSources: c.Scripts.Sources,
		ContentDirs:   c.Scripts.Content,
	}
	for _, s := range c.Sides {
		opts.Sides = append(opts.Sides, ir.Side(s))
	}
	return opts
}

func (c *Config) bySide(m map[string][]string) map[ir.Side][]gen.AssemblyItem {
	if len(m) == 0 {
		return nil
	}
	out := make(map[ir.Side][]gen.AssemblyItem, len(m))
	for k, items := range m {
		for _, raw := range items {
			out[ir.Side(k)] = append(out[ir.Side(k)], gen.ParseAssemblyItem(raw, c.Managed.Assemblies))
		}
	}
	return out
}

// SkipDirs lists the output directories, which are never scanned.
func (c *Config) SkipDirs() []string {
	var out []string
	for _, d := range []string{c.Output.Gen, c.Output.Script, c.Output.Doc} {
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
