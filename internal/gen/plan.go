// Package gen projects a built registry into target source files.
//
// Plan lists every file a run is expected to produce. Generators are pure
// functions of the registry and the type universe; they write into emit
// files and never touch the disk themselves. The same plan drives the
// placeholder stubs written when a run fails.
package gen

import (
	"path/filepath"
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

// Target is the kind of artifact an output holds.
type Target string

const (
	TargetNative  Target = "native"
	TargetScript  Target = "script"
	TargetManaged Target = "managed"
	TargetDocs    Target = "docs"
	TargetVersion Target = "version"
)

// Script root module names.
const (
	RootModuleSuffix = "RootModule.fos"
	ContentModule    = "Content.fos"
)

// Template kinds filled in by generators.
const (
	TemplateDataRegistration = "DataRegistration"
	TemplateAngelScript      = "AngelScript"
	TemplateMono             = "Mono"
)

// Options configures a run.
type Options struct {
	// GenOutput receives native and VM registration sources and the
	// version header.
	GenOutput string
	// ScriptOutput receives managed sources and project files.
	ScriptOutput string
	// DocOutput receives the API reference.
	DocOutput string

	Native  bool
	Script  bool
	Managed bool
	Docs    bool

	// Sides lists the output sides; empty means all of ir.OutputSides.
	Sides []ir.Side

	Version   string
	BuildHash string
	GameName  string

	// Assemblies names the managed projects of each side. The first one
	// compiles the generated source and names the solution; empty means
	// DefaultAssembly alone.
	Assemblies []string
	References map[ir.Side][]AssemblyItem
	Sources    map[ir.Side][]AssemblyItem

	// ScriptSources are script modules included by the root modules, and
	// ContentDirs hold the content files whose proto ids Content.fos
	// publishes. Root modules are planned only when either is set.
	ScriptSources []string
	ContentDirs   []string
}

// DefaultAssembly names managed projects when Options.Assemblies is empty.
const DefaultAssembly = "FOnline"

// AssemblyItem is a reference or source of one managed assembly.
type AssemblyItem struct {
	Assembly string
	Path     string
}

// ParseAssemblyItem reads "assembly,path". A bare path belongs to the
// primary assembly.
func ParseAssemblyItem(s string, assemblies []string) AssemblyItem {
	if name, path, ok := strings.Cut(s, ","); ok {
		return AssemblyItem{Assembly: strings.TrimSpace(name), Path: strings.TrimSpace(path)}
	}
	primary := DefaultAssembly
	if len(assemblies) > 0 {
		primary = assemblies[0]
	}
	return AssemblyItem{Assembly: primary, Path: strings.TrimSpace(s)}
}

// OutputSides returns the configured sides.
func (o Options) OutputSides() []ir.Side {
	if len(o.Sides) == 0 {
		return ir.OutputSides
	}
	return o.Sides
}

// AssemblyNames returns the managed assembly base names, primary first.
func (o Options) AssemblyNames() []string {
	if len(o.Assemblies) == 0 {
		return []string{DefaultAssembly}
	}
	return o.Assemblies
}

// generated reports whether name is one of the planned assemblies.
func (o Options) generated(name string) bool {
	for _, a := range o.AssemblyNames() {
		if a == name {
			return true
		}
	}
	return false
}

// RootModules reports whether script root modules are planned.
func (o Options) RootModules() bool {
	return o.Script && (len(o.ScriptSources) > 0 || len(o.ContentDirs) > 0)
}

// Output is one planned file.
type Output struct {
	Dir    string
	Name   string
	Target Target
	Side   ir.Side
	// Assembly is the managed assembly a project file builds.
	Assembly string
	// Template is the template kind the file is seeded from, if any.
	Template string
	// Compiler marks VM registration built for the offline script
	// compiler: native calls are replaced by throwing stubs.
	Compiler bool
}

// Path returns the output file path.
func (o Output) Path() string {
	return filepath.Join(o.Dir, o.Name)
}

// Ext returns the lower-case file extension.
func (o Output) Ext() string {
	return strings.ToLower(filepath.Ext(o.Name))
}

// Plan lists the outputs of a run in generation order. The version header
// is always produced.
func Plan(opts Options) []Output {
	var out []Output
	for _, side := range opts.OutputSides() {
		s := string(side)
		if opts.Native {
			out = append(out,
				Output{Dir: opts.GenOutput, Name: "DataRegistration-" + s + ".cpp", Target: TargetNative, Side: side, Template: TemplateDataRegistration},
				Output{Dir: opts.GenOutput, Name: "FOnline." + s + ".h", Target: TargetNative, Side: side},
			)
		}
		if opts.Script {
			out = append(out,
				Output{Dir: opts.GenOutput, Name: "AngelScriptScripting-" + s + ".cpp", Target: TargetScript, Side: side, Template: TemplateAngelScript},
				Output{Dir: opts.GenOutput, Name: "AngelScriptScripting-" + s + "Compiler.cpp", Target: TargetScript, Side: side, Template: TemplateAngelScript, Compiler: true},
			)
			if opts.RootModules() {
				out = append(out, Output{Dir: opts.ScriptOutput, Name: s + RootModuleSuffix, Target: TargetScript, Side: side})
			}
		}
		if opts.Managed {
			out = append(out,
				Output{Dir: opts.GenOutput, Name: "MonoScripting-" + s + ".cpp", Target: TargetManaged, Side: side, Template: TemplateMono},
				Output{Dir: opts.ScriptOutput, Name: "FOnline." + s + ".cs", Target: TargetManaged, Side: side},
			)
			for _, a := range opts.AssemblyNames() {
				out = append(out, Output{Dir: opts.ScriptOutput, Name: a + "." + s + ".csproj", Target: TargetManaged, Side: side, Assembly: a})
			}
		}
	}
	if opts.RootModules() {
		out = append(out, Output{Dir: opts.ScriptOutput, Name: ContentModule, Target: TargetScript})
	}
	if opts.Managed {
		out = append(out, Output{Dir: opts.ScriptOutput, Name: opts.AssemblyNames()[0] + ".sln", Target: TargetManaged})
	}
	if opts.Docs {
		out = append(out, Output{Dir: opts.DocOutput, Name: "ScriptApi.md", Target: TargetDocs})
	}
	out = append(out, Output{Dir: opts.GenOutput, Name: "Version-Include.h", Target: TargetVersion})
	return out
}

// Templates returns the template kinds the plan needs.
func Templates(outputs []Output) []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range outputs {
		if o.Template != "" && !seen[o.Template] {
			seen[o.Template] = true
			out = append(out, o.Template)
		}
	}
	return out
}
