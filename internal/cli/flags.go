package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/config"
	"github.com/roach88/apigen/internal/ir"
)

// sourceFlags are the inputs shared by every command that reads sources.
type sourceFlags struct {
	configPath string
	cfg        config.Config
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML or CUE config file")
	fs.StringArrayVarP(&f.cfg.Sources, "source", "s", nil, "source file, glob or directory (repeatable)")
	fs.StringArrayVar(&f.cfg.Templates, "template", nil, "template file or glob (repeatable)")
	fs.StringSliceVar(&f.cfg.Priority, "priority", nil, "files scanned first, in order")
	fs.StringArrayVar(&f.cfg.Exclude, "exclude", nil, "gitignore-style pattern of files to skip (repeatable)")
}

// load reads the config file, if any, and applies the flags over it.
func (f *sourceFlags) load(overrides config.Config) (*config.Config, error) {
	cfg := &config.Config{}
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	overrides.Sources = f.cfg.Sources
	overrides.Templates = f.cfg.Templates
	overrides.Priority = f.cfg.Priority
	overrides.Exclude = f.cfg.Exclude
	cfg.Merge(overrides)
	return cfg, nil
}

// generateFlags adds output selection and build metadata.
type generateFlags struct {
	sourceFlags
	refs    map[ir.Side]*[]string
	sources map[ir.Side]*[]string
}

func (f *generateFlags) bind(cmd *cobra.Command) {
	f.sourceFlags.bind(cmd)
	fs := cmd.Flags()
	c := &f.cfg
	fs.StringVar(&c.Output.Gen, "gen-output", "", "directory for native and VM sources")
	fs.StringVar(&c.Output.Script, "script-output", "", "directory for managed sources and projects")
	fs.StringVar(&c.Output.Doc, "doc-output", "", "directory for the API reference")
	fs.BoolVar(&c.Targets.Native, "native", false, "generate native registration")
	fs.BoolVar(&c.Targets.Script, "script", false, "generate script VM bindings")
	fs.BoolVar(&c.Targets.Managed, "managed", false, "generate managed glue and projects")
	fs.BoolVar(&c.Targets.Docs, "docs", false, "generate the API reference")
	fs.StringArrayVar(&c.Sides, "side", nil, "output side: Server, Client or Mapper (repeatable)")
	fs.StringVar(&c.Build.Version, "version", "", "game version embedded in the version header")
	fs.StringVar(&c.Build.Hash, "build-hash", "", "build hash embedded in the version header")
	fs.StringVar(&c.Build.GameName, "game-name", "", "game name embedded in the version header")
	fs.StringArrayVar(&c.Managed.Assemblies, "assembly", nil, "managed assembly base name, primary first (repeatable)")
	fs.StringArrayVar(&c.Scripts.Sources, "as-source", nil, "script module included by the root modules (repeatable)")
	fs.StringArrayVar(&c.Scripts.Content, "content", nil, "content directory published in Content.fos (repeatable)")
	fs.StringVar(&c.Ledger, "ledger", "", "SQLite file recording every generation")

	f.refs = make(map[ir.Side]*[]string)
	f.sources = make(map[ir.Side]*[]string)
	for _, side := range ir.OutputSides {
		name := strings.ToLower(string(side))
		refs, srcs := new([]string), new([]string)
		fs.StringArrayVar(refs, name+"-ref", nil, "[assembly,]reference of the "+name+" projects (repeatable)")
		fs.StringArrayVar(srcs, name+"-source", nil, "[assembly,]extra source of the "+name+" projects (repeatable)")
		f.refs[side] = refs
		f.sources[side] = srcs
	}
}

func (f *generateFlags) load() (*config.Config, error) {
	overrides := f.cfg
	overrides.Managed.References = collectSides(f.refs)
	overrides.Managed.Sources = collectSides(f.sources)
	return f.sourceFlags.load(overrides)
}

func collectSides(m map[ir.Side]*[]string) map[string][]string {
	out := make(map[string][]string)
	for side, v := range m {
		if len(*v) > 0 {
			out[string(side)] = *v
		}
	}
	return out
}
