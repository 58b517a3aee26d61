package gen

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/emit"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/typesys"
)

// Context is the read-only input shared by every generator.
type Context struct {
	Reg         *ir.Registry
	Types       *typesys.Universe
	Opts        Options
	Fingerprint string
	// Scripts and Content feed the script root modules.
	Scripts []ir.ScriptModule
	Content ir.Content
}

// generator fills one output file.
type generator func(ctx *Context, out Output, f *emit.File) error

// Generate runs the generator of every output. A failing output is
// recorded in diags and the rest still run.
func Generate(ctx *Context, em *emit.Emitter, outputs []Output, diags *diag.List) {
	for _, out := range outputs {
		generateOne(ctx, em, out, diags)
	}
}

func generateOne(ctx *Context, em *emit.Emitter, out Output, diags *diag.List) {
	defer func() {
		if r := recover(); r != nil {
			diags.IO(out.Path(), diag.ErrGenerator, errors.Newf("generator panicked: %v", r))
		}
	}()

	g, err := generatorFor(out)
	if err != nil {
		diags.IO(out.Path(), diag.ErrGenerator, err)
		return
	}
	f, err := em.Create(out.Path())
	if err != nil {
		diags.IO(out.Path(), diag.ErrGenerator, err)
		return
	}
	if out.Template != "" {
		if err := loadTemplate(ctx.Reg, out, f); err != nil {
			code := diag.ErrReadFailed
			if errors.Is(err, errNoTemplate) {
				code = diag.ErrTemplateMissing
			}
			diags.IO(out.Path(), code, err)
			return
		}
	}
	if err := g(ctx, out, f); err != nil {
		diags.IO(out.Path(), diag.ErrGenerator, err)
	}
}

var errNoTemplate = errors.New("template not found")

// loadTemplate seeds f from the first scanned file of the output's
// template kind.
func loadTemplate(reg *ir.Registry, out Output, f *emit.File) error {
	markers := reg.MarkersFor(out.Template)
	if len(markers) == 0 {
		return errors.WithHint(
			errors.Wrapf(errNoTemplate, "no %s%s file with CodeGen markers", out.Template, "-Template"),
			"add the template to the scanned sources or pass it with --template",
		)
	}
	path := markers[0].Path
	var own []ir.TemplateMarker
	for _, m := range markers {
		if m.Path == path {
			own = append(own, m)
		}
	}
	return f.LoadTemplate(path, own)
}

func generatorFor(out Output) (generator, error) {
	switch out.Target {
	case TargetNative:
		switch out.Ext() {
		case ".cpp":
			return genDataRegistration, nil
		case ".h":
			return genNativeHeader, nil
		}
	case TargetScript:
		switch {
		case out.Ext() != ".fos":
			return genScriptRegistration, nil
		case out.Side == "":
			return genContent, nil
		default:
			return genRootModule, nil
		}
	case TargetManaged:
		switch out.Ext() {
		case ".cpp":
			return genMonoGlue, nil
		case ".cs":
			return genManagedSource, nil
		case ".csproj":
			return genProject, nil
		case ".sln":
			return genSolution, nil
		}
	case TargetDocs:
		return genDocs, nil
	case TargetVersion:
		return genVersion, nil
	}
	return nil, errors.Newf("no generator for %s output %s", out.Target, out.Name)
}

// block accumulates generated lines.
type block []string

func (b *block) line(lines ...string) {
	*b = append(*b, lines...)
}

func (b *block) linef(format string, args ...any) {
	*b = append(*b, fmt.Sprintf(format, args...))
}

// insert fills a template marker.
func insert(f *emit.File, entry string, b block) error {
	if !f.HasMarker(entry) {
		return errors.WithHint(
			errors.Newf("template for %s has no %q marker", f.Path, entry),
			"add a \"///@ CodeGen "+entry+"\" line to the template",
		)
	}
	return f.InsertAtMarker(entry, b...)
}

// header writes the banner every generated source starts with.
func header(b *block, comment, title string) {
	b.linef("%s %s", comment, title)
	b.linef("%s Generated by apigen, do not edit", comment)
	b.line("")
}

func quoteList(items []string) string {
	q := make([]string, len(items))
	for i, s := range items {
		q[i] = `"` + s + `"`
	}
	return strings.Join(q, ", ")
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
