// Package pipeline runs a generation end to end: collect and scan sources,
// build and validate the registry, fingerprint it, generate every planned
// output and flush the changed files.
//
// Diagnostics accumulate across stages. At each checkpoint a non-empty
// list aborts the run: every planned output is replaced by a placeholder
// and an *AbortError carrying the diagnostics is returned.
package pipeline

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/config"
	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/emit"
	"github.com/roach88/apigen/internal/gen"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/ledger"
	"github.com/roach88/apigen/internal/logging"
	"github.com/roach88/apigen/internal/scan"
	"github.com/roach88/apigen/internal/typesys"
)

// Stage names a checkpoint.
type Stage string

const (
	StageScan     Stage = "scan"
	StageBuild    Stage = "build"
	StageGenerate Stage = "generate"
	StageFlush    Stage = "flush"
)

// Analysis is the result of the read-only stages.
type Analysis struct {
	Files       []string
	Registry    *ir.Registry
	Types       *typesys.Universe
	Fingerprint string
	Diagnostics *diag.List
	// Scripts and Content are read only when root modules are planned.
	Scripts []ir.ScriptModule
	Content ir.Content
}

// Result summarises a successful run.
type Result struct {
	Fingerprint string
	Outputs     []gen.Output
	Written     []string
	Unchanged   []string
	// Previous is the ledger entry recorded before this run, if a ledger
	// is configured and not empty.
	Previous *ledger.Entry
	// Drifted is set when Previous carries a different fingerprint.
	Drifted bool
}

// Runner executes pipeline stages for one configuration.
type Runner struct {
	cfg  *config.Config
	opts gen.Options
	log  *zap.SugaredLogger
}

// New returns a runner. A nil logger discards output.
func New(cfg *config.Config, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{cfg: cfg, opts: cfg.Options(), log: log}
}

// Plan lists the outputs a run produces.
func (r *Runner) Plan() []gen.Output {
	return gen.Plan(r.opts)
}

// Analyze collects and scans the sources, builds and validates the
// registry and computes its fingerprint. It never writes files; problems
// are left in the returned diagnostics. The fingerprint is empty when the
// registry has problems.
func (r *Runner) Analyze(ctx context.Context) (*Analysis, error) {
	a := &Analysis{Diagnostics: &diag.List{}}

	collector := &scan.Collector{
		Patterns: append(append([]string(nil), r.cfg.Sources...), r.cfg.Templates...),
		Priority: r.cfg.Priority,
		Exclude:  r.cfg.Exclude,
		SkipDirs: r.cfg.SkipDirs(),
		Root:     r.cfg.Root,
	}
	files, err := collector.Collect()
	if err != nil {
		a.Diagnostics.IO("", diag.ErrCollectFailed, err)
		return a, nil
	}
	a.Files = files
	r.log.Debugw("collected sources", "files", len(files))

	var records []scan.Record
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		records = append(records, scan.ScanFile(f, a.Diagnostics)...)
	}
	r.log.Infow("scanned sources", "files", len(files), "tags", len(records))

	if r.opts.RootModules() {
		r.readScriptRoots(a)
	}

	a.Registry, a.Types = compiler.Build(records, a.Diagnostics)
	if a.Diagnostics.Empty() {
		for _, d := range compiler.Validate(a.Registry) {
			a.Diagnostics.Add(d)
		}
	}
	r.log.Infow("built registry",
		"entities", len(a.Registry.Entities),
		"enums", len(a.Registry.Enums),
		"properties", len(a.Registry.Properties),
		"methods", len(a.Registry.Methods),
		"events", len(a.Registry.Events))
	if !a.Diagnostics.Empty() {
		return a, nil
	}

	fp, err := ir.Fingerprint(a.Registry)
	if err != nil {
		return nil, errors.Wrap(err, "fingerprint registry")
	}
	a.Fingerprint = fp
	r.log.Debugw("fingerprinted registry", "fingerprint", fp)
	return a, nil
}

// readScriptRoots collects the script modules and content ids the root
// modules include.
func (r *Runner) readScriptRoots(a *Analysis) {
	if len(r.opts.ScriptSources) > 0 {
		collector := &scan.Collector{
			Patterns:   r.opts.ScriptSources,
			Extensions: scan.ScriptExtensions,
			Exclude:    r.cfg.Exclude,
			SkipDirs:   r.cfg.SkipDirs(),
			Root:       r.cfg.Root,
		}
		files, err := collector.Collect()
		if err != nil {
			a.Diagnostics.IO("", diag.ErrCollectFailed, err)
		} else {
			a.Scripts = scan.ReadScriptModules(files, a.Diagnostics)
		}
	}
	a.Content = scan.ReadContent(r.opts.ContentDirs, a.Diagnostics)
	r.log.Debugw("read script roots", "modules", len(a.Scripts), "content_kinds", len(a.Content))
}

// Run executes every stage. On diagnostics it writes placeholders and
// returns an *AbortError; other errors are internal failures.
func (r *Runner) Run(ctx context.Context) (res *Result, err error) {
	outputs := r.Plan()
	diags := &diag.List{}
	stage := StageScan

	defer func() {
		if p := recover(); p != nil {
			diags.Add(diag.Diagnostic{
				Kind:    diag.KindIO,
				Code:    diag.ErrGenerator,
				Message: fmt.Sprintf("internal error during %s: %v", stage, p),
			})
			res, err = nil, r.abort(stage, outputs, diags)
		}
	}()

	a, err := r.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	diags = a.Diagnostics
	if !diags.Empty() {
		if len(a.Files) == 0 {
			return nil, r.abort(StageScan, outputs, diags)
		}
		return nil, r.abort(StageBuild, outputs, diags)
	}

	stage = StageGenerate
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "generate")
	}
	em := emit.New()
	gen.Generate(&gen.Context{
		Reg:         a.Registry,
		Types:       a.Types,
		Opts:        r.opts,
		Fingerprint: a.Fingerprint,
		Scripts:     a.Scripts,
		Content:     a.Content,
	}, em, outputs, diags)
	if !diags.Empty() {
		return nil, r.abort(stage, outputs, diags)
	}

	stage = StageFlush
	flushed, ferr := em.Flush()
	for _, f := range flushed.Failed {
		diags.IO(f.Path, diag.ErrWriteFailed, f.Err)
	}
	if ferr != nil && len(flushed.Failed) == 0 {
		diags.IO("", diag.ErrWriteFailed, ferr)
	}
	if !diags.Empty() {
		return nil, r.abort(stage, outputs, diags)
	}
	r.log.Infow("generation complete",
		"fingerprint", ir.ShortFingerprint(a.Fingerprint),
		"written", len(flushed.Written),
		"unchanged", len(flushed.Unchanged))

	res = &Result{
		Fingerprint: a.Fingerprint,
		Outputs:     outputs,
		Written:     flushed.Written,
		Unchanged:   flushed.Unchanged,
	}
	if err := r.record(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

// record appends the run to the ledger, if one is configured.
func (r *Runner) record(ctx context.Context, res *Result) error {
	if r.cfg.Ledger == "" {
		return nil
	}
	l, err := ledger.Open(r.cfg.Ledger)
	if err != nil {
		return err
	}
	defer l.Close()

	entry := ledger.Entry{
		Fingerprint: res.Fingerprint,
		Version:     r.cfg.Build.Version,
		BuildHash:   r.cfg.Build.Hash,
	}
	written := make(map[string]bool, len(res.Written))
	for _, p := range res.Written {
		written[p] = true
	}
	for _, o := range res.Outputs {
		entry.Outputs = append(entry.Outputs, ledger.Output{Path: o.Path(), Written: written[o.Path()]})
	}

	prev, seq, err := l.Record(ctx, entry)
	if err != nil {
		return errors.Wrap(err, "record generation")
	}
	res.Previous = prev
	res.Drifted = ledger.Drifted(prev, res.Fingerprint)
	if res.Drifted {
		r.log.Warnw("scripting surface changed since last generation",
			"previous", ir.ShortFingerprint(prev.Fingerprint),
			"current", ir.ShortFingerprint(res.Fingerprint),
			"previous_seq", prev.Seq)
	}
	r.log.Debugw("recorded generation", "ledger", r.cfg.Ledger, "seq", seq)
	return nil
}

// abort writes a placeholder for every planned output and returns the
// diagnostics as an *AbortError.
func (r *Runner) abort(stage Stage, outputs []gen.Output, diags *diag.List) error {
	problems := diags.Sorted()
	r.log.Errorw("generation aborted", "stage", stage, "diagnostics", len(problems))

	em := emit.New()
	stubDiags := &diag.List{}
	gen.WriteStubs(em, r.opts, outputs, problems, stubDiags)
	flushed, _ := em.Flush()
	for _, f := range flushed.Failed {
		stubDiags.IO(f.Path, diag.ErrStubFailed, f.Err)
	}
	r.log.Infow("wrote placeholders", "written", len(flushed.Written), "unchanged", len(flushed.Unchanged))

	return &AbortError{
		Stage:       stage,
		Diagnostics: append(problems, stubDiags.Sorted()...),
		Stubs:       flushed,
	}
}
