package cli

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/pipeline"
)

// GenerateResult is the JSON payload of a successful generate.
type GenerateResult struct {
	Fingerprint string   `json:"fingerprint"`
	Written     []string `json:"written"`
	Unchanged   []string `json:"unchanged"`
	Previous    string   `json:"previous_fingerprint,omitempty"`
	Drifted     bool     `json:"drifted"`
}

// AbortReport is the JSON payload of a run that ended with placeholders.
type AbortReport struct {
	Stage        pipeline.Stage    `json:"stage"`
	Diagnostics  []diag.Diagnostic `json:"diagnostics"`
	Placeholders int               `json:"placeholders"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate every enabled output from tagged sources",
		Long: `Scan sources for ///@ tags, build the scripting surface and write the
outputs of every enabled target. Files whose content did not change are
left untouched.

With no target flag every target is generated. On any problem every
planned output is replaced by a placeholder and the command exits 1.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, flags, cmd)
		},
	}
	flags.bind(cmd)
	return cmd
}

func runGenerate(opts *RootOptions, flags *generateFlags, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := flags.load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return commandError(formatter, ErrCodeConfig, err)
	}

	res, err := pipeline.New(cfg, opts.Logger()).Run(cmd.Context())
	var abort *pipeline.AbortError
	if errors.As(err, &abort) {
		return reportAbort(formatter, abort)
	}
	if err != nil {
		return commandError(formatter, ErrCodeInternal, err)
	}

	out := GenerateResult{
		Fingerprint: res.Fingerprint,
		Written:     nonNil(res.Written),
		Unchanged:   nonNil(res.Unchanged),
		Drifted:     res.Drifted,
	}
	if res.Previous != nil {
		out.Previous = res.Previous.Fingerprint
	}

	var text strings.Builder
	fmt.Fprintf(&text, "✓ Generated %d file(s), %d unchanged (fingerprint %s)",
		len(res.Written), len(res.Unchanged), ir.ShortFingerprint(res.Fingerprint))
	if res.Drifted {
		fmt.Fprintf(&text, "\n! Scripting surface changed since %s", ir.ShortFingerprint(out.Previous))
	}
	return formatter.Success(out, text.String())
}

func reportAbort(formatter *OutputFormatter, abort *pipeline.AbortError) error {
	report := AbortReport{
		Stage:        abort.Stage,
		Diagnostics:  abort.Diagnostics,
		Placeholders: len(abort.Stubs.Written) + len(abort.Stubs.Unchanged),
	}
	headline := fmt.Sprintf("Generation failed at %s stage, %d placeholder(s) in place", abort.Stage, report.Placeholders)
	if err := formatter.Diagnostics(headline, abort.Diagnostics, report); err != nil {
		return err
	}
	return WrapExitError(ExitFailure, "generation failed", abort)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
