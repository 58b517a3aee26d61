package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/pipeline"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	Files       int               `json:"files"`
	Entities    int               `json:"entities,omitempty"`
	Enums       int               `json:"enums,omitempty"`
	Properties  int               `json:"properties,omitempty"`
	Methods     int               `json:"methods,omitempty"`
	Events      int               `json:"events,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &sourceFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check tagged sources without writing outputs",
		Long: `Scan sources and build the scripting surface, reporting every parse and
semantic problem. Nothing is written, not even placeholders.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, flags, cmd)
		},
	}
	flags.bind(cmd)
	return cmd
}

func runValidate(opts *RootOptions, flags *sourceFlags, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	a, err := analyze(opts, flags, cmd, formatter)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: a.Diagnostics.Empty(), Files: len(a.Files)}
	if !result.Valid {
		result.Diagnostics = a.Diagnostics.Sorted()
		headline := fmt.Sprintf("Validation failed with %d problem(s)", len(result.Diagnostics))
		if err := formatter.Diagnostics(headline, result.Diagnostics, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Diagnostics)))
	}

	reg := a.Registry
	result.Entities = len(reg.Entities)
	result.Enums = len(reg.Enums)
	result.Properties = len(reg.Properties)
	result.Methods = len(reg.Methods)
	result.Events = len(reg.Events)
	return formatter.Success(result, fmt.Sprintf(
		"✓ Scripting surface valid: %d file(s), %d entities, %d enums, %d properties, %d methods, %d events",
		result.Files, result.Entities, result.Enums, result.Properties, result.Methods, result.Events))
}

// analyze loads the configuration and runs the read-only stages.
func analyze(opts *RootOptions, flags *sourceFlags, cmd *cobra.Command, formatter *OutputFormatter) (*pipeline.Analysis, error) {
	cfg, err := flags.load(flags.cfg)
	if err == nil {
		err = cfg.ValidateInputs()
	}
	if err != nil {
		return nil, commandError(formatter, ErrCodeConfig, err)
	}
	a, err := pipeline.New(cfg, opts.Logger()).Analyze(cmd.Context())
	if err != nil {
		return nil, commandError(formatter, ErrCodeInternal, err)
	}
	return a, nil
}
