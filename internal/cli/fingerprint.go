package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/ir"
)

// FingerprintResult is the JSON payload of the fingerprint command.
type FingerprintResult struct {
	Fingerprint   string `json:"fingerprint"`
	Compatibility string `json:"compatibility"`
}

// NewFingerprintCommand creates the fingerprint command.
func NewFingerprintCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &sourceFlags{}
	var short bool
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the compatibility fingerprint of the scripting surface",
		Long: `Build the scripting surface and print its SHA-256 fingerprint. Two builds
with the same fingerprint expose identical surfaces and may exchange
compiled scripts and saves.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			a, err := analyze(rootOpts, flags, cmd, formatter)
			if err != nil {
				return err
			}
			if !a.Diagnostics.Empty() {
				ds := a.Diagnostics.Sorted()
				headline := fmt.Sprintf("Cannot fingerprint: %d problem(s)", len(ds))
				if err := formatter.Diagnostics(headline, ds, ValidationResult{Files: len(a.Files), Diagnostics: ds}); err != nil {
					return err
				}
				return NewExitError(ExitFailure, "fingerprint failed")
			}

			result := FingerprintResult{
				Fingerprint:   a.Fingerprint,
				Compatibility: ir.ShortFingerprint(a.Fingerprint),
			}
			text := result.Fingerprint
			if short {
				text = result.Compatibility
			}
			return formatter.Success(result, text)
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&short, "short", false, "print only the compatibility prefix")
	return cmd
}
