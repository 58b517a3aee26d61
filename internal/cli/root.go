package cli

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/apigen/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose int
	Format  string // "json" | "text"
	LogJSON bool

	logger *zap.SugaredLogger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Logger returns the logger built for the running command.
func (o *RootOptions) Logger() *zap.SugaredLogger {
	if o.logger == nil {
		return logging.Nop()
	}
	return o.logger
}

// NewRootCommand creates the root command for the apigen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "apigen",
		Short: "apigen - scripting interface compiler",
		Long: `Compile ///@ tags found in engine sources into native registration code,
script VM bindings, managed glue and API documentation.

Every run either produces all planned outputs or, when any problem is found,
replaces them with placeholders and exits non-zero.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					errors.Newf("invalid format %q: must be one of %v", opts.Format, ValidFormats).Error())
			}
			opts.logger = logging.New(cmd.ErrOrStderr(), opts.Verbose, opts.LogJSON)
			return nil
		},
	}

	cmd.PersistentFlags().CountVarP(&opts.Verbose, "verbose", "v", "log progress (-v) or debug detail (-vv)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "write logs as JSON lines")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewFingerprintCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}
