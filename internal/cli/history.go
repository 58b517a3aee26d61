package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/config"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/ledger"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		configPath string
		path       string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List generations recorded in the ledger",
		Long: `Print the generations recorded in the fingerprint ledger, newest first.
A fingerprint change between rows means the scripting surface changed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			if path == "" && configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return commandError(formatter, ErrCodeConfig, err)
				}
				path = cfg.Ledger
			}
			if path == "" {
				return commandError(formatter, ErrCodeConfig, errors.WithHint(
					errors.New("no ledger configured"), "pass --ledger or set ledger in the config file"))
			}

			l, err := ledger.Open(path)
			if err != nil {
				return commandError(formatter, ErrCodeLedger, err)
			}
			defer l.Close()

			entries, err := l.History(cmd.Context(), limit)
			if err != nil {
				return commandError(formatter, ErrCodeLedger, err)
			}
			return formatter.Success(entries, historyTable(entries))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file naming the ledger")
	cmd.Flags().StringVar(&path, "ledger", "", "ledger SQLite file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of generations to show (0 for all)")
	return cmd
}

func historyTable(entries []ledger.Entry) string {
	if len(entries) == 0 {
		return "No generations recorded"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tFINGERPRINT\tVERSION\tBUILD\tWRITTEN")
	for i, e := range entries {
		fp := ir.ShortFingerprint(e.Fingerprint)
		if i+1 < len(entries) && entries[i+1].Fingerprint != e.Fingerprint {
			fp += " *"
		}
		written := 0
		for _, o := range e.Outputs {
			if o.Written {
				written++
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d/%d\n", e.Seq, fp, dash(e.Version), dash(e.BuildHash), written, len(e.Outputs))
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
