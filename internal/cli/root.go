package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string
}

var ValidFormats = []string{"text", "yaml"}

// NewRootCommand creates the root command of the qgrad CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qgrad",
		Short: "Parameter-shift gradients of expectation values",
		Long: `qgrad computes gradients of expectation values of parameterized
circuits with the parameter-shift rule, evaluating all shifted circuits
as one batch on a local statevector estimator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (QGRAD_* environment variables override it)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|yaml)")

	cmd.AddCommand(NewGradientCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}
