package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theapemachine/qgrad"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate -f <problem.yaml>",
		Short: "Check a problem manifest without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			problem, err := loadProblem(file)
			if err != nil {
				return err
			}

			err = qgrad.Validate(
				problem.Circuits,
				problem.Observables,
				problem.Values,
				problem.Parameters,
				problem.Precision,
			)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "manifest valid: %d circuit(s)\n", len(problem.Circuits))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "problem manifest")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
