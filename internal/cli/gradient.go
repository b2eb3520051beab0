package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/theapemachine/qgrad"
	"github.com/theapemachine/qgrad/estimator"
	"github.com/theapemachine/qgrad/manifest"
	"github.com/theapemachine/qgrad/pool"
)

type GradientOptions struct {
	File    string
	Dump    bool
	Metrics bool
}

// NewGradientCommand creates the gradient command.
func NewGradientCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GradientOptions{}

	cmd := &cobra.Command{
		Use:   "gradient -f <problem.yaml>",
		Short: "Compute the gradients of a problem manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGradient(cmd.Context(), rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "problem manifest")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "dump the full result")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print worker pool metrics")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runGradient(ctx context.Context, rootOpts *RootOptions, opts *GradientOptions, out io.Writer) error {
	cfg, err := qgrad.LoadConfig(rootOpts.ConfigPath)
	if err != nil {
		return err
	}

	problem, err := loadProblem(opts.File)
	if err != nil {
		return err
	}

	p := pool.New(ctx, &cfg.Pool)
	defer p.Close()

	est := estimator.NewLocal(
		p,
		estimator.NewStatevector(cfg.Estimator),
		estimator.WithBreaker("statevector", 5, time.Second),
	)

	var gradOpts []qgrad.Option
	if cfg.Precision != nil {
		gradOpts = append(gradOpts, qgrad.WithPrecision(*cfg.Precision))
	}
	if problem.Transpiler != nil {
		gradOpts = append(gradOpts, qgrad.WithTranspiler(problem.Transpiler))
	}

	res, err := qgrad.NewParamShift(est, gradOpts...).Run(
		ctx,
		problem.Circuits,
		problem.Observables,
		problem.Values,
		problem.Parameters,
		problem.Precision,
	)
	if err != nil {
		return err
	}

	if err := writeResult(out, rootOpts.Format, problem, res); err != nil {
		return err
	}

	if opts.Dump {
		spew.Fdump(out, res)
	}

	if opts.Metrics {
		return writeMetrics(out, p)
	}
	return nil
}

func loadProblem(path string) (*manifest.Problem, error) {
	m, err := manifest.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return m.Build()
}

func writeMetrics(out io.Writer, p *pool.Pool) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(pool.NewCollector(p.Metrics())); err != nil {
		return err
	}

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(out, family); err != nil {
			return err
		}
	}
	return nil
}
