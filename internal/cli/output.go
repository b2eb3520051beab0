package cli

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/theapemachine/qgrad"
	"github.com/theapemachine/qgrad/manifest"
)

type gradientReport struct {
	Circuits           []circuitReport `yaml:"circuits"`
	BroadcastPrecision bool            `yaml:"broadcast_precision"`
}

type circuitReport struct {
	Name      string              `yaml:"name,omitempty"`
	Precision float64             `yaml:"precision"`
	Gradient  []parameterGradient `yaml:"gradient"`
}

type parameterGradient struct {
	Parameter string  `yaml:"parameter"`
	Value     float64 `yaml:"value"`
}

func newReport(problem *manifest.Problem, res *qgrad.Result) gradientReport {
	report := gradientReport{
		Circuits:           make([]circuitReport, len(res.Gradients)),
		BroadcastPrecision: res.Broadcast,
	}

	for i, grad := range res.Gradients {
		entry := circuitReport{
			Name:      problem.Circuits[i].Name,
			Precision: res.Precision[i],
			Gradient:  make([]parameterGradient, len(grad)),
		}
		for j, v := range grad {
			entry.Gradient[j] = parameterGradient{Parameter: res.Metadata[i].Parameters[j], Value: v}
		}
		report.Circuits[i] = entry
	}

	return report
}

func writeResult(out io.Writer, format string, problem *manifest.Problem, res *qgrad.Result) error {
	report := newReport(problem, res)

	if format == "yaml" {
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	}

	for i, c := range report.Circuits {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("circuit %d", i)
		}
		fmt.Fprintf(out, "%s (precision %g)\n", name, c.Precision)
		for _, g := range c.Gradient {
			fmt.Fprintf(out, "  d/d%s = %.6f\n", g.Parameter, g.Value)
		}
	}
	return nil
}
