package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"

	"github.com/theapemachine/qgrad"
)

const problemYAML = `
circuits:
  - name: rotation
    qubits: 1
    gates:
      - {gate: ry, qubits: [0], param: a}
    observable: Z
    values: [0.5]
`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	Convey("Given the root command", t, func() {
		cmd := NewRootCommand()

		Convey("It carries the subcommands and global flags", func() {
			So(cmd.Use, ShouldEqual, "qgrad")

			for _, name := range []string{"gradient", "validate"} {
				sub, _, err := cmd.Find([]string{name})
				So(err, ShouldBeNil)
				So(sub.Name(), ShouldEqual, name)
			}

			So(cmd.PersistentFlags().Lookup("config"), ShouldNotBeNil)
			So(cmd.PersistentFlags().Lookup("format").DefValue, ShouldEqual, "text")
		})

		Convey("An unknown format is rejected", func() {
			path := writeFile(t, "problem.yaml", problemYAML)
			_, err := execute("--format", "json", "validate", "-f", path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "invalid format")
		})
	})
}

func TestGradientCommand(t *testing.T) {
	Convey("Given a single rotation problem", t, func() {
		path := writeFile(t, "problem.yaml", problemYAML)

		Convey("The text output carries the analytic gradient", func() {
			out, err := execute("gradient", "-f", path)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "rotation (precision 0)")
			So(out, ShouldContainSubstring, "d/da = -0.479426")
		})

		Convey("The yaml output decodes into a report", func() {
			out, err := execute("--format", "yaml", "gradient", "-f", path)
			So(err, ShouldBeNil)

			var report gradientReport
			So(yaml.Unmarshal([]byte(out), &report), ShouldBeNil)
			So(report.BroadcastPrecision, ShouldBeTrue)
			So(report.Circuits, ShouldHaveLength, 1)
			So(report.Circuits[0].Gradient[0].Parameter, ShouldEqual, "a")
			So(report.Circuits[0].Gradient[0].Value, ShouldAlmostEqual, -0.479426, 1e-6)
		})

		Convey("Dump and metrics are appended on request", func() {
			out, err := execute("gradient", "-f", path, "--dump", "--metrics")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Gradients")
			So(out, ShouldContainSubstring, "qgrad_pool_tasks_total")
		})

		Convey("The config file sets the default precision", func() {
			config := writeFile(t, "qgrad.yaml", "precision: 0.25\nestimator:\n  seed: 11\n")
			out, err := execute("--config", config, "gradient", "-f", path)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "rotation (precision 0.25)")
		})
	})

	Convey("Given a problem with too few values", t, func() {
		path := writeFile(t, "problem.yaml", `
circuits:
  - qubits: 1
    gates: [{gate: ry, qubits: [0], param: a}]
    observable: Z
`)

		_, err := execute("gradient", "-f", path)
		So(errors.Is(err, qgrad.ErrInvalidInput), ShouldBeTrue)
	})

	Convey("Given no manifest flag", t, func() {
		_, err := execute("gradient")
		So(err, ShouldNotBeNil)
	})
}

func TestValidateCommand(t *testing.T) {
	Convey("Given a valid manifest", t, func() {
		out, err := execute("validate", "-f", writeFile(t, "problem.yaml", problemYAML))
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "manifest valid: 1 circuit(s)")
	})

	Convey("Given a manifest whose observable does not fit its circuit", t, func() {
		path := writeFile(t, "problem.yaml", `
circuits:
  - qubits: 1
    gates: [{gate: ry, qubits: [0], param: a}]
    observable: ZZ
    values: [0]
`)

		_, err := execute("validate", "-f", path)
		So(errors.Is(err, qgrad.ErrInvalidInput), ShouldBeTrue)
	})

	Convey("Given a missing manifest", t, func() {
		_, err := execute("validate", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
