package estimator

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/theapemachine/qgrad/circuit"
	"github.com/theapemachine/qgrad/observable"
)

const tolerance = 1e-9

func mustOp(label string) *observable.SparsePauliOp {
	op, err := observable.Parse(label)
	if err != nil {
		panic(err)
	}
	return op
}

func evaluate(c *circuit.Circuit, obs string, values ...[]float64) []float64 {
	sv := NewStatevector(StatevectorConfig{Seed: 1})
	if len(values) == 0 {
		values = [][]float64{{}}
	}

	res, err := sv.Evaluate(context.Background(), PUB{
		Circuit:         c,
		Observable:      mustOp(obs),
		ParameterValues: values,
	})
	So(err, ShouldBeNil)
	return res.Evs
}

func TestStatevectorExpectations(t *testing.T) {
	Convey("Given the statevector backend", t, func() {
		theta := 0.7

		Convey("ry and rx rotate <Z> by cos", func() {
			c := circuit.New(1).RY(circuit.Param("a"), 0)
			So(evaluate(c, "Z", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)
			So(evaluate(c, "X", []float64{theta})[0], ShouldAlmostEqual, math.Sin(theta), tolerance)

			r := circuit.New(1).RX(circuit.Param("a"), 0)
			So(evaluate(r, "Z", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)
			So(evaluate(r, "Y", []float64{theta})[0], ShouldAlmostEqual, -math.Sin(theta), tolerance)
		})

		Convey("Phase gates rotate <X> after a Hadamard", func() {
			p := circuit.New(1).H(0).P(circuit.Param("a"), 0)
			So(evaluate(p, "X", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)

			rz := circuit.New(1).H(0).RZ(circuit.Param("a"), 0)
			So(evaluate(rz, "X", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)

			s := circuit.New(1).H(0).S(0)
			So(evaluate(s, "Y")[0], ShouldAlmostEqual, 1, tolerance)

			td := circuit.New(1).H(0).T(0).Tdg(0).Sdg(0).S(0)
			So(evaluate(td, "X")[0], ShouldAlmostEqual, 1, tolerance)
		})

		Convey("A Bell pair is correlated", func() {
			bell := circuit.New(2).H(0).CX(0, 1)
			So(evaluate(bell, "ZZ")[0], ShouldAlmostEqual, 1, tolerance)
			So(evaluate(bell, "XX")[0], ShouldAlmostEqual, 1, tolerance)
			So(evaluate(bell, "YY")[0], ShouldAlmostEqual, -1, tolerance)
			So(evaluate(bell, "ZI")[0], ShouldAlmostEqual, 0, tolerance)
		})

		Convey("Pauli gates flip and phase", func() {
			So(evaluate(circuit.New(1).X(0), "Z")[0], ShouldAlmostEqual, -1, tolerance)
			So(evaluate(circuit.New(1).Y(0), "Z")[0], ShouldAlmostEqual, -1, tolerance)
			So(evaluate(circuit.New(1).H(0).Z(0), "X")[0], ShouldAlmostEqual, -1, tolerance)
			So(evaluate(circuit.New(2).X(0).CY(0, 1), "ZI")[0], ShouldAlmostEqual, -1, tolerance)
			So(evaluate(circuit.New(2).X(0).X(1).CZ(0, 1).H(1), "XI")[0], ShouldAlmostEqual, -1, tolerance)
		})

		Convey("Two-qubit rotations follow exp(-i a/2 P)", func() {
			rxx := circuit.New(2).RXX(circuit.Param("a"), 0, 1)
			So(evaluate(rxx, "ZI", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)
			So(evaluate(rxx, "ZZ", []float64{theta})[0], ShouldAlmostEqual, 1, tolerance)

			ryy := circuit.New(2).RYY(circuit.Param("a"), 0, 1)
			So(evaluate(ryy, "IZ", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)

			rzz := circuit.New(2).H(0).RZZ(circuit.Param("a"), 0, 1)
			So(evaluate(rzz, "IX", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)

			// Z on qubit 0 with it in |0> leaves an X rotation of qubit 1.
			rzx := circuit.New(2).RZX(circuit.Param("a"), 0, 1)
			So(evaluate(rzx, "ZI", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)
		})

		Convey("crz only acts when the control is set", func() {
			off := circuit.New(2).H(1).CRZ(circuit.Param("a"), 0, 1)
			So(evaluate(off, "XI", []float64{theta})[0], ShouldAlmostEqual, 1, tolerance)

			on := circuit.New(2).X(0).H(1).CRZ(circuit.Param("a"), 0, 1)
			So(evaluate(on, "XI", []float64{theta})[0], ShouldAlmostEqual, math.Cos(theta), tolerance)
		})

		Convey("Every assignment gets its own value", func() {
			c := circuit.New(1).RY(circuit.Param("a"), 0)
			evs := evaluate(c, "Z", []float64{0}, []float64{math.Pi}, []float64{math.Pi / 2})
			So(evs, ShouldHaveLength, 3)
			So(evs[0], ShouldAlmostEqual, 1, tolerance)
			So(evs[1], ShouldAlmostEqual, -1, tolerance)
			So(evs[2], ShouldAlmostEqual, 0, tolerance)
		})

		Convey("Weighted sums are linear", func() {
			c := circuit.New(2).X(0)
			So(evaluate(c, "2*IZ - 0.5*ZI")[0], ShouldAlmostEqual, -2.5, tolerance)
		})
	})
}

func TestStatevectorPrecision(t *testing.T) {
	Convey("Given a statevector backend with a default precision", t, func() {
		sv := NewStatevector(StatevectorConfig{DefaultPrecision: 0.01, Seed: 42})
		c := circuit.New(1).RY(circuit.Param("a"), 0)

		Convey("Unset precision reports the default", func() {
			res, err := sv.Evaluate(context.Background(), PUB{
				Circuit:         c,
				Observable:      mustOp("Z"),
				ParameterValues: [][]float64{{0.3}},
			})
			So(err, ShouldBeNil)
			So(res.Metadata.TargetPrecision, ShouldEqual, 0.01)
			So(res.Stds[0], ShouldEqual, 0.01)
			So(res.Evs[0], ShouldAlmostEqual, math.Cos(0.3), 0.1)
		})

		Convey("A requested precision of zero is exact", func() {
			zero := 0.0
			res, err := sv.Evaluate(context.Background(), PUB{
				Circuit:         c,
				Observable:      mustOp("Z"),
				ParameterValues: [][]float64{{0.3}},
				Precision:       &zero,
			})
			So(err, ShouldBeNil)
			So(res.Metadata.TargetPrecision, ShouldEqual, 0.0)
			So(res.Evs[0], ShouldAlmostEqual, math.Cos(0.3), tolerance)
		})

		Convey("The same seed reproduces the noise", func() {
			pub := PUB{Circuit: c, Observable: mustOp("Z"), ParameterValues: [][]float64{{0.3}}}

			a, err := NewStatevector(StatevectorConfig{DefaultPrecision: 0.05, Seed: 7}).Evaluate(context.Background(), pub)
			So(err, ShouldBeNil)
			b, err := NewStatevector(StatevectorConfig{DefaultPrecision: 0.05, Seed: 7}).Evaluate(context.Background(), pub)
			So(err, ShouldBeNil)
			So(a.Evs, ShouldResemble, b.Evs)
		})
	})
}

func TestStatevectorValidation(t *testing.T) {
	Convey("Given invalid PUBs", t, func() {
		sv := NewStatevector(StatevectorConfig{Seed: 1})
		c := circuit.New(1).RY(circuit.Param("a"), 0)

		Convey("Qubit counts must agree", func() {
			_, err := sv.Evaluate(context.Background(), PUB{Circuit: c, Observable: mustOp("ZZ"), ParameterValues: [][]float64{{1}}})
			So(errors.Is(err, ErrInvalidPUB), ShouldBeTrue)
		})

		Convey("Assignments must bind every parameter", func() {
			_, err := sv.Evaluate(context.Background(), PUB{Circuit: c, Observable: mustOp("Z"), ParameterValues: [][]float64{{1, 2}}})
			So(errors.Is(err, ErrInvalidPUB), ShouldBeTrue)
		})

		Convey("Negative precision is rejected", func() {
			neg := -1.0
			_, err := sv.Evaluate(context.Background(), PUB{Circuit: c, Observable: mustOp("Z"), Precision: &neg})
			So(errors.Is(err, ErrInvalidPUB), ShouldBeTrue)
		})

		Convey("Run reports the failure through the job", func() {
			job, err := sv.Run(context.Background(), []PUB{{Circuit: c}})
			So(err, ShouldBeNil)
			_, err = job.Result(context.Background())
			So(errors.Is(err, ErrInvalidPUB), ShouldBeTrue)
		})
	})
}
