package qgrad

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/theapemachine/qgrad/circuit"
)

func TestGradientCircuit(t *testing.T) {
	Convey("Given a circuit with repeated, scaled and unsupported gates", t, func() {
		c := circuit.New(2).
			S(0).
			RX(circuit.Param("a"), 0).
			CRZ(circuit.Linear("b", 2, 0), 0, 1).
			RY(circuit.Linear("a", -1, 0.5), 1)

		gc, err := newGradientCircuit(c)
		So(err, ShouldBeNil)

		Convey("Unsupported gates are unrolled into supported ones", func() {
			names := make([]string, 0)
			for _, g := range gc.circuit.Gates() {
				names = append(names, g.Name)
			}
			So(names, ShouldResemble, []string{"p", "rx", "rz", "cx", "rz", "cx", "ry"})
			So(gc.circuit.Gates()[0].Angle.Eval(0), ShouldEqual, math.Pi/2)
		})

		Convey("Every parameter occurrence gets its own gradient parameter", func() {
			So(gc.circuit.Parameters(), ShouldResemble, []string{"_g[0]", "_g[1]", "_g[2]", "_g[3]"})
			So(gc.occurrences, ShouldResemble, []occurrence{
				{param: "a", coeff: 1},
				{param: "b", coeff: 1},
				{param: "b", coeff: -1},
				{param: "a", coeff: -1, offset: 0.5},
			})
		})

		Convey("Source values map onto gradient parameters", func() {
			values := gc.values([]float64{0.2, 0.3})
			So(values["_g[0]"], ShouldAlmostEqual, 0.2)
			So(values["_g[1]"], ShouldAlmostEqual, 0.3)
			So(values["_g[2]"], ShouldAlmostEqual, -0.3)
			So(values["_g[3]"], ShouldAlmostEqual, 0.3)
		})

		Convey("A selection keeps only the matching occurrences", func() {
			So(gc.selected([]string{"a"}), ShouldResemble, []int{0, 3})
			So(gc.selected([]string{"b"}), ShouldResemble, []int{1, 2})
			So(gc.selected(nil), ShouldBeEmpty)
		})

		Convey("The chain rule weighs occurrences by their coefficient", func() {
			grad := gc.chain([]float64{1, 2, 3, 4}, []int{0, 1, 2, 3}, []string{"a", "b"})
			So(grad, ShouldResemble, []float64{1 - 4, 2 - 3})
		})

		Convey("Shifted rows move one gradient parameter at a time", func() {
			rows, err := gc.shiftedValues(gc.circuit, []float64{0.2, 0.3}, []int{1})
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0][1], ShouldAlmostEqual, 0.3+math.Pi/2)
			So(rows[1][1], ShouldAlmostEqual, 0.3-math.Pi/2)
			So(rows[0][0], ShouldAlmostEqual, 0.2)
			So(rows[1][2], ShouldAlmostEqual, -0.3)
		})

		Convey("A circuit missing a gradient parameter is rejected", func() {
			_, err := gc.shiftedValues(circuit.New(2), []float64{0.2, 0.3}, []int{0})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a gate outside the shiftable set", t, func() {
		saved := supported["cy"]
		supported["cy"] = false

		Reset(func() {
			supported["cy"] = saved
		})

		_, err := newGradientCircuit(circuit.New(2).CY(0, 1))
		So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
	})
}
