package tripm

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/bbopt/nomad-sub001/qmodel"
)

func acceptableStatus(s qmodel.Status) bool {
	return s == qmodel.Solved || s == qmodel.MaxIterReached || s == qmodel.Stagnation
}

func TestSingleQuadraticInequality(tst *testing.T) {

	//verbose()
	chk.PrintTitle("single quadratic inequality, linear objective")

	// min x1+x2  s.t.  x1^2+x2^2-1<=0, box [-2,2]^2
	q := &qmodel.QCQP{
		N: 2,
		Rows: []qmodel.Row{
			{Const: 0, Lin: []float64{1, 1}},
			{Const: -1, Lin: []float64{0, 0}, Quad: [][]float64{{2, 0}, {0, 2}}},
		},
	}
	l := []float64{-2, -2}
	u := []float64{2, 2}
	x0 := []float64{0.1, 0.1}

	p := DefaultParams()
	x, status := Solve(q, l, u, x0, p)
	if !acceptableStatus(status) {
		tst.Errorf("test failed: status=%v\n", status)
	}
	c := q.EvalCons(x)
	if c[0] > 0.1 {
		tst.Errorf("test failed: constraint substantially violated, c=%v\n", c[0])
	}
	chk.Scalar(tst, "x1", 0.15, x[0], -0.70710678)
	chk.Scalar(tst, "x2", 0.15, x[1], -0.70710678)
}

func TestUnconstrainedReturnsImmediately(tst *testing.T) {

	//verbose()
	chk.PrintTitle("no constraints returns the clipped start point")

	q := &qmodel.QCQP{N: 2, Rows: []qmodel.Row{{Const: 0, Lin: []float64{1, -1}}}}
	l := []float64{-5, -5}
	u := []float64{5, 5}
	x0 := []float64{1, 2}

	x, status := Solve(q, l, u, x0, DefaultParams())
	if status != qmodel.Solved {
		tst.Errorf("test failed: status=%v\n", status)
	}
	chk.Vector(tst, "x", 1e-9, x, x0)
}

func TestDimensionAndBoundsErrors(tst *testing.T) {

	//verbose()
	chk.PrintTitle("dimension and bounds validation")

	q := &qmodel.QCQP{N: 2, Rows: []qmodel.Row{{Const: 0, Lin: []float64{0, 0}}}}

	_, status := Solve(q, []float64{0, 0, 0}, []float64{1, 1}, []float64{0, 0}, DefaultParams())
	if status != qmodel.DimensionError {
		tst.Errorf("test failed: expected DimensionError, got %v\n", status)
	}

	_, status = Solve(q, []float64{1, 0}, []float64{0, 1}, []float64{0, 0}, DefaultParams())
	if status != qmodel.BoundsError {
		tst.Errorf("test failed: expected BoundsError, got %v\n", status)
	}
}

func TestStrictInteriorMaintained(tst *testing.T) {

	//verbose()
	chk.PrintTitle("iterate stays strictly inside the box")

	q := &qmodel.QCQP{
		N: 2,
		Rows: []qmodel.Row{
			{Const: 0, Lin: []float64{0, 0}, Quad: [][]float64{{2, 0}, {0, 2}}},
			{Const: 2, Lin: []float64{-1, -1}},
		},
	}
	l := []float64{0, 0}
	u := []float64{5, 5}
	x0 := []float64{0.5, 0.5}

	x, status := Solve(q, l, u, x0, DefaultParams())
	if !acceptableStatus(status) {
		tst.Errorf("test failed: status=%v\n", status)
	}
	for i := range x {
		if x[i] <= l[i] || x[i] >= u[i] {
			tst.Errorf("test failed: x[%d]=%v not strictly inside (%v,%v)\n", i, x[i], l[i], u[i])
		}
	}
}
