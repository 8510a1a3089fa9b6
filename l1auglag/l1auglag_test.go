package l1auglag

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/bbopt/nomad-sub001/qmodel"
)

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
	x0 := []float64{0, 0}

	p := DefaultParams()
	x, status := Solve(q, l, u, x0, p)
	if status != qmodel.Solved && status != qmodel.MaxIterReached {
		tst.Errorf("test failed: status=%v\n", status)
	}
	c := q.EvalCons(x)
	if c[0] > 1e-2 {
		tst.Errorf("test failed: constraint violated, c=%v\n", c[0])
	}
	chk.Scalar(tst, "x1", 5e-2, x[0], -0.70710678)
	chk.Scalar(tst, "x2", 5e-2, x[1], -0.70710678)
}

func TestNoConstraintsReturnsImmediately(tst *testing.T) {

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
	chk.Vector(tst, "x", 1e-12, x, x0)
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
