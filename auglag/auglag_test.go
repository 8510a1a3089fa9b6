package auglag

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/bbopt/nomad-sub001/qmodel"
)

func TestSingleQuadraticInequality(tst *testing.T) {

	//verbose()
	chk.PrintTitle("single quadratic inequality constraint")

	// min (x1-2)^2+(x2-2)^2  s.t.  x1^2+x2^2-1<=0, box [-5,5]^2
	// optimum on the unit circle along the direction (1,1)/sqrt(2).
	q := &qmodel.QCQP{
		N: 2,
		Rows: []qmodel.Row{
			{Const: 8, Lin: []float64{-4, -4}, Quad: [][]float64{{2, 0}, {0, 2}}},
			{Const: -1, Lin: []float64{0, 0}, Quad: [][]float64{{2, 0}, {0, 2}}},
		},
	}
	l := []float64{-5, -5}
	u := []float64{5, 5}
	x0 := []float64{0, 0}

	p := DefaultParams()
	x, status := Solve(q, l, u, x0, p)
	if status != qmodel.Solved && status != qmodel.MaxIterReached {
		tst.Errorf("test failed: status=%v\n", status)
	}
	r := x[0]*x[0] + x[1]*x[1]
	if r > 1.05 {
		tst.Errorf("test failed: constraint violated, ||x||^2=%v\n", r)
	}
	chk.Scalar(tst, "x1", 2e-2, x[0], 0.70710678)
	chk.Scalar(tst, "x2", 2e-2, x[1], 0.70710678)
}

func TestInfeasibleStartFeasibleProblem(tst *testing.T) {

	//verbose()
	chk.PrintTitle("infeasible start, feasible problem")

	// min x1^2+x2^2  s.t.  2-x1-x2<=0 (i.e. x1+x2>=2), box [0,5]^2
	// optimum at (1,1). Start deep in the infeasible region (0,0).
	q := &qmodel.QCQP{
		N: 2,
		Rows: []qmodel.Row{
			{Const: 0, Lin: []float64{0, 0}, Quad: [][]float64{{2, 0}, {0, 2}}},
			{Const: 2, Lin: []float64{-1, -1}},
		},
	}
	l := []float64{0, 0}
	u := []float64{5, 5}
	x0 := []float64{0, 0}

	p := DefaultParams()
	x, status := Solve(q, l, u, x0, p)
	if status != qmodel.Solved && status != qmodel.MaxIterReached {
		tst.Errorf("test failed: status=%v\n", status)
	}
	c := q.EvalCons(x)
	if c[0] > 1e-2 {
		tst.Errorf("test failed: constraint still violated, c=%v\n", c[0])
	}
	chk.Scalar(tst, "x1", 5e-2, x[0], 1)
	chk.Scalar(tst, "x2", 5e-2, x[1], 1)
}

func TestUnconstrainedReducesToBCQP(tst *testing.T) {

	//verbose()
	chk.PrintTitle("no constraints reduces to a bound-constrained solve")

	q := &qmodel.QCQP{
		N: 2,
		Rows: []qmodel.Row{
			{Const: 0, Lin: []float64{-6, -4}, Quad: [][]float64{{2, 0}, {0, 2}}},
		},
	}
	l := []float64{-10, -10}
	u := []float64{10, 10}
	x0 := []float64{0, 0}

	x, status := Solve(q, l, u, x0, DefaultParams())
	if status != qmodel.Solved {
		tst.Errorf("test failed: status=%v\n", status)
	}
	chk.Vector(tst, "x*", 1e-5, x, []float64{3, 2})
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
