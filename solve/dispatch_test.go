package solve

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/bbopt/nomad-sub001/qmodel"
)

func sampleQCQP() *qmodel.QCQP {
	return &qmodel.QCQP{
		N: 2,
		Rows: []qmodel.Row{
			{Const: 0, Lin: []float64{1, 1}},
			{Const: -1, Lin: []float64{0, 0}, Quad: [][]float64{{2, 0}, {0, 2}}},
		},
	}
}

func TestDispatchUnknownCodeIsParamError(tst *testing.T) {

	//verbose()
	chk.PrintTitle("dispatch reports ParamError for unknown codes")

	q := sampleQCQP()
	l := []float64{-2, -2}
	u := []float64{2, 2}
	x0 := []float64{0, 0}

	_, status := Dispatch(qmodel.Algorithm(7), q, l, u, x0, DefaultParams())
	if status != qmodel.ParamError {
		tst.Errorf("test failed: expected ParamError, got %v\n", status)
	}
}

func TestDispatchFeasibilityOnly(tst *testing.T) {

	//verbose()
	chk.PrintTitle("dispatch feasibility-only mode runs lmfeas")

	q := sampleQCQP()
	l := []float64{-2, -2}
	u := []float64{2, 2}
	x0 := []float64{0, 0}

	x, status := Dispatch(qmodel.AlgoFeasibilityOnly, q, l, u, x0, DefaultParams())
	if status != qmodel.Solved && status != qmodel.MaxIterReached {
		tst.Errorf("test failed: status=%v\n", status)
	}
	c := q.EvalCons(x)
	if c[0] > 1e-1 {
		tst.Errorf("test failed: feasibility pass left large violation c=%v\n", c[0])
	}
}

func TestDispatchAugLag(tst *testing.T) {

	//verbose()
	chk.PrintTitle("dispatch routes AlgoAugLag to auglag.Solve")

	q := sampleQCQP()
	l := []float64{-2, -2}
	u := []float64{2, 2}
	x0 := []float64{0, 0}

	x, status := Dispatch(qmodel.AlgoAugLag, q, l, u, x0, DefaultParams())
	if status != qmodel.Solved && status != qmodel.MaxIterReached {
		tst.Errorf("test failed: status=%v\n", status)
	}
	chk.Scalar(tst, "x1", 5e-2, x[0], -0.70710678)
	chk.Scalar(tst, "x2", 5e-2, x[1], -0.70710678)
}
