package lmfeas

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/bbopt/nomad-sub001/qmodel"
)

func TestFeasibilityReducesResidual(tst *testing.T) {

	//verbose()
	chk.PrintTitle("feasibility reduces residual")

	// objective is irrelevant to this pass; constraint c(x) = 2-x1-x2 <= 0
	q := &qmodel.QCQP{
		N: 2,
		Rows: []qmodel.Row{
			{Const: 0, Lin: []float64{0, 0}},
			{Const: 2, Lin: []float64{-1, -1}},
		},
	}
	l := []float64{0, 0}
	u := []float64{5, 5}
	x0 := []float64{0, 0}

	x, s, outcome := Solve(q, l, u, x0, false, 50, 0)
	if outcome == Failed {
		tst.Errorf("test failed: feasibility pass made no progress\n")
		return
	}
	c := q.EvalCons(x)
	resid := c[0] + s[0]
	if resid > 1e-2 {
		tst.Errorf("test failed: residual too large: %v\n", resid)
	}
	for i := range x {
		if x[i] < l[i]-1e-9 || x[i] > u[i]+1e-9 {
			tst.Errorf("test failed: x[%d]=%v outside bounds\n", i, x[i])
		}
	}
}
