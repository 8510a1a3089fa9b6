package qmodel

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/bbopt/nomad-sub001/prs"
)

func trainingSet(f func(x1, x2 float64) float64, a, b, az, bz float64) *prs.TrainingSet {
	var X, Z [][]float64
	pts := []float64{-2, -1, -0.3, 0, 0.5, 1, 1.8, 2.3}
	for _, x1 := range pts {
		for _, x2 := range pts {
			X = append(X, []float64{x1, x2})
			Z = append(Z, []float64{f(x1, x2)})
		}
	}
	return &prs.TrainingSet{
		X: X, Z: Z,
		AX: []float64{a, a}, BX: []float64{b, b},
		AZ: []float64{az}, BZ: []float64{bz},
	}
}

func TestExtractRoundTrip(tst *testing.T) {

	//verbose()
	chk.PrintTitle("extract round trip")

	f := func(x1, x2 float64) float64 {
		return 1.5 - 2*x1 + 3*x2 + 2*x1*x1 - 1.5*x1*x2 + 4*x2*x2
	}
	ts := trainingSet(f, 2.5, -1.0, 0.3, 1.1)
	mdl, err := prs.Fit(ts, 2, 0, 0)
	if err != nil || !mdl.Ready() {
		tst.Errorf("test failed: fit did not succeed: %v\n", err)
		return
	}
	q, err := Extract(mdl)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	probes := [][]float64{{0.2, -0.4}, {1.1, 0.9}, {-1.3, 1.7}}
	for _, p := range probes {
		chk.Scalar(tst, "objective(probe)", 1e-6, q.Objective().Eval(p), f(p[0], p[1]))
	}
}

func TestExtractConstraintConvention(tst *testing.T) {

	//verbose()
	chk.PrintTitle("extract constraint convention")

	obj := func(x1, x2 float64) float64 { return x1 + x2 }
	cons := func(x1, x2 float64) float64 { return x1*x1 + x2*x2 - 1 }

	var X, Zobj [][]float64
	pts := []float64{-2, -1, -0.4, 0, 0.4, 1, 1.6, 2}
	for _, x1 := range pts {
		for _, x2 := range pts {
			X = append(X, []float64{x1, x2})
			Zobj = append(Zobj, []float64{obj(x1, x2), cons(x1, x2)})
		}
	}
	ts := &prs.TrainingSet{
		X: X, Z: Zobj,
		AX: []float64{1, 1}, BX: []float64{0, 0},
		AZ: []float64{1, 1}, BZ: []float64{0, 0},
	}
	mdl, err := prs.Fit(ts, 2, 0, 0)
	if err != nil || !mdl.Ready() {
		tst.Errorf("test failed: fit did not succeed: %v\n", err)
		return
	}
	q, err := Extract(mdl)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	if q.NCons() != 1 {
		tst.Errorf("test failed: expected 1 constraint, got %d\n", q.NCons())
		return
	}
	p := []float64{0.6, 0.3}
	chk.Scalar(tst, "c(p)", 1e-6, q.Constraint(0).Eval(p), cons(p[0], p[1]))
}
