// Command nomadqp is a thin demonstration of the surrogate-model
// collaborator contract: given a training set and a QCQP's box
// constraints on the command line (as a JSON problem file), it fits a
// PRS model, extracts a QCQP, and solves it with the requested
// algorithm. It stands in for the MADS poll/search step that would
// otherwise call this package's Fit/Extract/Solve pipeline directly.
package main

import (
	"encoding/json"
	"flag"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/bbopt/nomad-sub001/prs"
	"github.com/bbopt/nomad-sub001/qmodel"
	"github.com/bbopt/nomad-sub001/solve"
)

// problemFile is the on-disk shape nomadqp reads: a training set plus the
// box the extracted QCQP should be solved over.
type problemFile struct {
	X      [][]float64 `json:"x"`
	Z      [][]float64 `json:"z"`
	Degree int         `json:"degree"`
	Ridge  float64     `json:"ridge"`
	Lower  []float64   `json:"lower"`
	Upper  []float64   `json:"upper"`
	X0     []float64   `json:"x0"`
	Algo   int         `json:"algo"`
}

func main() {

	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			for i := 8; i > 3; i-- {
				chk.CallerInfo(i)
			}
			io.PfRed("ERROR: %v\n", err)
		}
	}()

	io.PfWhite("\nnomadqp -- surrogate quadratic-model inner solver\n\n")

	flag.Parse()
	if len(flag.Args()) < 1 {
		chk.Panic("Please, provide a JSON problem filename. Ex.: problem.json")
	}
	fnamepath := flag.Arg(0)

	buf, err := io.ReadFile(fnamepath)
	if err != nil {
		chk.Panic("cannot read problem file: %v", err)
	}
	var pf problemFile
	if err := json.Unmarshal(buf, &pf); err != nil {
		chk.Panic("cannot parse problem file: %v", err)
	}

	nRaw := 0
	if len(pf.X) > 0 {
		nRaw = len(pf.X[0])
	}
	m := 0
	if len(pf.Z) > 0 {
		m = len(pf.Z[0])
	}
	ax, bx := unitScale(nRaw)
	az, bz := unitScale(m)
	ts := &prs.TrainingSet{X: pf.X, Z: pf.Z, AX: ax, BX: bx, AZ: az, BZ: bz}

	mdl, err := prs.Fit(ts, pf.Degree, pf.Ridge, 0)
	if err != nil {
		chk.Panic("PRS.fit failed: %v", err)
	}
	io.Pf("PRS fit: ready=%v rank=%d cond=%.3e\n", mdl.Ready(), mdl.Rank(), mdl.CondNumber())

	q, err := qmodel.Extract(mdl)
	if err != nil {
		chk.Panic("QPModelMatrix extraction failed: %v", err)
	}
	io.Pf("QCQP: n=%d m_c=%d\n", q.N, q.NCons())

	algo := qmodel.Algorithm(pf.Algo)
	x, status := solve.Dispatch(algo, q, pf.Lower, pf.Upper, pf.X0, solve.DefaultParams())
	io.Pf("status: %v\n", status)
	io.Pf("x*: %v\n", x)
	io.Pf("f(x*): %v\n", q.Objective().Eval(x))
}

// unitScale returns the identity affine scaling (a=1, b=0) for n
// components, used when the problem file supplies already-scaled data.
func unitScale(n int) (a, b []float64) {
	a = make([]float64, n)
	b = make([]float64, n)
	for i := range a {
		a[i] = 1
	}
	return a, b
}
