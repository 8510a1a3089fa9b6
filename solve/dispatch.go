// Package solve wires the algorithm-selector code of spec section 9 to
// its matching solver. Kept separate from qmodel (which every solver
// package imports) to avoid an import cycle: qmodel.Algorithm names the
// four codes, solve.Dispatch is the only thing that needs to see all four
// solver packages at once.
package solve

import (
	"github.com/bbopt/nomad-sub001/auglag"
	"github.com/bbopt/nomad-sub001/l1auglag"
	"github.com/bbopt/nomad-sub001/lmfeas"
	"github.com/bbopt/nomad-sub001/qmodel"
	"github.com/bbopt/nomad-sub001/tripm"
)

// Params bundles the union of every solver's numeric parameters, each
// defaulted independently; Dispatch only reads the sub-struct matching
// the requested algorithm.
type Params struct {
	AugLag   auglag.Params
	L1AugLag l1auglag.Params
	TRIPM    tripm.Params
	MaxIter  int // used by the feasibility-only path
}

// DefaultParams returns every solver's documented defaults.
func DefaultParams() Params {
	return Params{
		AugLag:   auglag.DefaultParams(),
		L1AugLag: l1auglag.DefaultParams(),
		TRIPM:    tripm.DefaultParams(),
		MaxIter:  50,
	}
}

// Dispatch resolves algo to the matching solver's Solve and runs it. An
// algorithm code outside qmodel's four named constants reports
// qmodel.ParamError instead of the original source's silent no-op (spec
// section 9, open question).
func Dispatch(algo qmodel.Algorithm, q *qmodel.QCQP, l, u, x0 []float64, p Params) ([]float64, qmodel.Status) {
	switch algo {
	case qmodel.AlgoAugLag:
		return auglag.Solve(q, l, u, x0, p.AugLag)
	case qmodel.AlgoTRIPM:
		return tripm.Solve(q, l, u, x0, p.TRIPM)
	case qmodel.AlgoL1AugLag:
		return l1auglag.Solve(q, l, u, x0, p.L1AugLag)
	case qmodel.AlgoFeasibilityOnly:
		return lmfeas.SolveOnly(q, l, u, x0, p.MaxIter, 0)
	}
	return append([]float64(nil), x0...), qmodel.ParamError
}
