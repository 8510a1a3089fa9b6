// Package auglag implements the classical augmented-Lagrangian solver with
// slacks (spec section 4.5): an outer mu/eta/omega update loop around an
// inner bound-constrained trust-region sub-problem (section 4.5.1), with
// an initial Levenberg-Marquardt feasibility pass.
package auglag

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/bbopt/nomad-sub001/bcqp"
	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/lmfeas"
	"github.com/bbopt/nomad-sub001/qmodel"
)

// Params bundles the numeric parameters of spec section 6.
type Params struct {
	Mu0              float64
	MuDec            float64
	Eta0             float64
	Omega0           float64
	SuccessRatio     float64
	MaxIterOuter     int
	MaxIterInner     int
	TolDx            float64
	AbsTol           float64
	MaxSuccessiveFail int
	SlowDecreaseAfter int // spec section 9 open question, named here; not read by Solve
	Verbose          int
}

// DefaultParams returns the documented defaults (spec section 4.5).
func DefaultParams() Params {
	return Params{
		Mu0: 0.5, MuDec: 2, Eta0: 1, Omega0: 1,
		SuccessRatio: 0.05, MaxIterOuter: 200, MaxIterInner: 60,
		TolDx: 1e-12, AbsTol: 1e-8, MaxSuccessiveFail: 3,
		SlowDecreaseAfter: 2, Verbose: 0,
	}
}

const slackCeiling = 1e15

// Solve solves the general QCQP min f(x) s.t. c(x)<=0, l<=x<=u.
func Solve(q *qmodel.QCQP, l, u, x0 []float64, p Params) (x []float64, status qmodel.Status) {
	n := q.N
	mc := q.NCons()
	if len(l) != n || len(u) != n || len(x0) != n {
		return append([]float64(nil), x0...), qmodel.DimensionError
	}
	for i := 0; i < n; i++ {
		if l[i] > u[i] {
			return append([]float64(nil), x0...), qmodel.BoundsError
		}
	}

	x = clip(x0, l, u)
	if mc == 0 {
		return bcqpOnObjective(q, l, u, x, p)
	}

	xF, sF, _ := lmfeas.Solve(q, l, u, x, false, 50, p.Verbose)
	x, s := xF, sF

	lambda := make([]float64, mc)
	mu := p.Mu0
	eta := p.Eta0
	omega := p.Omega0
	failCount := 0
	xPrev := append([]float64(nil), x...)

	for outer := 0; outer < p.MaxIterOuter; outer++ {
		x, s, _ = innerTrustRegion(q, l, u, x, s, lambda, mu, omega, p)

		r := residual(q, x, s)
		rn := dmat.NormL2(r)
		if p.Verbose >= 1 {
			io.Pf("auglag: outer=%d mu=%.3e eta=%.3e ||c+s||=%.3e\n", outer, mu, eta, rn)
		}

		if rn <= eta {
			for j := range lambda {
				lambda[j] -= r[j] / mu
			}
			eta = math.Max(eta*math.Pow(mu, 0.9), p.AbsTol)
			omega = math.Max(omega*mu, 1e-15)
			failCount = 0
		} else {
			mu = mu / p.MuDec
			eta = math.Max(math.Pow(mu, 0.1), p.AbsTol)
			omega = mu
			xF, sF, outcome := lmfeas.Solve(q, l, u, x, false, 50, p.Verbose)
			if outcome == lmfeas.Failed {
				failCount++
			} else {
				x, s = xF, sF
				failCount = 0
			}
		}

		gx := gradL(q, x, s, lambda, mu)[:n]
		kkt := projResidual(x, gx, l, u) + dmat.NormLinf(residual(q, x, s))
		if kkt <= p.AbsTol {
			return x, qmodel.Solved
		}
		if failCount >= p.MaxSuccessiveFail {
			return x, qmodel.Stagnation
		}
		if mu < p.AbsTol/p.MuDec {
			return x, qmodel.Stagnation
		}
		if dmat.NormLinf(diff(x, xPrev)) <= p.TolDx {
			return x, qmodel.Stagnation
		}
		xPrev = append([]float64(nil), x...)
	}
	return x, qmodel.MaxIterReached
}

func bcqpOnObjective(q *qmodel.QCQP, l, u, x0 []float64, p Params) ([]float64, qmodel.Status) {
	obj := q.Objective()
	quad := obj.Quad
	if quad == nil {
		quad = dmat.Alloc(q.N, q.N)
	}
	bp := bcqp.DefaultParams()
	bp.AbsTol = p.AbsTol
	x, status, _ := bcqp.Solve(quad, obj.Lin, obj.Const, l, u, x0, bp)
	return x, status
}

func clip(x, l, u []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		v := x[i]
		if v < l[i] {
			v = l[i]
		}
		if v > u[i] {
			v = u[i]
		}
		out[i] = v
	}
	return out
}

func diff(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func residual(q *qmodel.QCQP, x, s []float64) []float64 {
	c := q.EvalCons(x)
	out := make([]float64, len(c))
	for i := range c {
		out[i] = c[i] + s[i]
	}
	return out
}

func projResidual(x, grad, l, u []float64) float64 {
	n := len(x)
	var m float64
	for i := 0; i < n; i++ {
		trial := x[i] - grad[i]
		if trial < l[i] {
			trial = l[i]
		}
		if trial > u[i] {
			trial = u[i]
		}
		if d := math.Abs(x[i] - trial); d > m {
			m = d
		}
	}
	return m
}
