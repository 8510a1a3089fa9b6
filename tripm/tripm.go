// Package tripm implements the trust-region interior-point solver
// (TR-IPM, spec section 4.7): a log-barrier outer loop over mu driving
// strictly interior iterates (l < x < u, s > 0) to the QCQP's KKT point,
// with a Byrd-Omojokun normal/tangential inner barrier solve (section
// 4.7.1) on each barrier sub-problem.
package tripm

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/lmfeas"
	"github.com/bbopt/nomad-sub001/qmodel"
)

// Params bundles the numeric parameters of spec section 6.
type Params struct {
	Mu0          float64
	MuDec        float64
	Tol          float64
	MaxIterOuter int
	MaxIterInner int
	Verbose      int
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{Mu0: 0.5, MuDec: 2, Tol: 1e-8, MaxIterOuter: 200, MaxIterInner: 50, Verbose: 0}
}

const tau = 0.995
const maxSuccessiveFailures = 3
const interiorMargin = 1e-6

// Solve solves the general QCQP min f(x) s.t. c(x)<=0, l<=x<=u, via the
// trust-region interior-point method. With no constraint rows it returns
// x0 moved strictly inside the box, reported as Solved, without
// minimizing f.
func Solve(q *qmodel.QCQP, l, u, x0 []float64, p Params) (x []float64, status qmodel.Status) {
	n := q.N
	mc := q.NCons()
	if len(l) != n || len(u) != n || len(x0) != n {
		return append([]float64(nil), x0...), qmodel.DimensionError
	}
	for i := 0; i < n; i++ {
		if l[i] >= u[i] {
			return append([]float64(nil), x0...), qmodel.BoundsError
		}
	}

	x = toStrictInterior(x0, l, u)
	if mc == 0 {
		return x, qmodel.Solved
	}

	xF, sF, _ := lmfeas.Solve(q, l, u, x, true, 80, p.Verbose)
	x, s := xF, sF
	for j := range s {
		if s[j] < interiorMargin {
			s[j] = interiorMargin
		}
	}

	lambda := make([]float64, mc)
	for j := range lambda {
		lambda[j] = -1
	}

	mu := p.Mu0
	tolMu := mu
	slowMode := false
	failCount := 0

	for outer := 0; outer < p.MaxIterOuter; outer++ {
		var resid float64
		x, s, lambda, resid = innerBarrierSolve(q, l, u, x, s, lambda, mu, tolMu, p)

		if p.Verbose >= 1 {
			io.Pf("tripm: outer=%d mu=%.3e resid=%.3e\n", outer, mu, resid)
		}

		e := kktResidual(q, x, s, lambda, l, u)
		gradfInf := dmat.NormLinf(q.Objective().Grad(x))
		if e <= math.Max(gradfInf, 1)*1e-6 {
			return x, qmodel.Solved
		}

		if resid <= tolMu {
			dec := p.MuDec
			if slowMode {
				dec = math.Sqrt(p.MuDec)
			}
			mu = mu / dec
			tolMu = mu
			slowMode = false
			failCount = 0
		} else {
			failCount++
			slowMode = true
			if failCount >= maxSuccessiveFailures {
				return x, qmodel.Stagnation
			}
		}

		if mu < p.Tol/p.MuDec {
			return x, qmodel.Stagnation
		}
	}
	return x, qmodel.MaxIterReached
}

func toStrictInterior(x, l, u []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		v := x[i]
		span := u[i] - l[i]
		lo := l[i] + interiorMargin*math.Max(1, span)
		hi := u[i] - interiorMargin*math.Max(1, span)
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		out[i] = v
	}
	return out
}

// kktResidual returns E(x,s,lambda;0) = max(||x-P(x-gradL)||_inf,
// ||c+s||_inf, ||-S*lambda||_inf), spec section 4.7's termination measure.
func kktResidual(q *qmodel.QCQP, x, s, lambda, l, u []float64) float64 {
	n := q.N
	gradf := q.Objective().Grad(x)
	J := q.JacobianCons(x)
	gL := make([]float64, n)
	copy(gL, gradf)
	for j := range lambda {
		for i := 0; i < n; i++ {
			gL[i] += lambda[j] * J[j][i]
		}
	}
	var rx float64
	for i := 0; i < n; i++ {
		trial := x[i] - gL[i]
		if trial < l[i] {
			trial = l[i]
		}
		if trial > u[i] {
			trial = u[i]
		}
		if d := math.Abs(x[i] - trial); d > rx {
			rx = d
		}
	}
	c := q.EvalCons(x)
	var rc float64
	for j := range c {
		if d := math.Abs(c[j] + s[j]); d > rc {
			rc = d
		}
	}
	var rs float64
	for j := range s {
		if d := math.Abs(s[j] * lambda[j]); d > rs {
			rs = d
		}
	}
	return math.Max(rx, math.Max(rc, rs))
}
