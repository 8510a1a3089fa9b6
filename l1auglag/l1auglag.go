// Package l1auglag implements the L1 exact-penalty augmented-Lagrangian
// solver (spec section 4.6): an outer mu/eta/omega loop identical in shape
// to auglag's, wrapped around an active-set inner loop that takes
// horizontal, vertical, drop-constraint and strengthened steps and scales
// every accepted direction with the piecewise line search of section
// 4.6.1. Used when the slack-based augmented Lagrangian (auglag) stalls.
package l1auglag

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/qmodel"
)

// Params bundles the numeric parameters of spec section 6.
type Params struct {
	Mu0          float64
	Eta0         float64
	Omega0       float64
	MaxIterOuter int
	MaxIterInner int
	TolDx        float64
	AbsTol       float64
	Verbose      int
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Mu0: 0.5, Eta0: 1, Omega0: 1,
		MaxIterOuter: 200, MaxIterInner: 80,
		TolDx: 1e-12, AbsTol: 1e-8, Verbose: 0,
	}
}

const epsFloor = 1e-5

// phi evaluates the L1 exact-penalty merit function
// Phi = f(x) - lambda.c(x) + (1/mu) sum_j max(c_j(x), 0).
func phi(q *qmodel.QCQP, x, lambda []float64, mu float64) float64 {
	v := q.Objective().Eval(x)
	c := q.EvalCons(x)
	for j, cj := range c {
		v -= lambda[j] * cj
		if cj > 0 {
			v += cj / mu
		}
	}
	return v
}

// maxPosCons returns ||max(c(x),0)||_inf.
func maxPosCons(c []float64) float64 {
	var m float64
	for _, v := range c {
		if v > m {
			m = v
		}
	}
	return m
}

// Solve solves the general QCQP min f(x) s.t. c(x)<=0, l<=x<=u, via the
// L1 exact-penalty augmented Lagrangian. With no constraint rows it
// returns x0 clipped to the box, reported as Solved, without minimizing f.
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
		return x, qmodel.Solved
	}

	lambda := make([]float64, mc)
	mu := p.Mu0
	eta := p.Eta0
	omega := p.Omega0
	xPrev := append([]float64(nil), x...)

	for outer := 0; outer < p.MaxIterOuter; outer++ {
		x, _ = innerLoop(q, l, u, x, lambda, mu, omega, p)

		c := q.EvalCons(x)
		viol := maxPosCons(c)
		if p.Verbose >= 1 {
			io.Pf("l1auglag: outer=%d mu=%.3e viol=%.3e\n", outer, mu, viol)
		}

		eps := activeThreshold(c, n)
		if viol <= eta {
			for j, cj := range c {
				switch {
				case math.Abs(cj) <= eps:
					lbar := activeMultipliers(q, x, c, eps)
					lambda[j] += lbar[j]
				case cj > eps:
					lambda[j] -= 1 / mu
				}
			}
			eta = eta * math.Pow(mu, 0.9)
			omega = math.Max(omega*mu, 1e-9)
		} else {
			mu = mu / 10
			eta = math.Pow(mu, 0.1) / 10
			omega = mu
		}

		if viol <= p.AbsTol {
			return x, qmodel.Solved
		}
		if dmat.NormLinf(diff(x, xPrev)) <= p.TolDx {
			return x, qmodel.Stagnation
		}
		xPrev = append([]float64(nil), x...)
	}
	return x, qmodel.MaxIterReached
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

// activeThreshold auto-decreases the active-set tolerance when too many
// constraints would be classified active at the default, flooring at 1e-5
// (spec section 4.6: "auto-decreased when |active| >= n, floor 1e-5").
func activeThreshold(c []float64, n int) float64 {
	eps := 1e-6
	for eps > epsFloor/1e3 {
		count := 0
		for _, cj := range c {
			if math.Abs(cj) <= eps {
				count++
			}
		}
		if count < n {
			break
		}
		eps /= 2
		if eps < epsFloor {
			eps = epsFloor
			break
		}
	}
	if eps < epsFloor {
		eps = epsFloor
	}
	return eps
}

// activeMultipliers estimates the least-squares active-constraint
// multipliers lambdaBar from the full constraint Jacobian, returning 0 for
// rows that are not currently active.
func activeMultipliers(q *qmodel.QCQP, x, c []float64, eps float64) []float64 {
	mc := q.NCons()
	out := make([]float64, mc)
	var activeIdx []int
	for j, cj := range c {
		if math.Abs(cj) <= eps {
			activeIdx = append(activeIdx, j)
		}
	}
	if len(activeIdx) == 0 {
		return out
	}
	J := q.JacobianCons(x)
	Aact := dmat.Alloc(len(activeIdx), q.N)
	for i, j := range activeIdx {
		copy(Aact[i], J[j])
	}
	gradf := q.Objective().Grad(x)
	// normal equations for the least-squares problem Aact^T lambdaBar = gradf:
	// lambdaBar = (Aact Aact^T)^+ Aact gradf.
	AAt, _ := dmat.MulMatMat(Aact, dmat.Transpose(Aact))
	Ag, _ := dmat.MulMatVec(Aact, gradf)
	pinv, err := dmat.PseudoInverse(AAt, 0)
	if err != nil {
		return out
	}
	lbarActive, _ := dmat.MulMatVec(pinv, Ag)
	for i, j := range activeIdx {
		out[j] = lbarActive[i]
	}
	return out
}
