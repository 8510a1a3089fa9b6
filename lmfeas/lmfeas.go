// Package lmfeas implements the Levenberg-Marquardt feasibility pre-solver
// (spec section 4.8) shared by auglag and tripm: it drives (x,s) toward
// c(x)+s=0 while respecting x in [l,u] and s>=0 (or s>0 strictly, for
// tripm), using trust-region steps on the augmented Jacobian
// W=[grad(c) diag(s)] with a small Tikhonov ridge. Each step is the
// ridge-regularized Gauss-Newton step scaled back to the trust radius; no
// Cauchy point or dogleg path is formed.
package lmfeas

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/qmodel"
)

// Outcome is the three-way result spec section 4.8 names: {success,
// improved, failed}.
type Outcome int

const (
	Failed Outcome = iota
	Improved
	Success
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case Improved:
		return "Improved"
	}
	return "Failed"
}

const ridge = 1e-7

// Solve drives (x,s) toward c(x)+s=0. strictPositive makes the slack floor
// strictly positive (tripm's strict-interior requirement) instead of
// merely non-negative (auglag's requirement).
func Solve(q *qmodel.QCQP, l, u, x0 []float64, strictPositive bool, maxIter int, verbose int) (x, s []float64, outcome Outcome) {
	mc := q.NCons()
	x = clip(x0, l, u)
	if mc == 0 {
		return x, nil, Success
	}
	c := q.EvalCons(x)
	s = make([]float64, mc)
	floor := 0.0
	if strictPositive {
		floor = 1e-6
	}
	for j := 0; j < mc; j++ {
		s[j] = math.Max(floor, -c[j])
	}

	resid0 := residualNorm(c, s)
	best := resid0
	delta := 1.0
	const deltaMin, deltaMax = 1e-12, 1e3

	for iter := 0; iter < maxIter; iter++ {
		c = q.EvalCons(x)
		r := addVec(c, s)
		rn := dmat.NormL2(r)
		if verbose >= 2 {
			io.Pf("lmfeas: iter=%d ||c+s||=%.3e delta=%.3e\n", iter, rn, delta)
		}
		if rn <= 1e-10 {
			return x, s, Success
		}

		n := q.N
		J := q.JacobianCons(x)
		// W = [J | diag(s)], unknowns (dx, ds), target -r.
		// Gauss-Newton normal equations with ridge: (W^T W + ridge I) delta = -W^T r.
		dim := n + mc
		WtW := dmat.Alloc(dim, dim)
		Wtr := make([]float64, dim)
		for i := 0; i < mc; i++ {
			row := make([]float64, dim)
			copy(row[:n], J[i])
			row[n+i] = s[i]
			for a := 0; a < dim; a++ {
				Wtr[a] += row[a] * r[i]
				for b := 0; b < dim; b++ {
					WtW[a][b] += row[a] * row[b]
				}
			}
		}
		for a := 0; a < dim; a++ {
			WtW[a][a] += ridge
			Wtr[a] = -Wtr[a]
		}
		fac, err := dmat.Factorize(WtW)
		var gn []float64
		if err == nil && fac.Ok() {
			gn, _ = fac.Solve(Wtr)
		}
		if gn == nil {
			// singular normal equations: fall back to steepest descent.
			gn = make([]float64, dim)
			gnorm := dmat.NormL2(Wtr)
			if gnorm > 1e-300 {
				for a := range gn {
					gn[a] = Wtr[a] / gnorm
				}
			}
		}

		step := boundStepNorm(gn, delta)
		dx := step[:n]
		ds := step[n:]

		xNew := clip(addVec(x, dx), l, u)
		cNew := q.EvalCons(xNew)
		sNew := make([]float64, mc)
		for j := 0; j < mc; j++ {
			sNew[j] = math.Max(floor, -cNew[j])
			if s[j]+ds[j] > sNew[j] {
				sNew[j] = s[j] + ds[j]
			}
			if sNew[j] < floor {
				sNew[j] = floor
			}
		}
		rNewNorm := residualNorm(cNew, sNew)

		predicted := predictedReduction(WtW, Wtr, step, rn)
		actual := rn*rn - rNewNorm*rNewNorm
		rho := 0.0
		if predicted > 1e-300 {
			rho = actual / predicted
		}
		if rho >= 0.05 {
			x, s = xNew, sNew
			if rNewNorm < best {
				best = rNewNorm
			}
			if rho >= 0.9 {
				delta = math.Min(2*delta, deltaMax)
			}
		} else {
			delta = math.Max(delta/2, deltaMin)
		}
		if delta <= deltaMin && rho < 0.05 {
			break
		}
	}

	if best < resid0*0.999 {
		return x, s, Improved
	}
	return x, s, Failed
}

// SolveOnly runs just the feasibility pass and reports the solver-level
// outcome translated into a qmodel.Status, per SPEC_FULL.md's
// feasibility-only algorithm selector (code 3).
func SolveOnly(q *qmodel.QCQP, l, u, x0 []float64, maxIter int, verbose int) ([]float64, qmodel.Status) {
	x, _, outcome := Solve(q, l, u, x0, false, maxIter, verbose)
	switch outcome {
	case Success:
		return x, qmodel.Solved
	case Improved:
		return x, qmodel.MaxIterReached
	}
	return x, qmodel.Stagnation
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

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func residualNorm(c, s []float64) float64 {
	var sum float64
	for i := range c {
		v := c[i] + s[i]
		sum += v * v
	}
	return math.Sqrt(sum)
}

func boundStepNorm(d []float64, delta float64) []float64 {
	n := dmat.NormL2(d)
	if n <= delta || n < 1e-300 {
		return d
	}
	out := make([]float64, len(d))
	scale := delta / n
	for i, v := range d {
		out[i] = v * scale
	}
	return out
}

func predictedReduction(WtW [][]float64, negWtr, step []float64, rn float64) float64 {
	// predicted reduction in ||r||^2 for the linearized Gauss-Newton model:
	// pred = -2*g.step - step^T(W^TW)step, where g=-negWtr (since Wtr was negated above).
	g := make([]float64, len(negWtr))
	for i := range g {
		g[i] = -negWtr[i]
	}
	Hs, _ := dmat.MulMatVec(WtW, step)
	quad := dmat.Dot(step, Hs)
	lin := dmat.Dot(g, step)
	return -(2*lin + quad)
}
