// Package bcqp implements the bound-constrained QP solver: a
// Moré-Toraldo-style hybrid of projected-gradient steps and projected
// (truncated) conjugate-gradient steps on the current active face, with
// negative-curvature and trust-region-boundary handling on each face.
//
// Grounded on the Moré-Toraldo description in spec section 4.4 and on the
// QPSolverOptimize.cpp bound-constrained inner solve (original_source);
// re-expressed with dmat's shape-checked primitives and gosl/chk error
// reporting in gofem idiom.
package bcqp

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/qmodel"
)

// Params bundles the numeric parameters recognized by Solve (spec section
// 6, "Numeric parameters").
type Params struct {
	AbsTol   float64 // tol_abs
	RelTol   float64 // tol_rel
	MaxIter  int     // outer iteration cap
	CGMaxIter int    // face sub-problem CG cap (spec: 120)
	CGEps    float64 // negative-curvature threshold (spec: 1e-7)
	Verbose  int     // 0 quiet, 1 outer, 2 inner
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		AbsTol: 1e-8, RelTol: 1e-6, MaxIter: 200,
		CGMaxIter: 120, CGEps: 1e-7, Verbose: 0,
	}
}

const tightBoundEps = 1e-8
const snapEps = 1e-15
const armijoFactor = 1.0 / 2.5
const armijoC1 = 1e-4

// evalQ returns 1/2 x^T H x + g.x + g0.
func evalQ(H [][]float64, g []float64, g0 float64, x []float64) float64 {
	Hx, _ := dmat.MulMatVec(H, x)
	return 0.5*dmat.Dot(x, Hx) + dmat.Dot(g, x) + g0
}

// evalGrad returns H*x+g.
func evalGrad(H [][]float64, g []float64, x []float64) []float64 {
	Hx, _ := dmat.MulMatVec(H, x)
	out := make([]float64, len(g))
	for i := range out {
		out[i] = Hx[i] + g[i]
	}
	return out
}

func project(x, l, u []float64) []float64 {
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

// projResidual returns ||x - P(x-grad)||_inf, the projected-gradient
// stationarity residual.
func projResidual(x, grad, l, u []float64) float64 {
	n := len(x)
	trial := make([]float64, n)
	for i := 0; i < n; i++ {
		trial[i] = x[i] - grad[i]
	}
	p := project(trial, l, u)
	var m float64
	for i := 0; i < n; i++ {
		if d := math.Abs(x[i] - p[i]); d > m {
			m = d
		}
	}
	return m
}

// Solve solves min 1/2 x^T H x + g^T x + g0 s.t. l<=x<=u, starting from x0.
// H must be symmetric (possibly indefinite). Returns the final iterate,
// the solver status, and whether q(x) < q(x0) (spec section 4.4's
// "improved?" contract, folded into the (x,status) external-interface
// shape per spec section 6).
func Solve(H [][]float64, g []float64, g0 float64, l, u, x0 []float64, p Params) (x []float64, status qmodel.Status, improved bool) {
	n := len(g)
	if len(H) != n || len(l) != n || len(u) != n || len(x0) != n {
		return append([]float64(nil), x0...), qmodel.DimensionError, false
	}
	for i := 0; i < n; i++ {
		if len(H[i]) != n {
			return append([]float64(nil), x0...), qmodel.DimensionError, false
		}
		if l[i] > u[i] {
			return append([]float64(nil), x0...), qmodel.BoundsError, false
		}
	}

	allTight := true
	for i := 0; i < n; i++ {
		if u[i]-l[i] > tightBoundEps {
			allTight = false
			break
		}
	}
	x0p := project(x0, l, u)
	if allTight {
		return x0p, qmodel.TightBounds, false
	}

	q0 := evalQ(H, g, g0, x0p)
	grad0 := evalGrad(H, g, x0p)
	tol := p.AbsTol + p.RelTol*dmat.NormLinf(grad0)

	x = append([]float64(nil), x0p...)
	status = qmodel.MaxIterReached
	prevActive := map[int]int{} // index -> -1 lower, +1 upper

	for outer := 0; outer < p.MaxIter; outer++ {
		grad := evalGrad(H, g, x)
		resid := projResidual(x, grad, l, u)
		if p.Verbose >= 1 {
			io.Pf("bcqp: outer=%d q=%.6e resid=%.3e\n", outer, evalQ(H, g, g0, x), resid)
		}
		if resid <= tol {
			status = qmodel.Solved
			break
		}

		free := freeIndices(x, l, u)
		activeCount := n - len(free)
		if activeCount >= n && len(free) == 0 {
			// every coordinate is at a bound: try one projected-gradient
			// (Cauchy) step to see if any coordinate can still move.
			xNew, moved := cauchyStep(H, g, g0, x, l, u)
			if !moved {
				status = qmodel.TooManyActiveConstraints
				break
			}
			x = xNew
			continue
		}

		d, negCurv := faceStepCG(H, grad, l, u, x, free, p.CGMaxIter, p.CGEps)
		if dmat.VecHasNaNOrInf(d) {
			status = qmodel.NumericalError
			break
		}

		var xNew []float64
		if negCurv {
			alphaMax := maxStepInBox(x, d, l, u, free)
			xNew = stepBy(x, d, alphaMax)
		} else {
			alphaMax := maxStepInBox(x, d, l, u, free)
			alpha := armijoSearch(H, g, g0, x, d, math.Min(alphaMax, 1), armijoFactor, armijoC1)
			xNew = stepBy(x, d, alpha)
		}
		snapToBounds(xNew, l, u)

		qNew := evalQ(H, g, g0, xNew)
		qOld := evalQ(H, g, g0, x)
		if qNew >= qOld-1e-16*(1+math.Abs(qOld)) {
			// binding test / no-progress: check whether the active set is
			// unchanged (binding) and re-run the face CG once with a
			// ten-times-smaller negative-curvature threshold before giving
			// up (spec section 4.4 step d).
			active := activeSet(xNew, l, u)
			if sameActiveSet(active, prevActive) {
				d2, nc2 := faceStepCG(H, grad, l, u, x, free, p.CGMaxIter, p.CGEps*0.1)
				x2 := stepBy(x, d2, maxStepInBox(x, d2, l, u, free))
				snapToBounds(x2, l, u)
				if !nc2 && evalQ(H, g, g0, x2) < qOld {
					x = x2
					prevActive = activeSet(x, l, u)
					continue
				}
			}
			status = qmodel.Stagnation
			break
		}
		x = xNew
		prevActive = activeSet(x, l, u)
	}

	qFinal := evalQ(H, g, g0, x)
	improved = qFinal < q0
	if !improved {
		x = append([]float64(nil), x0p...)
	}
	return x, status, improved
}

func freeIndices(x, l, u []float64) []int {
	var free []int
	for i := range x {
		if x[i] > l[i]+snapEpsRel(l[i], u[i]) && x[i] < u[i]-snapEpsRel(l[i], u[i]) {
			free = append(free, i)
		}
	}
	return free
}

func snapEpsRel(l, u float64) float64 {
	return 1e-10 * math.Max(1, u-l)
}

func activeSet(x, l, u []float64) map[int]int {
	m := map[int]int{}
	for i := range x {
		if x[i] <= l[i]+snapEpsRel(l[i], u[i]) {
			m[i] = -1
		} else if x[i] >= u[i]-snapEpsRel(l[i], u[i]) {
			m[i] = 1
		}
	}
	return m
}

func sameActiveSet(a, b map[int]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func stepBy(x, d []float64, alpha float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + alpha*d[i]
	}
	return out
}

func snapToBounds(x, l, u []float64) {
	for i := range x {
		if math.Abs(x[i]-l[i]) < snapEps {
			x[i] = l[i]
		}
		if math.Abs(x[i]-u[i]) < snapEps {
			x[i] = u[i]
		}
	}
}

// maxStepInBox returns the largest alpha>=0 such that x+alpha*d (restricted
// to the free coordinates, others held fixed) stays within [l,u].
func maxStepInBox(x, d, l, u []float64, free []int) float64 {
	alpha := math.Inf(1)
	for _, i := range free {
		if d[i] > 0 {
			if a := (u[i] - x[i]) / d[i]; a < alpha {
				alpha = a
			}
		} else if d[i] < 0 {
			if a := (l[i] - x[i]) / d[i]; a < alpha {
				alpha = a
			}
		}
	}
	if math.IsInf(alpha, 1) {
		alpha = 1
	}
	if alpha < 0 {
		alpha = 0
	}
	return alpha
}

// armijoSearch backtracks alpha (starting at alphaMax) by a factor of
// armijoFactor until the sufficient-decrease condition holds, flooring at
// a small step (spec section 4.4: "floor 1e-15").
func armijoSearch(H [][]float64, g []float64, g0 float64, x, d []float64, alphaMax, factor, c1 float64) float64 {
	q0 := evalQ(H, g, g0, x)
	grad := evalGrad(H, g, x)
	slope := dmat.Dot(grad, d)
	alpha := alphaMax
	if alpha <= 0 {
		return 0
	}
	for i := 0; i < 60 && alpha > 1e-15; i++ {
		xt := stepBy(x, d, alpha)
		qt := evalQ(H, g, g0, xt)
		if qt <= q0+c1*alpha*slope {
			return alpha
		}
		alpha *= factor
	}
	return 0
}

// cauchyStep takes a projected-gradient (Cauchy) step from x when every
// coordinate is currently at a bound, to check whether the active set can
// still be escaped.
func cauchyStep(H [][]float64, g []float64, g0 float64, x, l, u []float64) (xNew []float64, moved bool) {
	grad := evalGrad(H, g, x)
	trial := make([]float64, len(x))
	for i := range x {
		trial[i] = x[i] - grad[i]
	}
	p := project(trial, l, u)
	d := make([]float64, len(x))
	var any bool
	for i := range x {
		d[i] = p[i] - x[i]
		if d[i] != 0 {
			any = true
		}
	}
	if !any {
		return x, false
	}
	free := make([]int, 0, len(x))
	for i := range x {
		free = append(free, i)
	}
	alpha := armijoSearch(H, g, g0, x, d, 1, armijoFactor, armijoC1)
	if alpha <= 0 {
		return x, false
	}
	out := stepBy(x, d, alpha)
	snapToBounds(out, l, u)
	_ = free
	return out, true
}
