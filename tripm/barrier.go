package tripm

import (
	"math"

	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/qmodel"
)

const deltaMin = 1e-12
const deltaMax = 1e3

// innerBarrierSolve runs the Byrd-Omojokun inner barrier iteration (spec
// section 4.7.1) for up to p.MaxIterInner steps on the barrier sub-problem
// at fixed mu, returning the (possibly improved) iterate, the updated
// multiplier estimate, and the final feasibility residual ||c(x)+s||_inf
// the outer loop compares against tolMu.
func innerBarrierSolve(q *qmodel.QCQP, l, u, x, s, lambda []float64, mu, tolMu float64, p Params) (xOut, sOut, lambdaOut []float64, resid float64) {
	n := q.N
	mc := q.NCons()
	delta := 1.0
	x = append([]float64(nil), x...)
	s = append([]float64(nil), s...)
	lambda = append([]float64(nil), lambda...)

	for inner := 0; inner < p.MaxIterInner; inner++ {
		c := q.EvalCons(x)
		r := make([]float64, mc)
		for j := range r {
			r[j] = c[j] + s[j]
		}
		resid = dmat.NormLinf(r)
		if resid <= tolMu && inner > 0 {
			break
		}

		J := q.JacobianCons(x)
		v := normalStep(J, s, r, 0.8*delta)
		v = clampNormalStep(v, x, s, l, u, n)

		step, _ := tangentialStep(q, x, s, lambda, mu, J, v, delta, l, u)

		alphaFB := fractionToBoundaryAlpha(x, s, step[:n], step[n:], l, u, tau)
		stepX := scaleVec(step[:n], alphaFB)
		stepS := scaleVec(step[n:], alphaFB)

		xTrial := addVec(x, stepX)
		cTrial := q.EvalCons(xTrial)
		sTrial := make([]float64, mc)
		for j := 0; j < mc; j++ {
			reset := math.Max(-cTrial[j], s[j]+stepS[j])
			if reset < interiorMargin {
				reset = interiorMargin
			}
			sTrial[j] = reset
		}

		nu := meritPenalty(q, xTrial, lambda, mu)
		phiCur := meritPhi(q, x, s, mu, nu, l, u)
		phiTrial := meritPhi(q, xTrial, sTrial, mu, nu, l, u)
		ared := phiCur - phiTrial
		pred := predictedDecrease(q, x, s, lambda, mu, J, r, append(stepX, stepS...), nu)

		rho := 0.0
		if pred > 1e-300 {
			rho = ared / pred
		}
		if rho >= 1e-8 {
			x, s = xTrial, sTrial
			if rho >= 0.9 {
				delta = math.Min(2*delta, deltaMax)
			}
		} else {
			delta = math.Max(0.5*math.Min(delta, dmat.NormL2(append(stepX, stepS...))), 1e-15)
		}

		lambda = updateMultipliers(q, x, s, mu, lambda)
	}
	c := q.EvalCons(x)
	r := make([]float64, mc)
	for j := range r {
		r[j] = c[j] + s[j]
	}
	resid = dmat.NormLinf(r)
	return x, s, lambda, resid
}

// normalStep approximately minimizes ||W v + r||^2 subject to ||v|| <=
// radius via a dogleg between the Cauchy point and the Gauss-Newton point,
// where W = [grad(c) diag(s)].
func normalStep(J [][]float64, s, r []float64, radius float64) []float64 {
	mc := len(r)
	n := 0
	if mc > 0 {
		n = len(J[0])
	}
	dim := n + mc
	if mc == 0 {
		return make([]float64, dim)
	}

	W := dmat.Alloc(mc, dim)
	for j := 0; j < mc; j++ {
		copy(W[j][:n], J[j])
		W[j][n+j] = s[j]
	}
	g := matTVec(W, r)

	Wg := matVec(W, g)
	denom := dmat.Dot(Wg, Wg)
	var tCauchy float64
	if denom > 1e-300 {
		tCauchy = dmat.Dot(g, g) / denom
	}
	vC := scaleVec(g, -tCauchy)
	if nrm := dmat.NormL2(vC); nrm > radius && nrm > 0 {
		vC = scaleVec(vC, radius/nrm)
	}

	var vGN []float64
	negR := scaleVec(r, -1)
	Wplus, err := dmat.PseudoInverse(W, 0)
	if err == nil {
		vGN = matVec(Wplus, negR)
	}
	if vGN == nil || dmat.VecHasNaNOrInf(vGN) {
		return vC
	}
	if dmat.NormL2(vGN) <= radius {
		return vGN
	}
	return doglegToRadius(vC, vGN, radius)
}

func doglegToRadius(vC, vGN []float64, radius float64) []float64 {
	nC := dmat.NormL2(vC)
	if nC >= radius {
		if nC < 1e-300 {
			return vC
		}
		return scaleVec(vC, radius/nC)
	}
	// find t in [0,1] with ||vC + t(vGN-vC)|| = radius.
	diff := make([]float64, len(vC))
	for i := range diff {
		diff[i] = vGN[i] - vC[i]
	}
	a := dmat.Dot(diff, diff)
	b := 2 * dmat.Dot(vC, diff)
	cc := dmat.Dot(vC, vC) - radius*radius
	if a < 1e-300 {
		return vC
	}
	disc := b*b - 4*a*cc
	if disc < 0 {
		disc = 0
	}
	t := (-b + math.Sqrt(disc)) / (2 * a)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	out := make([]float64, len(vC))
	for i := range out {
		out[i] = vC[i] + t*diff[i]
	}
	return out
}

// clampNormalStep backtracks v along fraction-to-boundary so that
// v_s >= -tau/2*s and x+v_x stays strictly interior.
func clampNormalStep(v, x, s, l, u []float64, n int) []float64 {
	alpha := fractionToBoundaryAlpha(x, s, v[:n], v[n:], l, u, tau/2)
	return scaleVec(v, alpha)
}

func matTVec(A [][]float64, x []float64) []float64 {
	out, _ := dmat.MulMatTrVec(A, x)
	return out
}

func matVec(A [][]float64, x []float64) []float64 {
	out, _ := dmat.MulMatVec(A, x)
	return out
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func scaleVec(a []float64, alpha float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = alpha * a[i]
	}
	return out
}

// meritPenalty returns nu = max(||lambda||_inf + 1, 1). It does not look at
// the step, so nu is not raised when the resulting predicted decrease of
// Phi_nu is non-positive; such a step gets rho = 0 and is rejected.
func meritPenalty(q *qmodel.QCQP, x, lambda []float64, mu float64) float64 {
	nu := dmat.NormLinf(lambda) + 1
	if nu < 1 {
		nu = 1
	}
	return nu
}

// meritPhi evaluates Phi_nu(x,s) = f(x) - mu*sum(log s) - mu*sum(log
// bound gaps) + nu*||c(x)+s||.
func meritPhi(q *qmodel.QCQP, x, s []float64, mu, nu float64, l, u []float64) float64 {
	v := q.Objective().Eval(x)
	for j, sj := range s {
		if sj <= 0 {
			sj = 1e-300
		}
		v -= mu * math.Log(sj)
	}
	for i := range x {
		lo := x[i] - l[i]
		hi := u[i] - x[i]
		if lo <= 0 {
			lo = 1e-300
		}
		if hi <= 0 {
			hi = 1e-300
		}
		v -= mu * (math.Log(lo) + math.Log(hi))
	}
	c := q.EvalCons(x)
	var rnorm float64
	for j := range c {
		d := c[j] + s[j]
		rnorm += d * d
	}
	v += nu * math.Sqrt(rnorm)
	return v
}

// predictedDecrease approximates the predicted merit reduction of the
// combined normal+tangential step using the linearized feasibility model
// and the quadratic model's value at the step.
func predictedDecrease(q *qmodel.QCQP, x, s, lambda []float64, mu float64, J [][]float64, r, step []float64, nu float64) float64 {
	n := q.N
	mc := q.NCons()
	gradf := q.Objective().Grad(x)
	g := make([]float64, n+mc)
	copy(g[:n], gradf)
	for j := 0; j < mc; j++ {
		g[n+j] = -mu / math.Max(s[j], 1e-300)
	}
	linear := dmat.Dot(g, step)

	Wstep := make([]float64, mc)
	for j := 0; j < mc; j++ {
		var sxp float64
		for i := 0; i < n; i++ {
			sxp += J[j][i] * step[i]
		}
		Wstep[j] = sxp + step[n+j]
	}
	var rNorm, rNewNorm float64
	for j := range r {
		rNorm += r[j] * r[j]
		v := r[j] + Wstep[j]
		rNewNorm += v * v
	}
	feasDecrease := nu * (math.Sqrt(rNorm) - math.Sqrt(rNewNorm))
	return -linear + feasDecrease
}

// updateMultipliers estimates lambda by least squares of the stationarity
// condition grad f + J^T lambda = 0 (equivalently -mu/s from the slack
// block), clamping to strictly negative per spec section 4.7.1 step 7.
func updateMultipliers(q *qmodel.QCQP, x, s []float64, mu float64, prev []float64) []float64 {
	mc := q.NCons()
	J := q.JacobianCons(x)
	gradf := q.Objective().Grad(x)
	Jt := dmat.Transpose(J)
	JJt, _ := dmat.MulMatMat(J, Jt)
	pinv, err := dmat.PseudoInverse(JJt, 0)
	lambda := make([]float64, mc)
	if err == nil {
		negGradf := scaleVec(gradf, -1)
		Jg := matVec(J, negGradf)
		est := matVec(pinv, Jg)
		copy(lambda, est)
	} else {
		copy(lambda, prev)
	}
	for j := 0; j < mc; j++ {
		if lambda[j] >= 0 {
			lambda[j] = -math.Min(1e-3, mu/math.Max(s[j], 1e-300))
		}
	}
	return lambda
}
