package tripm

import (
	"math"

	"github.com/bbopt/nomad-sub001/dmat"
)

// steihaugCG is the classical trust-region truncated CG (Steihaug-Toint):
// approximately minimizes 1/2 w^T H w + g^T w subject to ||w|| <= radius,
// stopping at the first negative-curvature direction or trust-region
// boundary crossing, per spec section 4.7.1: "CG detects negative
// curvature and trust-region boundary by standard quadratic-root
// computation; on either event it returns the boundary-hitting iterate."
func steihaugCG(H [][]float64, g []float64, radius float64, maxIter int) (w []float64, negCurv bool) {
	k := len(g)
	w = make([]float64, k)
	if k == 0 || radius <= 0 {
		return w, false
	}
	r := append([]float64(nil), g...)
	d := make([]float64, k)
	for i := range d {
		d[i] = -r[i]
	}
	rr := dmat.Dot(r, r)
	if math.Sqrt(rr) < 1e-14 {
		return w, false
	}

	for iter := 0; iter < maxIter; iter++ {
		Hd, _ := dmat.MulMatVec(H, d)
		dHd := dmat.Dot(d, Hd)
		if dHd <= 1e-12*dmat.Dot(d, d) {
			tau := boundaryTau(w, d, radius)
			w = axpy(w, tau, d)
			return w, true
		}
		alpha := rr / dHd
		wTrial := axpy(w, alpha, d)
		if dmat.NormL2(wTrial) >= radius {
			tau := boundaryTau(w, d, radius)
			w = axpy(w, tau, d)
			return w, true
		}
		w = wTrial
		rNew := axpy(r, alpha, Hd)
		rrNew := dmat.Dot(rNew, rNew)
		if math.Sqrt(rrNew) < 1e-10*(1+math.Sqrt(dmat.Dot(g, g))) {
			return w, false
		}
		beta := rrNew / rr
		for i := range d {
			d[i] = -rNew[i] + beta*d[i]
		}
		r = rNew
		rr = rrNew
	}
	return w, false
}

// boundaryTau solves ||w+tau*d||=radius for the positive root tau.
func boundaryTau(w, d []float64, radius float64) float64 {
	a := dmat.Dot(d, d)
	b := 2 * dmat.Dot(w, d)
	c := dmat.Dot(w, w) - radius*radius
	if a < 1e-300 {
		return 0
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		disc = 0
	}
	return (-b + math.Sqrt(disc)) / (2 * a)
}

func axpy(a []float64, alpha float64, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + alpha*b[i]
	}
	return out
}
