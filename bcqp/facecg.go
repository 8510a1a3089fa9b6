package bcqp

import (
	"math"

	"github.com/bbopt/nomad-sub001/dmat"
)

// faceStepCG approximately solves, on the free (inactive) coordinates only,
//
//	min_d  grad.d + 1/2 d^T H d   s.t.  x+d stays in [l,u] on the free set
//
// by truncated (Steihaug-Toint style) conjugate gradient: negative
// curvature or a box-boundary hit both terminate the CG loop early and
// return the direction reached so far, per spec section 4.4: "stopping on
// (i) residual below tolerance, (ii) negative-curvature direction
// detected ... in which case follow d to the trust-region boundary of the
// current face, (iii) sufficient-decrease condition". The CG loop caps at
// maxIter (spec: 120). The returned negCurv is true both for a
// negative-curvature exit and for a step cut at the face box boundary.
func faceStepCG(H [][]float64, grad []float64, l, u, x []float64, free []int, maxIter int, epsCG float64) (d []float64, negCurv bool) {
	n := len(x)
	d = make([]float64, n)
	if len(free) == 0 {
		return d, false
	}

	gFree := make([]float64, len(free))
	for i, idx := range free {
		gFree[i] = grad[idx]
	}

	dFree := make([]float64, len(free))
	r := make([]float64, len(free))
	for i := range r {
		r[i] = -gFree[i]
	}
	pDir := append([]float64(nil), r...)
	rr := dmat.Dot(r, r)
	if math.Sqrt(rr) < 1e-14 {
		return d, false
	}

	for iter := 0; iter < maxIter; iter++ {
		Hp := restrictedMulAdd(H, free, pDir)
		pHp := dmat.Dot(pDir, Hp)
		pNorm2 := dmat.Dot(pDir, pDir)

		if pHp <= epsCG*pNorm2 {
			// negative curvature: follow pDir to the face box boundary.
			alpha := maxStepInBoxFree(x, free, pDir, l, u)
			for i := range dFree {
				dFree[i] += alpha * pDir[i]
			}
			scatter(d, free, dFree)
			return d, true
		}

		alpha := rr / pHp

		// clip to the face box boundary along pDir before committing.
		alphaBound := maxStepInBoxFree(x, free, pDir, l, u)
		if alpha > alphaBound {
			for i := range dFree {
				dFree[i] += alphaBound * pDir[i]
			}
			scatter(d, free, dFree)
			return d, true
		}

		for i := range dFree {
			dFree[i] += alpha * pDir[i]
		}
		rNew := make([]float64, len(free))
		for i := range r {
			rNew[i] = r[i] - alpha*Hp[i]
		}
		rrNew := dmat.Dot(rNew, rNew)
		if math.Sqrt(rrNew) < 1e-10*(1+math.Sqrt(dmat.Dot(gFree, gFree))) {
			scatter(d, free, dFree)
			return d, false
		}
		beta := rrNew / rr
		for i := range pDir {
			pDir[i] = rNew[i] + beta*pDir[i]
		}
		r = rNew
		rr = rrNew
	}
	scatter(d, free, dFree)
	return d, false
}

// restrictedMulAdd returns (H restricted to the free index set) * pFree,
// i.e. row free[i], column free[j] of H times pFree[j], summed over j.
func restrictedMulAdd(H [][]float64, free []int, pFree []float64) []float64 {
	out := make([]float64, len(free))
	for i, ri := range free {
		var s float64
		row := H[ri]
		for j, cj := range free {
			s += row[cj] * pFree[j]
		}
		out[i] = s
	}
	return out
}

func scatter(d []float64, free []int, dFree []float64) {
	for i, idx := range free {
		d[idx] = dFree[i]
	}
}

// maxStepInBoxFree is maxStepInBox specialized to a direction already
// expressed only on the free coordinates (dFull has zeros elsewhere).
func maxStepInBoxFree(x []float64, free []int, pFree []float64, l, u []float64) float64 {
	alpha := math.Inf(1)
	for i, idx := range free {
		p := pFree[i]
		if p > 0 {
			if a := (u[idx] - x[idx]) / p; a < alpha {
				alpha = a
			}
		} else if p < 0 {
			if a := (l[idx] - x[idx]) / p; a < alpha {
				alpha = a
			}
		}
	}
	if math.IsInf(alpha, 1) {
		alpha = 1e10
	}
	if alpha < 0 {
		alpha = 0
	}
	return alpha
}
