package tripm

import "math"

// fractionToBoundaryAlpha returns the largest alpha in (0,1] such that
// x+alpha*stepX stays at least a (1-tauFrac) fraction inside [l,u] and
// s+alpha*stepS stays at least a (1-tauFrac) fraction of s above zero,
// per spec section 4.7.1's fraction-to-boundary rule.
func fractionToBoundaryAlpha(x, s, stepX, stepS, l, u []float64, tauFrac float64) float64 {
	alpha := 1.0
	for i := range x {
		if stepX[i] < 0 {
			if a := -tauFrac * (x[i] - l[i]) / stepX[i]; a < alpha {
				alpha = a
			}
		} else if stepX[i] > 0 {
			if a := tauFrac * (u[i] - x[i]) / stepX[i]; a < alpha {
				alpha = a
			}
		}
	}
	for j := range s {
		if stepS[j] < 0 {
			if a := -tauFrac * s[j] / stepS[j]; a < alpha {
				alpha = a
			}
		}
	}
	if alpha < 0 {
		alpha = 0
	}
	if math.IsNaN(alpha) {
		alpha = 0
	}
	return alpha
}
