package auglag

import (
	"github.com/bbopt/nomad-sub001/bcqp"
	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/qmodel"
)

// augValue returns L_A(x,s) = f(x) - lambda.r + 1/(2mu)||r||^2, r=c(x)+s.
func augValue(q *qmodel.QCQP, x, s, lambda []float64, mu float64) float64 {
	v := q.Objective().Eval(x)
	c := q.EvalCons(x)
	for j := range lambda {
		r := c[j] + s[j]
		v += -lambda[j]*r + r*r/(2*mu)
	}
	return v
}

// gradL returns the exact gradient of L_A with respect to (x,s), a vector
// of length n+mc.
func gradL(q *qmodel.QCQP, x, s, lambda []float64, mu float64) []float64 {
	n := q.N
	mc := q.NCons()
	c := q.EvalCons(x)
	J := q.JacobianCons(x)
	r := make([]float64, mc)
	for j := range r {
		r[j] = c[j] + s[j]
	}
	gx := q.Objective().Grad(x)
	out := make([]float64, n+mc)
	copy(out[:n], gx)
	for j := 0; j < mc; j++ {
		w := -lambda[j] + r[j]/mu
		for i := 0; i < n; i++ {
			out[i] += w * J[j][i]
		}
		out[n+j] = -lambda[j] + r[j]/mu
	}
	return out
}

// hessL assembles the exact (n+mc)x(n+mc) Hessian of L_A at (x,s). Since
// every row of the QCQP is itself quadratic, this is closed-form, not an
// approximation: H_xx = Hf + sum_j(r_j/mu - lambda_j) Hc_j + 1/mu J^T J,
// H_xs = 1/mu J^T, H_ss = 1/mu I.
func hessL(q *qmodel.QCQP, x, s, lambda []float64, mu float64) [][]float64 {
	n := q.N
	mc := q.NCons()
	c := q.EvalCons(x)
	J := q.JacobianCons(x)
	dim := n + mc
	H := dmat.Alloc(dim, dim)

	obj := q.Objective()
	if obj.Quad != nil {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				H[i][j] += obj.Quad[i][j]
			}
		}
	}
	for k := 0; k < mc; k++ {
		r := c[k] + s[k]
		w := r/mu - lambda[k]
		cons := q.Constraint(k)
		if cons.Quad != nil && w != 0 {
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					H[i][j] += w * cons.Quad[i][j]
				}
			}
		}
	}
	// 1/mu J^T J block, plus the cross terms and the slack block.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s2 float64
			for k := 0; k < mc; k++ {
				s2 += J[k][i] * J[k][j]
			}
			H[i][j] += s2 / mu
		}
	}
	for k := 0; k < mc; k++ {
		for i := 0; i < n; i++ {
			H[i][n+k] += J[k][i] / mu
			H[n+k][i] += J[k][i] / mu
		}
		H[n+k][n+k] += 1 / mu
	}
	return H
}

// innerTrustRegion solves the bound-constrained augmented-Lagrangian
// sub-problem (spec section 4.5.1) to the omega tolerance, via a Newton
// trust-region iteration whose quadratic model's box sub-problem is itself
// a BCQP instance. Returns the improved (x,s) and whether the omega
// tolerance was actually reached.
func innerTrustRegion(q *qmodel.QCQP, l, u, x, s, lambda []float64, mu, omega float64, p Params) (xOut, sOut []float64, converged bool) {
	n := q.N
	mc := q.NCons()
	dim := n + mc

	lExt := make([]float64, dim)
	uExt := make([]float64, dim)
	copy(lExt[:n], l)
	copy(uExt[:n], u)
	for j := 0; j < mc; j++ {
		lExt[n+j] = 0
		uExt[n+j] = slackCeiling
	}

	z := make([]float64, dim)
	copy(z[:n], x)
	copy(z[n:], s)

	delta := 1.0
	const deltaMin, deltaMax = 1e-10, 1e3
	var recent []float64

	bp := bcqp.DefaultParams()
	bp.MaxIter = 80

	for inner := 0; inner < p.MaxIterInner; inner++ {
		g := gradL(q, z[:n], z[n:], lambda, mu)
		resid := projResidualExt(z, g, lExt, uExt)
		if resid <= omega {
			converged = true
			break
		}
		H := hessL(q, z[:n], z[n:], lambda, mu)

		lo := make([]float64, dim)
		hi := make([]float64, dim)
		for i := 0; i < dim; i++ {
			lo[i] = maxF(lExt[i]-z[i], -delta)
			hi[i] = minF(uExt[i]-z[i], delta)
			if lo[i] > hi[i] {
				lo[i] = hi[i]
			}
		}
		zero := make([]float64, dim)
		d, _, _ := bcqp.Solve(H, g, 0, lo, hi, zero, bp)

		pred := -(dmat.Dot(g, d) + 0.5*quadForm(H, d))
		cur := augValue(q, z[:n], z[n:], lambda, mu)

		if pred <= 1e-300 {
			delta = maxF(delta/2, deltaMin)
			if delta <= deltaMin {
				break
			}
			continue
		}

		zTrial := addClip(z, d, lExt, uExt)
		trial := augValue(q, zTrial[:n], zTrial[n:], lambda, mu)
		rho := (cur - trial) / pred

		nonMonoRef := cur
		for _, v := range recent {
			if v > nonMonoRef {
				nonMonoRef = v
			}
		}

		accept := rho >= p.SuccessRatio || trial <= nonMonoRef-1e-12*(1+absF(nonMonoRef))
		if accept {
			z = zTrial
			recent = append(recent, cur)
			if len(recent) > 10 {
				recent = recent[1:]
			}
			if rho >= 0.9 {
				delta = minF(2*delta, deltaMax)
			}
		} else {
			delta = maxF(delta/4, deltaMin)
		}
		if delta <= deltaMin && !accept {
			break
		}
	}

	xOut = append([]float64(nil), z[:n]...)
	sOut = append([]float64(nil), z[n:]...)
	return xOut, sOut, converged
}

func projResidualExt(z, g, l, u []float64) float64 {
	var m float64
	for i := range z {
		trial := z[i] - g[i]
		if trial < l[i] {
			trial = l[i]
		}
		if trial > u[i] {
			trial = u[i]
		}
		if d := absF(z[i] - trial); d > m {
			m = d
		}
	}
	return m
}

func quadForm(H [][]float64, d []float64) float64 {
	Hd, _ := dmat.MulMatVec(H, d)
	return dmat.Dot(d, Hd)
}

func addClip(z, d, l, u []float64) []float64 {
	out := make([]float64, len(z))
	for i := range z {
		v := z[i] + d[i]
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

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absF(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
