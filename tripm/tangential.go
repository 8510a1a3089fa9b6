package tripm

import (
	"math"

	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/qmodel"
)

// tangentialStep solves the reduced Byrd-Omojokun tangential sub-problem
// of spec section 4.7.1 step 3: min 1/2 p^T Q p + qc^T p s.t. W p = W v,
// ||p|| <= Delta, by writing p = v + Z w with Z spanning null(W) and
// running a Steihaug-style trust-region CG on the reduced (Z^T Q Z, Z^T
// (Qv+qc)) system, trust radius max(Delta-||v||,0).
func tangentialStep(q *qmodel.QCQP, x, s, lambda []float64, mu float64, J [][]float64, v []float64, delta float64, l, u []float64) (p []float64, negCurv bool) {
	n := q.N
	mc := q.NCons()
	dim := n + mc

	W := dmat.Alloc(mc, dim)
	for j := 0; j < mc; j++ {
		copy(W[j][:n], J[j])
		W[j][n+j] = s[j]
	}
	Z, err := dmat.NullSpace(W, 0)
	if err != nil || len(Z) == 0 || len(Z[0]) == 0 {
		return v, false
	}

	Q := reducedQ(q, x, s, lambda, mu, l, u)
	qc := reducedQC(q, x, s, lambda, mu, J)

	Qv := matVec(Q, v)
	rhs := make([]float64, dim)
	for i := range rhs {
		rhs[i] = Qv[i] + qc[i]
	}
	gReduced := matTVec(Z, rhs)
	QZ, _ := dmat.MulMatMat(Q, Z)
	HReduced, _ := dmat.MulMatTrMat(Z, QZ)

	radius := delta - dmat.NormL2(v)
	if radius < 0 {
		radius = 0
	}
	w, nc := steihaugCG(HReduced, gReduced, radius, 100)
	Zw := matVec(Z, w)
	p = make([]float64, dim)
	for i := range p {
		p[i] = v[i] + Zw[i]
	}
	return p, nc
}

// reducedQ assembles the barrier-Lagrangian Hessian block of spec section
// 4.7.1 step 3: Hessian of the Lagrangian plus barrier curvature in the
// x-block, -lambda*S in the s-block, exact since every row is quadratic.
func reducedQ(q *qmodel.QCQP, x, s, lambda []float64, mu float64, l, u []float64) [][]float64 {
	n := q.N
	mc := q.NCons()
	dim := n + mc
	Q := dmat.Alloc(dim, dim)

	if obj := q.Objective(); obj.Quad != nil {
		for i := 0; i < n; i++ {
			copy(Q[i][:n], obj.Quad[i])
		}
	}
	for j := 0; j < mc; j++ {
		cons := q.Constraint(j)
		if cons.Quad == nil || lambda[j] == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			for k := 0; k < n; k++ {
				Q[i][k] += lambda[j] * cons.Quad[i][k]
			}
		}
	}
	for i := 0; i < n; i++ {
		lo := math.Max(x[i]-l[i], 1e-300)
		hi := math.Max(u[i]-x[i], 1e-300)
		Q[i][i] += mu * (1/(lo*lo) + 1/(hi*hi))
	}
	for j := 0; j < mc; j++ {
		Q[n+j][n+j] += -lambda[j] * s[j]
	}
	return Q
}

// reducedQC assembles the gradient counterpart of reducedQ: grad of the
// Lagrangian in the x-block, -mu/s + lambda in the s-block.
func reducedQC(q *qmodel.QCQP, x, s, lambda []float64, mu float64, J [][]float64) []float64 {
	n := q.N
	mc := q.NCons()
	dim := n + mc
	out := make([]float64, dim)
	gradf := q.Objective().Grad(x)
	copy(out[:n], gradf)
	for j := 0; j < mc; j++ {
		for i := 0; i < n; i++ {
			out[i] += lambda[j] * J[j][i]
		}
		out[n+j] = -mu/math.Max(s[j], 1e-300) + lambda[j]
	}
	return out
}
