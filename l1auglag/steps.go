package l1auglag

import (
	"math"

	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/qmodel"
)

const boundActiveEps = 1e-8
const pdPivotFloor = 1e-10

// classify partitions the constraints into active (|c_j|<=eps), feasible
// (c_j<-eps) and infeasible (c_j>eps) index sets.
func classify(c []float64, eps float64) (active, infeasible []int) {
	for j, cj := range c {
		switch {
		case math.Abs(cj) <= eps:
			active = append(active, j)
		case cj > eps:
			infeasible = append(infeasible, j)
		}
	}
	return
}

// pseudoGradient returns grad D = grad L(x,lambda) + 1/mu * sum_{infeasible}
// grad c_j(x), where L is the full Lagrangian over every constraint at the
// current multiplier estimate.
func pseudoGradient(q *qmodel.QCQP, x, lambda []float64, mu float64, infeasible []int) []float64 {
	g := q.Objective().Grad(x)
	J := q.JacobianCons(x)
	for j := 0; j < q.NCons(); j++ {
		for i := range g {
			g[i] -= lambda[j] * J[j][i]
		}
	}
	for _, j := range infeasible {
		for i := range g {
			g[i] += J[j][i] / mu
		}
	}
	return g
}

// pseudoHessian returns the Hessian of D (exact, since every row is
// quadratic): Hf - sum_j lambda_j Hc_j + 1/mu sum_{infeasible} Hc_j.
func pseudoHessian(q *qmodel.QCQP, lambda []float64, mu float64, infeasible []int) [][]float64 {
	n := q.N
	H := dmat.Alloc(n, n)
	if obj := q.Objective(); obj.Quad != nil {
		for i := 0; i < n; i++ {
			copy(H[i], obj.Quad[i])
		}
	}
	infeasSet := map[int]bool{}
	for _, j := range infeasible {
		infeasSet[j] = true
	}
	for j := 0; j < q.NCons(); j++ {
		cons := q.Constraint(j)
		if cons.Quad == nil {
			continue
		}
		w := -lambda[j]
		if infeasSet[j] {
			w += 1 / mu
		}
		if w == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			for k := 0; k < n; k++ {
				H[i][k] += w * cons.Quad[i][k]
			}
		}
	}
	return H
}

// activeJacobianWithBounds assembles the active constraint Jacobian plus a
// unit-vector row for every variable currently at one of its bounds, per
// spec section 4.6: "Nullspace Z of the active Jacobian (plus active-bound
// gradients)".
func activeJacobianWithBounds(q *qmodel.QCQP, x, l, u []float64, active []int) [][]float64 {
	n := q.N
	J := q.JacobianCons(x)
	var rows [][]float64
	for _, j := range active {
		rows = append(rows, append([]float64(nil), J[j]...))
	}
	for i := 0; i < n; i++ {
		if x[i]-l[i] <= boundActiveEps || u[i]-x[i] <= boundActiveEps {
			e := make([]float64, n)
			e[i] = 1
			rows = append(rows, e)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	A := dmat.Alloc(len(rows), n)
	for i, r := range rows {
		copy(A[i], r)
	}
	return A
}

// nullSpaceOf returns the null-space basis of A, or the identity (full
// space) if A has no rows.
func nullSpaceOf(n int, A [][]float64) [][]float64 {
	if len(A) == 0 {
		return dmat.Identity(n)
	}
	Z, err := dmat.NullSpace(A, 0)
	if err != nil {
		return dmat.Identity(n)
	}
	return Z
}

func matTVec(A [][]float64, x []float64) []float64 {
	out, _ := dmat.MulMatTrVec(A, x)
	return out
}

func matVec(A [][]float64, x []float64) []float64 {
	out, _ := dmat.MulMatVec(A, x)
	return out
}

// horizontalStep solves the reduced Newton system (Z^T H Z) w = -Z^T gradD
// and returns h = Z w, falling back to h = -Z Z^T gradD when the reduced
// Hessian is not positive definite (spec section 4.6).
func horizontalStep(H [][]float64, Z [][]float64, gradD []float64) []float64 {
	n := len(gradD)
	k := 0
	if len(Z) > 0 {
		k = len(Z[0])
	}
	if k == 0 {
		return make([]float64, n)
	}
	ZtGradD := matTVec(Z, gradD)
	HZ, _ := dmat.MulMatMat(H, Z)
	ZtHZ, _ := dmat.MulMatTrMat(Z, HZ)

	neg := make([]float64, k)
	for i := range neg {
		neg[i] = -ZtGradD[i]
	}
	fac, err := dmat.Factorize(ZtHZ)
	if err == nil && fac.Ok() && fac.MinPivot() > pdPivotFloor {
		w, serr := fac.Solve(neg)
		if serr == nil && !dmat.VecHasNaNOrInf(w) {
			return matVec(Z, w)
		}
	}
	// fallback: steepest-descent direction in the reduced space.
	hFallback := matVec(Z, ZtGradD)
	out := make([]float64, n)
	for i := range out {
		out[i] = -hFallback[i]
	}
	return out
}

// leastSquaresMultipliers estimates lambdaBar for the rows of Aact
// (assumed to be exactly the active constraint gradients, in order) from
// the stationarity condition grad f ~= Aact^T lambdaBar.
func leastSquaresMultipliers(Aact [][]float64, gradf []float64) []float64 {
	if len(Aact) == 0 {
		return nil
	}
	AAt, _ := dmat.MulMatMat(Aact, dmat.Transpose(Aact))
	Ag := matVec(Aact, gradf)
	pinv, err := dmat.PseudoInverse(AAt, 0)
	if err != nil {
		return make([]float64, len(Aact))
	}
	return matVec(pinv, Ag)
}

// verticalStep restores feasibility of the active constraints by a
// least-squares correction: v minimizes ||Aact v + cAct||, i.e.
// v = Aact^+ * (-cAct).
func verticalStep(Aact [][]float64, cAct []float64) []float64 {
	if len(Aact) == 0 {
		return make([]float64, 0)
	}
	n := 0
	if len(Aact) > 0 {
		n = len(Aact[0])
	}
	neg := make([]float64, len(cAct))
	for i := range neg {
		neg[i] = -cAct[i]
	}
	AAt, _ := dmat.MulMatMat(Aact, dmat.Transpose(Aact))
	pinv, err := dmat.PseudoInverse(AAt, 0)
	if err != nil {
		return make([]float64, n)
	}
	y := matVec(pinv, neg)
	return matVec(dmat.Transpose(Aact), y)
}

// dropConstraintStep releases the most out-of-range active constraint
// (by index dropIdx into the active slice) from the working set and
// recomputes a horizontal step on the reduced active set.
func dropConstraintStep(q *qmodel.QCQP, x, l, u []float64, active []int, dropIdx int, H [][]float64, gradD []float64) []float64 {
	reduced := make([]int, 0, len(active))
	for i, j := range active {
		if i != dropIdx {
			reduced = append(reduced, j)
		}
	}
	A := activeJacobianWithBounds(q, x, l, u, reduced)
	Z := nullSpaceOf(q.N, A)
	return horizontalStep(H, Z, gradD)
}

// innerLoop runs the active-set inner iteration of spec section 4.6 for up
// to p.MaxIterInner steps, returning the (possibly) improved x.
func innerLoop(q *qmodel.QCQP, l, u, x0, lambda []float64, mu, omega float64, p Params) (x []float64, converged bool) {
	n := q.N
	x = append([]float64(nil), x0...)

	for iter := 0; iter < p.MaxIterInner; iter++ {
		c := q.EvalCons(x)
		eps := activeThreshold(c, n)
		active, infeasible := classify(c, eps)

		gradD := pseudoGradient(q, x, lambda, mu, infeasible)
		H := pseudoHessian(q, lambda, mu, infeasible)
		Aact := activeJacobianConsOnly(q, x, active)
		A := activeJacobianWithBounds(q, x, l, u, active)
		Z := nullSpaceOf(n, A)
		ZtGradD := matTVec(Z, gradD)
		projNorm := dmat.NormL2(ZtGradD)

		if projNorm <= omega && len(active) == 0 {
			converged = true
			break
		}

		var step []float64
		if len(active) == 0 || projNorm > 1e-10 {
			step = horizontalStep(H, Z, gradD)
		}

		if step == nil || dmat.NormL2(step) < 1e-14 {
			gradf := q.Objective().Grad(x)
			lbar := leastSquaresMultipliers(Aact, gradf)
			dropIdx := -1
			worst := 0.0
			for i, lb := range lbar {
				viol := 0.0
				if lb < 0 {
					viol = -lb
				} else if lb > 1/mu {
					viol = lb - 1/mu
				}
				if viol > worst {
					worst = viol
					dropIdx = i
				}
			}
			if dropIdx >= 0 {
				d := dropConstraintStep(q, x, l, u, active, dropIdx, H, gradD)
				if dmat.Dot(gradD, d) < 0 {
					step = d
				}
			}
		}

		if step == nil {
			h := horizontalStep(H, Z, gradD)
			xTrial := addVec(x, h)
			cTrial := q.EvalCons(xTrial)
			cActTrial := make([]float64, len(active))
			for i, j := range active {
				cActTrial[i] = cTrial[j]
			}
			v := verticalStep(Aact, cActTrial)
			candidate := addVec(h, v)
			phiCur := phi(q, x, lambda, mu)
			phiCand := phi(q, addVec(x, candidate), lambda, mu)
			threshold := 0.01 * (dmat.NormFro(Aact) + projNorm*projNorm)
			if phiCand <= phiCur-threshold {
				step = candidate
			} else {
				// strengthened step: refine the active-set threshold and
				// recompute.
				epsStrong := eps / 2
				activeS, infeasS := classify(c, epsStrong)
				gradDS := pseudoGradient(q, x, lambda, mu, infeasS)
				HS := pseudoHessian(q, lambda, mu, infeasS)
				AS := activeJacobianWithBounds(q, x, l, u, activeS)
				ZS := nullSpaceOf(n, AS)
				step = horizontalStep(HS, ZS, gradDS)
			}
		}

		if dmat.NormL2(step) < 1e-15 {
			converged = true
			break
		}

		gamma := piecewiseLineSearch(q, x, step, lambda, mu, l, u, active)
		xNew := clipStep(x, step, gamma, l, u)
		if dmat.NormLinf(diff(xNew, x)) <= p.TolDx {
			x = xNew
			converged = true
			break
		}
		x = xNew
	}
	return x, converged
}

func activeJacobianConsOnly(q *qmodel.QCQP, x []float64, active []int) [][]float64 {
	if len(active) == 0 {
		return nil
	}
	J := q.JacobianCons(x)
	A := dmat.Alloc(len(active), q.N)
	for i, j := range active {
		copy(A[i], J[j])
	}
	return A
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func clipStep(x, d []float64, gamma float64, l, u []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		v := x[i] + gamma*d[i]
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
