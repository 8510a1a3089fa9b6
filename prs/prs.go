// Package prs fits a multi-output polynomial response surface (PRS) of
// bounded total degree to a scaled training set, and evaluates its value,
// gradient, Hessian and constraint Jacobian. It is the leaf surrogate
// model consumed by qmodel to build a QCQP, and ultimately by the bound-
// constrained and general QCQP solvers (bcqp, auglag, l1auglag, tripm).
//
// Grounded on ext/sgtelib/src/Surrogate_PRS.cpp from the original NOMAD
// source (see DESIGN.md), re-expressed in gofem/gosl idiom: a concrete
// value type (no surrogate-subclass double dispatch, per SPEC_FULL.md's
// re-architecture note), explicit shape-checked matrices (dmat), and
// chk.Err-style error propagation.
package prs

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/bbopt/nomad-sub001/dmat"
)

// MaxMonomials is the q>200 decline threshold from spec section 4.2 step 2.
const MaxMonomials = 200

// TrainingSet holds p raw samples in an nRaw-dimensional input space with m
// outputs each, plus the affine scaling (scaled = a*raw+b) the caller has
// already chosen for inputs and outputs.
type TrainingSet struct {
	X  [][]float64 // p x nRaw, raw inputs
	Z  [][]float64 // p x m, raw outputs
	AX []float64   // length nRaw, input scale factors
	BX []float64   // length nRaw, input offsets
	AZ []float64   // length m, output scale factors
	BZ []float64   // length m, output offsets
}

// NPts returns the number of training points.
func (t *TrainingSet) NPts() int { return len(t.X) }

// NRaw returns the declared (pre-fixed-variable-removal) input dimension.
func (t *TrainingSet) NRaw() int {
	if len(t.X) == 0 {
		return 0
	}
	return len(t.X[0])
}

// NOut returns the number of output columns.
func (t *TrainingSet) NOut() int {
	if len(t.Z) == 0 {
		return 0
	}
	return len(t.Z[0])
}

// Scaled returns the scaled input and output sample matrices.
func (t *TrainingSet) Scaled() (Xs, Zs [][]float64) {
	p, nRaw, m := t.NPts(), t.NRaw(), t.NOut()
	Xs = dmat.Alloc(p, nRaw)
	Zs = dmat.Alloc(p, m)
	for i := 0; i < p; i++ {
		for j := 0; j < nRaw; j++ {
			Xs[i][j] = t.AX[j]*t.X[i][j] + t.BX[j]
		}
		for k := 0; k < m; k++ {
			Zs[i][k] = t.AZ[k]*t.Z[i][k] + t.BZ[k]
		}
	}
	return
}

// activeVars returns, in ascending raw-index order, the coordinates with
// more than one distinct observed raw value (spec section 3: "a coordinate
// with <=1 distinct value is fixed and removed from the active dimension").
func activeVars(X [][]float64) (active []int, fixed []bool) {
	nRaw := 0
	if len(X) > 0 {
		nRaw = len(X[0])
	}
	fixed = make([]bool, nRaw)
	for j := 0; j < nRaw; j++ {
		seen := make(map[float64]bool)
		for _, row := range X {
			seen[row[j]] = true
			if len(seen) > 1 {
				break
			}
		}
		if len(seen) <= 1 {
			fixed[j] = true
		} else {
			active = append(active, j)
		}
	}
	return
}

// Model is a fitted (or not-yet-ready) PRS. Zero value is not-ready.
type Model struct {
	ready bool

	degree int
	nRaw   int
	active []int // raw indices of active coordinates, length NVar
	fixed  []bool

	ax, bx []float64 // full nRaw scaling, copied from the training set
	az, bz []float64 // full m scaling

	q int     // monomial count
	m int     // number of outputs
	M [][]int // q x NVar exponent table

	H     [][]float64 // p x q design matrix
	Alpha [][]float64 // q x m coefficients

	ridge      float64
	condNumber float64
	rank       int

	gradTables map[int]*diffTable   // key: active-coordinate index i
	hessTables map[[2]int]*diffTable // key: {i,j}, i<=j
}

type diffTable struct {
	M     [][]int
	Alpha [][]float64
}

// NVar returns the active (non-fixed) input dimension.
func (mdl *Model) NVar() int { return len(mdl.active) }

// Ready reports whether the model was successfully fitted.
func (mdl *Model) Ready() bool { return mdl.ready }

// CondNumber returns sigma_max/sigma_min of the normal-equations matrix
// (+Inf if sigma_min==0), per SPEC_FULL.md's supplemented diagnostics.
func (mdl *Model) CondNumber() float64 { return mdl.condNumber }

// Rank returns the number of singular values retained above the
// tiny-singular-value cutoff when the normal equations were solved.
func (mdl *Model) Rank() int { return mdl.rank }

// Coefficients returns a copy of the q x m coefficient matrix alpha.
func (mdl *Model) Coefficients() [][]float64 {
	if !mdl.ready {
		return nil
	}
	return dmat.Copy(mdl.Alpha)
}

// MonomialCount returns q = sum_{k=0}^{d} C(nvar+k-1, k), the number of
// distinct monomials of total degree <= d in nvar variables.
func MonomialCount(nvar, degree int) int {
	if nvar == 0 {
		return 1 // only the constant monomial
	}
	total := 0
	for k := 0; k <= degree; k++ {
		total += binom(nvar+k-1, k)
	}
	return total
}

func binom(n, k int) int {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	res := 1
	for i := 0; i < k; i++ {
		res = res * (n - i) / (i + 1)
	}
	return res
}

// monomialsUpTo enumerates, in graded-lexicographic-decreasing canonical
// order (ascending total degree, then first-coordinate-descending within
// each degree), every exponent tuple of total degree <= d in nvar
// variables -- the deterministic "pivot-and-transfer" recurrence of spec
// section 4.2 step 3 collapses, for our purposes, to this standard graded
// enumeration: it produces exactly one row per distinct exponent pattern,
// with row 0 the all-zero (constant) monomial, matching MonomialCount.
func monomialsUpTo(nvar, d int) [][]int {
	var rows [][]int
	for k := 0; k <= d; k++ {
		rows = append(rows, degreeKTuples(k, nvar)...)
	}
	return rows
}

// degreeKTuples returns every non-negative integer tuple of length nvar
// summing to exactly k, in decreasing-first-coordinate lexicographic order.
func degreeKTuples(k, nvar int) [][]int {
	if nvar <= 0 {
		if k == 0 {
			return [][]int{{}}
		}
		return nil
	}
	if nvar == 1 {
		return [][]int{{k}}
	}
	var out [][]int
	for first := k; first >= 0; first-- {
		for _, suffix := range degreeKTuples(k-first, nvar-1) {
			row := make([]int, 0, nvar)
			row = append(row, first)
			row = append(row, suffix...)
			out = append(out, row)
		}
	}
	return out
}

// designMatrix builds H[i][row] = prod_j Xs[i][active[j]]^M[row][j].
func designMatrix(Xs [][]float64, active []int, M [][]int) [][]float64 {
	p := len(Xs)
	q := len(M)
	H := dmat.Alloc(p, q)
	for i := 0; i < p; i++ {
		for r := 0; r < q; r++ {
			v := 1.0
			for j, aj := range active {
				e := M[r][j]
				if e == 0 {
					continue
				}
				v *= math.Pow(Xs[i][aj], float64(e))
			}
			H[i][r] = v
		}
	}
	return H
}

// monomialRow evaluates h(x) for the monomial table M at the NVar-length
// (already active-coordinate, already scaled) point x.
func monomialRow(M [][]int, x []float64) []float64 {
	q := len(M)
	h := make([]float64, q)
	for r := 0; r < q; r++ {
		v := 1.0
		for j, e := range M[r] {
			if e == 0 {
				continue
			}
			v *= math.Pow(x[j], float64(e))
		}
		h[r] = v
	}
	return h
}

// Fit fits a degree-d PRS to the training set. ridge<=0 lets the algorithm
// choose the ridge per spec section 4.2 step 5; ridge>0 is used as-is. On
// success the returned model is Ready(); on decline (q>200, non-invertible
// normal equations, or a non-finite coefficient) it is not, and Predict/
// Gradient/Hessian/JacobianCons/Coefficients must not be called on it.
func Fit(ts *TrainingSet, degree int, ridge float64, verbose int) (*Model, error) {
	if ts.NPts() == 0 {
		return nil, chk.Err("prs.Fit: empty training set")
	}
	active, fixed := activeVars(ts.X)
	nvar := len(active)
	q := MonomialCount(nvar, degree)
	if verbose >= 1 {
		io.Pf("prs.Fit: nvar=%d degree=%d q=%d p=%d\n", nvar, degree, q, ts.NPts())
	}
	if q > MaxMonomials {
		if verbose >= 1 {
			io.Pfyel("prs.Fit: declining fit, q=%d > %d\n", q, MaxMonomials)
		}
		return &Model{ready: false, degree: degree, nRaw: ts.NRaw(), active: active, fixed: fixed}, nil
	}

	Xs, Zs := ts.Scaled()
	M := monomialsUpTo(nvar, degree)
	H := designMatrix(Xs, active, M)

	r := ridge
	if r <= 0 {
		if q > ts.NPts() {
			r = 1e-3
		} else {
			r = 0
		}
	}

	alpha, cond, rank, err := solveNormalEquations(H, Zs, r)
	if err != nil {
		return nil, chk.Err("prs.Fit: %v", err)
	}
	if dmat.HasNaNOrInf(alpha) && r == 0 {
		if verbose >= 1 {
			io.Pfyel("prs.Fit: zero-ridge solve produced NaN, retrying with r=1e-3\n")
		}
		r = 1e-3
		alpha, cond, rank, err = solveNormalEquations(H, Zs, r)
		if err != nil {
			return nil, chk.Err("prs.Fit: %v", err)
		}
	}

	mdl := &Model{
		degree: degree, nRaw: ts.NRaw(), active: active, fixed: fixed,
		ax: append([]float64(nil), ts.AX...), bx: append([]float64(nil), ts.BX...),
		az: append([]float64(nil), ts.AZ...), bz: append([]float64(nil), ts.BZ...),
		q: q, m: ts.NOut(), M: M, H: H, Alpha: alpha,
		ridge: r, condNumber: cond, rank: rank,
		gradTables: make(map[int]*diffTable),
		hessTables: make(map[[2]int]*diffTable),
	}
	if dmat.HasNaNOrInf(alpha) || rank < q {
		if verbose >= 1 {
			io.Pfred("prs.Fit: non-finite coefficients or rank-deficient normal equations (rank=%d, q=%d), declaring not-ready\n", rank, q)
		}
		mdl.ready = false
		return mdl, nil
	}
	mdl.ready = true
	return mdl, nil
}

// solveNormalEquations solves alpha = (H^T H + r I)^-1 H^T Z via SVD-based
// pseudo-inverse (spec section 4.2 step 6), returning the condition number
// of the normal-equations matrix and the retained rank.
func solveNormalEquations(H, Z [][]float64, r float64) (alpha [][]float64, cond float64, rank int, err error) {
	HtH, err := dmat.MulMatTrMat(H, H)
	if err != nil {
		return nil, 0, 0, err
	}
	if r > 0 {
		for i := range HtH {
			HtH[i][i] += r
		}
	}
	svd, err := dmat.SVD(HtH)
	if err != nil {
		return nil, 0, 0, chk.Err("normal-equations SVD failed: %v", err)
	}
	cond = svd.Cond()
	cutoff := 1e-12
	if len(svd.S) > 0 {
		cutoff *= svd.S[0]
	}
	for _, s := range svd.S {
		if s > cutoff {
			rank++
		}
	}
	pinv, err := dmat.PseudoInverse(HtH, 1e-12)
	if err != nil {
		return nil, cond, rank, chk.Err("normal-equations pseudo-inverse failed: %v", err)
	}
	HtZ, err := dmat.MulMatTrMat(H, Z)
	if err != nil {
		return nil, cond, rank, err
	}
	alpha, err = dmat.MulMatMat(pinv, HtZ)
	if err != nil {
		return nil, cond, rank, err
	}
	return alpha, cond, rank, nil
}
