package dmat

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// LDLt is a symmetric-indefinite (Bunch-Kaufman) factorization of a dense
// symmetric matrix, used by the l1auglag horizontal step (as a
// positive-definiteness test and direct solve of the reduced Newton system)
// and by the lmfeas Gauss-Newton normal equations. It exposes a direct solve
// and the smallest diagonal pivot, which callers use to detect an
// indefinite or singular matrix.
type LDLt struct {
	n        int
	a        blas64.Symmetric // factored in place by Dsytrf
	ipiv     []int
	ok       bool
	minDiag  float64 // smallest (signed) diagonal entry of D encountered
}

// Factorize computes the Bunch-Kaufman factorization of the symmetric
// matrix A (only the upper triangle is read). Non-convergence of the
// underlying LAPACK routine is returned as a structured error.
func Factorize(A [][]float64) (*LDLt, error) {
	n, c := Shape(A)
	if n != c {
		return nil, chk.Err("dmat.Factorize: matrix is %dx%d, must be square", n, c)
	}
	if HasNaNOrInf(A) {
		return nil, chk.Err("dmat.Factorize: input contains NaN/Inf")
	}
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			data[i*n+j] = A[i][j]
		}
	}
	sym := blas64.Symmetric{N: n, Stride: n, Data: data, Uplo: blas.Upper}
	ipiv := make([]int, n)
	work := make([]float64, 1)
	lapack64.Dsytrf(sym, ipiv, work, -1)
	lwork := int(work[0])
	if lwork < 1 {
		lwork = n * n
	}
	work = make([]float64, lwork)
	ok := lapack64.Dsytrf(sym, ipiv, work, lwork)

	minDiag := math.Inf(1)
	for i := 0; i < n; i++ {
		d := data[i*n+i]
		if d < minDiag {
			minDiag = d
		}
	}
	return &LDLt{n: n, a: sym, ipiv: ipiv, ok: ok, minDiag: minDiag}, nil
}

// Ok reports whether the factorization completed without LAPACK signalling
// an exactly singular pivot.
func (f *LDLt) Ok() bool { return f.ok }

// MinPivot returns the smallest (signed) diagonal entry of D seen during
// factorization; a value at or below zero indicates an indefinite or
// singular matrix. For a 2x2 pivot block the block's two diagonal entries
// are compared, not its eigenvalues.
func (f *LDLt) MinPivot() float64 { return f.minDiag }

// Solve solves A*x = b using the factorization. Returns a structured error
// if the factorization was not Ok, since Dsytrs on a singular pivot
// structure does not produce a meaningful solution.
func (f *LDLt) Solve(b []float64) ([]float64, error) {
	if !f.ok {
		return nil, chk.Err("dmat.LDLt.Solve: factorization reported a singular pivot")
	}
	if len(b) != f.n {
		return nil, chk.Err("dmat.LDLt.Solve: b has length %d, expected %d", len(b), f.n)
	}
	x := make([]float64, f.n)
	copy(x, b)
	rhs := blas64.General{Rows: f.n, Cols: 1, Stride: 1, Data: x}
	lapack64.Dsytrs(f.a, f.ipiv, rhs)
	return x, nil
}

// InverseIterationDirection produces an approximate null/negative-curvature
// direction d of the original symmetric matrix by one step of inverse
// iteration: it solves A*x = seed with the factorization and normalizes x.
// No solver in this module calls it; bcqp's face sub-problem uses
// truncated CG instead.
func (f *LDLt) InverseIterationDirection(seed []float64) ([]float64, error) {
	n := f.n
	if len(seed) != n {
		seed = make([]float64, n)
		for i := range seed {
			seed[i] = 1
		}
	}
	x, err := f.Solve(seed)
	if err != nil {
		// factorization itself declared singular: the seed direction is
		// already a reasonable negative-curvature proxy.
		out := make([]float64, n)
		copy(out, seed)
		return normalizeOrIdentity(out), nil
	}
	return normalizeOrIdentity(x), nil
}

func normalizeOrIdentity(x []float64) []float64 {
	nrm := NormL2(x)
	if nrm < 1e-300 {
		out := make([]float64, len(x))
		if len(out) > 0 {
			out[0] = 1
		}
		return out
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / nrm
	}
	return out
}
