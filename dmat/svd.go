package dmat

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/mat"
)

// SVDResult holds a full singular value decomposition A = U * diag(S) * Vt.
type SVDResult struct {
	U  [][]float64 // rows(A) x rows(A)
	S  []float64   // min(rows,cols), descending
	Vt [][]float64 // cols(A) x cols(A)
}

// Cond returns the 2-norm condition number sigma_max/sigma_min, +Inf if the
// smallest singular value is exactly zero.
func (r *SVDResult) Cond() float64 {
	if len(r.S) == 0 {
		return 1
	}
	smin := r.S[len(r.S)-1]
	if smin == 0 {
		return math.Inf(1)
	}
	return r.S[0] / smin
}

// SVD computes the full SVD of A via gonum/mat. Non-convergence of the
// underlying LAPACK routine is reported as a structured error for the
// caller to translate into a solver-level NumericalError.
func SVD(A [][]float64) (*SVDResult, error) {
	r, c := Shape(A)
	if r == 0 || c == 0 {
		return nil, chk.Err("dmat.SVD: empty matrix")
	}
	if HasNaNOrInf(A) {
		return nil, chk.Err("dmat.SVD: input contains NaN/Inf")
	}
	dense := toDense(A)
	var svd mat.SVD
	ok := svd.Factorize(dense, mat.SVDFull)
	if !ok {
		return nil, chk.Err("dmat.SVD: SVD failed to converge")
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	s := svd.Values(nil)
	return &SVDResult{
		U:  fromDense(&U),
		S:  s,
		Vt: Transpose(fromDense(&V)),
	}, nil
}

// PseudoInverse returns the Moore-Penrose pseudo-inverse of A via its SVD,
// discarding singular values below tol*sigma_max (tol<=0 uses a default
// tiny-singular-value cutoff of 1e-12).
func PseudoInverse(A [][]float64, tol float64) ([][]float64, error) {
	r, c := Shape(A)
	svd, err := SVD(A)
	if err != nil {
		return nil, chk.Err("dmat.PseudoInverse: %v", err)
	}
	if tol <= 0 {
		tol = 1e-12
	}
	var smax float64
	if len(svd.S) > 0 {
		smax = svd.S[0]
	}
	cutoff := tol * smax
	k := len(svd.S)
	// pinv = V * diag(1/s_i, or 0 if s_i<=cutoff) * U^T
	Splus := Alloc(c, r)
	for i := 0; i < k; i++ {
		if svd.S[i] > cutoff {
			Splus[i][i] = 1 / svd.S[i]
		}
	}
	V := Transpose(svd.Vt)
	VS, err := MulMatMat(V, Splus)
	if err != nil {
		return nil, err
	}
	Ut := Transpose(svd.U)
	out, err := MulMatMat(VS, Ut)
	if err != nil {
		return nil, err
	}
	_ = r
	return out, nil
}

func toDense(A [][]float64) *mat.Dense {
	r, c := Shape(A)
	data := make([]float64, 0, r*c)
	for _, row := range A {
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data)
}

func fromDense(d *mat.Dense) [][]float64 {
	r, c := d.Dims()
	out := Alloc(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i][j] = d.At(i, j)
		}
	}
	return out
}
