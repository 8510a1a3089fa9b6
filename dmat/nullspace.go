package dmat

import "github.com/cpmech/gosl/chk"

// NullSpace returns an orthonormal basis (as an n x (n-rank) matrix Z, one
// column per basis vector) of the null space of the m x n matrix A (m<n
// expected, per spec section 4.1), i.e. A*Z ~= 0 up to the singular-value
// cutoff tol (tol<=0 uses the default 1e-12 relative cutoff). Columns
// associated with singular values below tol*sigma_max are kept as the null
// space; if A is full row rank the returned matrix has zero columns.
func NullSpace(A [][]float64, tol float64) ([][]float64, error) {
	m, n := Shape(A)
	if m == 0 || n == 0 {
		return nil, chk.Err("dmat.NullSpace: empty matrix")
	}
	svd, err := SVD(A)
	if err != nil {
		return nil, chk.Err("dmat.NullSpace: %v", err)
	}
	if tol <= 0 {
		tol = 1e-12
	}
	var smax float64
	if len(svd.S) > 0 {
		smax = svd.S[0]
	}
	cutoff := tol * smax
	// V = Vt^T is n x n; columns associated with the trailing (n - rank)
	// singular directions (including any beyond min(m,n)) span the null
	// space.
	V := Transpose(svd.Vt)
	rank := 0
	for _, s := range svd.S {
		if s > cutoff {
			rank++
		}
	}
	k := n - rank
	Z := Alloc(n, k)
	for j := 0; j < k; j++ {
		col := rank + j
		for i := 0; i < n; i++ {
			Z[i][j] = V[i][col]
		}
	}
	return Z, nil
}
