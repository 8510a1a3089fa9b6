// Package dmat implements the dense matrix and vector primitives shared by
// the PRS fitter and the QP/QCQP solvers: allocation, shape-checked
// arithmetic, products, norms and the heavier decompositions (SVD, LDLt,
// null-space, pseudo-inverse) the solvers need for face sub-problems and
// rank-deficient fits.
//
// Matrices are plain [][]float64 (row-major slice of rows), following the
// gosl/la convention rather than a boxed matrix type. The allocating
// arithmetic functions (Add, Sub, MulMat*) validate shapes and return an
// error on mismatch; the in-place variants and the vector helpers (Dot,
// norms) assume their arguments already have matching shapes.
package dmat

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Alloc returns a new rows x cols matrix of zeros.
func Alloc(rows, cols int) [][]float64 {
	return la.MatAlloc(rows, cols)
}

// Shape returns the (rows, cols) of m. An empty matrix has shape (0,0).
func Shape(m [][]float64) (rows, cols int) {
	rows = len(m)
	if rows > 0 {
		cols = len(m[0])
	}
	return
}

// CheckShape panics-free validation: returns a fatal error if m is not
// exactly rows x cols, or if it has ragged rows.
func CheckShape(name string, m [][]float64, rows, cols int) error {
	r, c := Shape(m)
	if r != rows || c != cols {
		return chk.Err("%s: expected shape (%d,%d), got (%d,%d)", name, rows, cols, r, c)
	}
	for i, row := range m {
		if len(row) != cols {
			return chk.Err("%s: row %d has length %d, expected %d (ragged matrix)", name, i, len(row), cols)
		}
	}
	return nil
}

// HasNaNOrInf reports whether any entry of m is NaN or +-Inf.
func HasNaNOrInf(m [][]float64) bool {
	for _, row := range m {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}

// VecHasNaNOrInf reports whether any entry of v is NaN or +-Inf.
func VecHasNaNOrInf(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of m.
func Copy(m [][]float64) [][]float64 {
	out := Alloc(len(m), 0)
	if len(m) == 0 {
		return out
	}
	out = Alloc(len(m), len(m[0]))
	for i, row := range m {
		copy(out[i], row)
	}
	return out
}

// Fill sets every entry of m to v, in place.
func Fill(m [][]float64, v float64) {
	for i := range m {
		for j := range m[i] {
			m[i][j] = v
		}
	}
}

// Identity returns the n x n identity matrix.
func Identity(n int) [][]float64 {
	m := Alloc(n, n)
	for i := 0; i < n; i++ {
		m[i][i] = 1
	}
	return m
}

// Transpose returns the transpose of m (allocating).
func Transpose(m [][]float64) [][]float64 {
	r, c := Shape(m)
	out := Alloc(c, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

// Add returns a+b (allocating). a and b must have identical shape.
func Add(a, b [][]float64) ([][]float64, error) {
	ra, ca := Shape(a)
	rb, cb := Shape(b)
	if ra != rb || ca != cb {
		return nil, chk.Err("dmat.Add: shape mismatch (%d,%d) vs (%d,%d)", ra, ca, rb, cb)
	}
	out := Alloc(ra, ca)
	AddInPlace(out, a, b)
	return out, nil
}

// AddInPlace sets dst := a+b. dst may alias a or b.
func AddInPlace(dst, a, b [][]float64) {
	for i := range dst {
		for j := range dst[i] {
			dst[i][j] = a[i][j] + b[i][j]
		}
	}
}

// Sub returns a-b (allocating).
func Sub(a, b [][]float64) ([][]float64, error) {
	ra, ca := Shape(a)
	rb, cb := Shape(b)
	if ra != rb || ca != cb {
		return nil, chk.Err("dmat.Sub: shape mismatch (%d,%d) vs (%d,%d)", ra, ca, rb, cb)
	}
	out := Alloc(ra, ca)
	for i := range out {
		for j := range out[i] {
			out[i][j] = a[i][j] - b[i][j]
		}
	}
	return out, nil
}

// Scale returns alpha*m (allocating).
func Scale(alpha float64, m [][]float64) [][]float64 {
	r, c := Shape(m)
	out := Alloc(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i][j] = alpha * m[i][j]
		}
	}
	return out
}

// ScaleInPlace sets m := alpha*m.
func ScaleInPlace(alpha float64, m [][]float64) {
	for i := range m {
		for j := range m[i] {
			m[i][j] *= alpha
		}
	}
}

// MulMatVec returns A*x (allocating). A is r x c, x has length c.
func MulMatVec(A [][]float64, x []float64) ([]float64, error) {
	r, c := Shape(A)
	if len(x) != c {
		return nil, chk.Err("dmat.MulMatVec: A is %dx%d, x has length %d", r, c, len(x))
	}
	y := make([]float64, r)
	MulMatVecInPlace(y, A, x)
	return y, nil
}

// MulMatVecInPlace sets y := A*x. y must not alias x.
func MulMatVecInPlace(y []float64, A [][]float64, x []float64) {
	for i, row := range A {
		var s float64
		for j, v := range row {
			s += v * x[j]
		}
		y[i] = s
	}
}

// MulMatTrVec returns A^T*x (allocating). A is r x c, x has length r.
func MulMatTrVec(A [][]float64, x []float64) ([]float64, error) {
	r, c := Shape(A)
	if len(x) != r {
		return nil, chk.Err("dmat.MulMatTrVec: A is %dx%d, x has length %d", r, c, len(x))
	}
	y := make([]float64, c)
	for i, row := range A {
		xi := x[i]
		if xi == 0 {
			continue
		}
		for j, v := range row {
			y[j] += v * xi
		}
	}
	return y, nil
}

// MulMatMat returns A*B (allocating). A is m x k, B is k x n.
func MulMatMat(A, B [][]float64) ([][]float64, error) {
	m, k := Shape(A)
	k2, n := Shape(B)
	if k != k2 {
		return nil, chk.Err("dmat.MulMatMat: A is %dx%d, B is %dx%d", m, k, k2, n)
	}
	out := Alloc(m, n)
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			aip := A[i][p]
			if aip == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i][j] += aip * B[p][j]
			}
		}
	}
	return out, nil
}

// MulMatTrMat returns A^T*B (allocating). A is k x m, B is k x n.
func MulMatTrMat(A, B [][]float64) ([][]float64, error) {
	k, m := Shape(A)
	k2, n := Shape(B)
	if k != k2 {
		return nil, chk.Err("dmat.MulMatTrMat: A is %dx%d, B is %dx%d", k, m, k2, n)
	}
	out := Alloc(m, n)
	for p := 0; p < k; p++ {
		for i := 0; i < m; i++ {
			aip := A[p][i]
			if aip == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i][j] += aip * B[p][j]
			}
		}
	}
	return out, nil
}

// GetRow returns a copy of row i of m.
func GetRow(m [][]float64, i int) []float64 {
	out := make([]float64, len(m[i]))
	copy(out, m[i])
	return out
}

// GetCol returns a copy of column j of m.
func GetCol(m [][]float64, j int) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		out[i] = row[j]
	}
	return out
}

// InsertRow returns a new matrix with row appended after the last row of m.
func InsertRow(m [][]float64, row []float64) [][]float64 {
	out := make([][]float64, len(m)+1)
	copy(out, m)
	rowCopy := make([]float64, len(row))
	copy(rowCopy, row)
	out[len(m)] = rowCopy
	return out
}

// Dot returns the Euclidean dot product of a and b.
func Dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// NormL2 returns the Euclidean norm of v.
func NormL2(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// NormLinf returns the max-abs norm of v.
func NormLinf(v []float64) float64 {
	var m float64
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

// NormFro returns the Frobenius norm of m.
func NormFro(m [][]float64) float64 {
	var s float64
	for _, row := range m {
		for _, v := range row {
			s += v * v
		}
	}
	return math.Sqrt(s)
}
