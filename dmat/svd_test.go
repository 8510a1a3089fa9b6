package dmat

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestSVDReconstruct(tst *testing.T) {

	//verbose()
	chk.PrintTitle("SVD reconstruct")

	A := [][]float64{
		{2, 0},
		{0, 3},
		{0, 0},
	}
	res, err := SVD(A)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	// U * diag(S) * Vt should reconstruct A
	Sfull := Alloc(len(res.U), len(res.Vt))
	for i, s := range res.S {
		Sfull[i][i] = s
	}
	US, err := MulMatMat(res.U, Sfull)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	rec, err := MulMatMat(US, res.Vt)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Matrix(tst, "reconstructed A", 1e-10, rec, A)
}

func TestPseudoInverseOfDiagonal(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pseudo-inverse of diagonal")

	A := [][]float64{
		{2, 0, 0},
		{0, 4, 0},
	}
	P, err := PseudoInverse(A, 0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Matrix(tst, "pinv(A)", 1e-10, P, [][]float64{
		{0.5, 0},
		{0, 0.25},
		{0, 0},
	})
}

func TestNullSpaceRank(tst *testing.T) {

	//verbose()
	chk.PrintTitle("null space rank")

	// A is 1x3, rank 1 -> null space has 2 dimensions
	A := [][]float64{{1, 1, 1}}
	Z, err := NullSpace(A, 0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	if len(Z) != 3 || len(Z[0]) != 2 {
		tst.Errorf("test failed: expected 3x2 null space, got %dx%d\n", len(Z), len(Z[0]))
		return
	}
	// A*Z should be (approximately) zero
	for j := 0; j < 2; j++ {
		col := GetCol(Z, j)
		Az, err := MulMatVec(A, col)
		if err != nil {
			tst.Errorf("test failed: %v\n", err)
			return
		}
		chk.Scalar(tst, "A*Z column", 1e-10, Az[0], 0)
	}
}
