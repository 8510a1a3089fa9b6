package dmat

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestMulMatVec(tst *testing.T) {

	//verbose()
	chk.PrintTitle("MulMatVec")

	A := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}
	x := []float64{1, 1, 1}
	y, err := MulMatVec(A, x)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "y", 1e-15, y, []float64{6, 15})
}

func TestMulMatMatAndTranspose(tst *testing.T) {

	//verbose()
	chk.PrintTitle("MulMatMat and Transpose")

	A := [][]float64{
		{1, 2},
		{3, 4},
		{5, 6},
	}
	At := Transpose(A)
	chk.Matrix(tst, "A^T", 1e-15, At, [][]float64{
		{1, 3, 5},
		{2, 4, 6},
	})

	AtA, err := MulMatTrMat(A, A)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Matrix(tst, "A^T A", 1e-15, AtA, [][]float64{
		{35, 44},
		{44, 56},
	})
}

func TestNorms(tst *testing.T) {

	//verbose()
	chk.PrintTitle("norms")

	v := []float64{3, 4}
	chk.Scalar(tst, "L2", 1e-15, NormL2(v), 5)
	chk.Scalar(tst, "Linf", 1e-15, NormLinf([]float64{-7, 2, 5}), 7)

	M := [][]float64{{1, 2}, {2, 1}}
	chk.Scalar(tst, "Fro", 1e-14, NormFro(M), 3.1622776601683795)
}

func TestHasNaNOrInf(tst *testing.T) {

	//verbose()
	chk.PrintTitle("HasNaNOrInf")

	good := [][]float64{{1, 2}, {3, 4}}
	if HasNaNOrInf(good) {
		tst.Errorf("test failed: good matrix flagged as NaN/Inf\n")
	}
	bad := [][]float64{{1, 2}, {3, nanValue()}}
	if !HasNaNOrInf(bad) {
		tst.Errorf("test failed: NaN not detected\n")
	}
}

func nanValue() float64 {
	var z float64
	return z / z
}
