package bcqp

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/bbopt/nomad-sub001/qmodel"
)

func TestUnconstrainedConvex(tst *testing.T) {

	//verbose()
	chk.PrintTitle("unconstrained convex quadratic")

	// q(x) = (x1-3)^2 + 2(x2+1)^2 = x1^2-6x1+9 + 2x2^2+4x2+2
	H := [][]float64{{2, 0}, {0, 4}}
	g := []float64{-6, 4}
	g0 := 11.0
	l := []float64{-10, -10}
	u := []float64{10, 10}
	x0 := []float64{0, 0}

	x, status, improved := Solve(H, g, g0, l, u, x0, DefaultParams())
	if status != qmodel.Solved {
		tst.Errorf("test failed: status=%v\n", status)
	}
	if !improved {
		tst.Errorf("test failed: expected improved=true\n")
	}
	chk.Vector(tst, "x*", 1e-5, x, []float64{3, -1})
}

func TestActiveBoundAtOptimum(tst *testing.T) {

	//verbose()
	chk.PrintTitle("active bound at optimum")

	// q(x) = x1^2 + x2^2
	H := [][]float64{{2, 0}, {0, 2}}
	g := []float64{0, 0}
	l := []float64{1, -10}
	u := []float64{10, 10}
	x0 := []float64{5, 5}

	x, status, improved := Solve(H, g, 0, l, u, x0, DefaultParams())
	if status != qmodel.Solved && status != qmodel.MaxIterReached {
		tst.Errorf("test failed: status=%v\n", status)
	}
	if !improved {
		tst.Errorf("test failed: expected improved=true\n")
	}
	chk.Vector(tst, "x*", 1e-4, x, []float64{1, 0})
}

func TestIndefiniteOnBox(tst *testing.T) {

	//verbose()
	chk.PrintTitle("indefinite QP on bounded box")

	// q(x) = -x1^2 + x2^2, bounds [-1,1]^2
	H := [][]float64{{-2, 0}, {0, 2}}
	g := []float64{0, 0}
	l := []float64{-1, -1}
	u := []float64{1, 1}
	x0 := []float64{0.5, 0.5}

	x, status, improved := Solve(H, g, 0, l, u, x0, DefaultParams())
	if !improved {
		tst.Errorf("test failed: expected improved=true\n")
	}
	// x1 should land on a corner (+-1), x2 should land at 0
	qStar := -x[0]*x[0] + x[1]*x[1]
	chk.Scalar(tst, "q*", 1e-3, qStar, -1)
	_ = status
}

func TestDimensionError(tst *testing.T) {

	//verbose()
	chk.PrintTitle("dimension error")

	H := [][]float64{{1, 0}, {0, 1}}
	g := []float64{0, 0, 0}
	_, status, _ := Solve(H, g, 0, []float64{0, 0}, []float64{1, 1}, []float64{0, 0}, DefaultParams())
	if status != qmodel.DimensionError {
		tst.Errorf("test failed: expected DimensionError, got %v\n", status)
	}
}

func TestBoundsError(tst *testing.T) {

	//verbose()
	chk.PrintTitle("bounds error")

	H := [][]float64{{1, 0}, {0, 1}}
	g := []float64{0, 0}
	_, status, _ := Solve(H, g, 0, []float64{1, 0}, []float64{0, 1}, []float64{0, 0}, DefaultParams())
	if status != qmodel.BoundsError {
		tst.Errorf("test failed: expected BoundsError, got %v\n", status)
	}
}

func TestFeasibilityAlwaysMaintained(tst *testing.T) {

	//verbose()
	chk.PrintTitle("feasibility maintained")

	H := [][]float64{{3, 1}, {1, 2}}
	g := []float64{1, -2}
	l := []float64{-1, -1}
	u := []float64{1, 1}
	x0 := []float64{0.9, -0.9}

	x, _, _ := Solve(H, g, 0, l, u, x0, DefaultParams())
	for i := range x {
		if x[i] < l[i]-1e-9 || x[i] > u[i]+1e-9 {
			tst.Errorf("test failed: x[%d]=%v outside [%v,%v]\n", i, x[i], l[i], u[i])
		}
	}
}
