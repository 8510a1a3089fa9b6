package prs

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestMonomialCount(tst *testing.T) {

	//verbose()
	chk.PrintTitle("monomial count")

	chk.IntAssert(MonomialCount(3, 2), 10)
	chk.IntAssert(MonomialCount(5, 2), 21)
	chk.IntAssert(MonomialCount(4, 3), 35)
}

// identityTrainingSet builds an unscaled (a=1,b=0) training set from raw
// samples X and outputs Z.
func identityTrainingSet(X, Z [][]float64) *TrainingSet {
	nRaw := len(X[0])
	m := len(Z[0])
	ax := make([]float64, nRaw)
	bx := make([]float64, nRaw)
	az := make([]float64, m)
	bz := make([]float64, m)
	for j := range ax {
		ax[j] = 1
	}
	for k := range az {
		az[k] = 1
	}
	return &TrainingSet{X: X, Z: Z, AX: ax, BX: bx, AZ: az, BZ: bz}
}

func TestFitExactQuadratic(tst *testing.T) {

	//verbose()
	chk.PrintTitle("fit exact quadratic")

	// f(x1,x2) = 2 + 3 x1 - x2 + x1^2 + 0.5 x1 x2 + 2 x2^2
	f := func(x1, x2 float64) float64 {
		return 2 + 3*x1 - x2 + x1*x1 + 0.5*x1*x2 + 2*x2*x2
	}
	var X, Z [][]float64
	pts := []float64{-2, -1, -0.3, 0, 0.4, 1, 1.7, 2, 2.5, 3}
	for _, x1 := range pts {
		for _, x2 := range pts {
			X = append(X, []float64{x1, x2})
			Z = append(Z, []float64{f(x1, x2)})
		}
	}
	ts := identityTrainingSet(X, Z)
	mdl, err := Fit(ts, 2, 0, 0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	if !mdl.Ready() {
		tst.Errorf("test failed: model not ready\n")
		return
	}

	// round-trip: evaluate at arbitrary probes not in the training set
	probes := [][]float64{{0.123, -0.456}, {2.2, -1.9}, {-3, 3}}
	for _, p := range probes {
		y, err := mdl.Predict([][]float64{p})
		if err != nil {
			tst.Errorf("test failed: %v\n", err)
			return
		}
		chk.Scalar(tst, "f(probe)", 1e-8, y[0][0], f(p[0], p[1]))
	}
}

func TestGradientHessianVsFiniteDifference(tst *testing.T) {

	//verbose()
	chk.PrintTitle("gradient/hessian vs finite differences")

	f := func(x1, x2 float64) float64 {
		return 1 - 2*x1 + 0.5*x2 + 1.5*x1*x1 - x1*x2 + 3*x2*x2
	}
	var X, Z [][]float64
	pts := []float64{-2, -1, 0, 0.5, 1, 1.5, 2, 2.7}
	for _, x1 := range pts {
		for _, x2 := range pts {
			X = append(X, []float64{x1, x2})
			Z = append(Z, []float64{f(x1, x2)})
		}
	}
	ts := identityTrainingSet(X, Z)
	mdl, err := Fit(ts, 2, 0, 0)
	if err != nil || !mdl.Ready() {
		tst.Errorf("test failed: fit did not succeed: %v\n", err)
		return
	}

	x := []float64{0.3, -0.7}
	h := 1e-4
	fd := func(i int) float64 {
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[i] += h
		xm[i] -= h
		return (f(xp[0], xp[1]) - f(xm[0], xm[1])) / (2 * h)
	}
	g, err := mdl.Gradient(x, 0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "df/dx1", 1e-5, g[0], fd(0))
	chk.Scalar(tst, "df/dx2", 1e-5, g[1], fd(1))

	H, err := mdl.Hessian(x, 0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	// analytic Hessian of f is constant: [[3,-1],[-1,6]]
	chk.Matrix(tst, "Hessian", 1e-8, H, [][]float64{
		{3, -1},
		{-1, 6},
	})
}

func TestScaleInvariance(tst *testing.T) {

	//verbose()
	chk.PrintTitle("scale invariance")

	f := func(x1, x2 float64) float64 {
		return -1 + x1 - 2*x2 + x1*x1 + x1*x2 + x2*x2
	}
	var X, Z [][]float64
	pts := []float64{-3, -1, 0, 1, 2, 3, 4}
	for _, x1 := range pts {
		for _, x2 := range pts {
			X = append(X, []float64{x1, x2})
			Z = append(Z, []float64{f(x1, x2)})
		}
	}

	// direct fit, unscaled
	tsDirect := identityTrainingSet(X, Z)
	mDirect, err := Fit(tsDirect, 2, 0, 0)
	if err != nil || !mDirect.Ready() {
		tst.Errorf("test failed: direct fit\n")
		return
	}

	// scaled fit: x_scaled = 2*x+1, z_scaled = 3*z-2
	a, b, az, bz := 2.0, 1.0, 3.0, -2.0
	tsScaled := &TrainingSet{X: X, Z: Z, AX: []float64{a, a}, BX: []float64{b, b}, AZ: []float64{az}, BZ: []float64{bz}}
	mScaled, err := Fit(tsScaled, 2, 0, 0)
	if err != nil || !mScaled.Ready() {
		tst.Errorf("test failed: scaled fit\n")
		return
	}

	probe := []float64{0.7, -1.3}
	yDirect, _ := mDirect.Predict([][]float64{probe})
	probeScaled := []float64{a*probe[0] + b, a*probe[1] + b}
	yScaled, _ := mScaled.Predict([][]float64{probeScaled})
	// yScaled is in scaled-output space: unscale then compare
	unscaled := (yScaled[0][0] - bz) / az
	chk.Scalar(tst, "scale-invariant prediction", 1e-8, unscaled, yDirect[0][0])
}
