package l1auglag

import (
	"math"
	"sort"

	"github.com/bbopt/nomad-sub001/qmodel"
)

const gammaMax = 10.0
const gammaFloor = 1e-20
const armijoConst = 1e-4

// piecewiseLineSearch scales direction d at x by the breakpoint-walk line
// search of spec section 4.6.1: for every bound and non-active constraint,
// find the positive roots at which d crosses that face, start from the
// largest breakpoint not beyond gammaMax (gammaMax itself when there is
// none), then backtrack by 1/1.5 until phi drops by at least armijoConst,
// flooring at 1e-20. The slope of phi on each segment between breakpoints
// is not examined.
func piecewiseLineSearch(q *qmodel.QCQP, x, d, lambda []float64, mu float64, l, u []float64, active []int) float64 {
	activeSet := map[int]bool{}
	for _, j := range active {
		activeSet[j] = true
	}

	var breaks []float64
	for i := range x {
		if d[i] > 1e-14 {
			if g := (u[i] - x[i]) / d[i]; g > 1e-14 {
				breaks = append(breaks, g)
			}
		} else if d[i] < -1e-14 {
			if g := (l[i] - x[i]) / d[i]; g > 1e-14 {
				breaks = append(breaks, g)
			}
		}
	}
	for j := 0; j < q.NCons(); j++ {
		if activeSet[j] {
			continue
		}
		cons := q.Constraint(j)
		c0 := cons.Eval(x)
		b := dotRowDir(cons.Grad(x), d)
		a := 0.5 * quadDirForm(cons.Quad, d)
		for _, g := range positiveRoots(a, b, c0) {
			breaks = append(breaks, g)
		}
	}
	sort.Float64s(breaks)

	gamma := gammaMax
	for i := len(breaks) - 1; i >= 0; i-- {
		if breaks[i] <= gammaMax {
			gamma = breaks[i]
			break
		}
	}

	phi0 := phi(q, x, lambda, mu)
	for gamma > gammaFloor {
		xt := stepBy(x, d, gamma)
		if phi(q, xt, lambda, mu) <= phi0-armijoConst {
			return gamma
		}
		gamma /= 1.5
	}
	return 0
}

func dotRowDir(row, d []float64) float64 {
	var s float64
	for i := range row {
		s += row[i] * d[i]
	}
	return s
}

func quadDirForm(Quad [][]float64, d []float64) float64 {
	if Quad == nil {
		return 0
	}
	var s float64
	for i, row := range Quad {
		di := d[i]
		if di == 0 {
			continue
		}
		var rowSum float64
		for j, h := range row {
			rowSum += h * d[j]
		}
		s += di * rowSum
	}
	return s
}

// positiveRoots returns every positive root of a*g^2+b*g+c=0 (unsorted),
// degenerating to the linear case when a~=0.
func positiveRoots(a, b, c float64) []float64 {
	const tiny = 1e-14
	if math.Abs(a) < tiny {
		if math.Abs(b) < tiny {
			return nil
		}
		g := -c / b
		if g > 0 {
			return []float64{g}
		}
		return nil
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	g1 := (-b + sq) / (2 * a)
	g2 := (-b - sq) / (2 * a)
	var out []float64
	if g1 > 0 {
		out = append(out, g1)
	}
	if g2 > 0 {
		out = append(out, g2)
	}
	return out
}

func stepBy(x, d []float64, gamma float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + gamma*d[i]
	}
	return out
}
