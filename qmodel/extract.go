package qmodel

import (
	"github.com/cpmech/gosl/chk"

	"github.com/bbopt/nomad-sub001/dmat"
	"github.com/bbopt/nomad-sub001/prs"
)

// Extract converts a fitted, degree<=2 PRS model into a QCQP on the raw
// (un-scaled) active coordinates, applying the input affine substitution
// and output un-scaling of spec section 4.3. Row 0 is the objective
// (PRS output 0); rows 1..m-1 are the inequality constraints c_j(x)<=0
// (PRS outputs 1..m-1).
func Extract(mdl *prs.Model) (*QCQP, error) {
	if !mdl.Ready() {
		return nil, chk.Err("qmodel.Extract: PRS model is not ready")
	}
	if mdl.Degree() > 2 {
		return nil, chk.Err("qmodel.Extract: PRS degree %d > 2, not representable as a QCQP", mdl.Degree())
	}
	n := mdl.NVar()
	M := mdl.MonomialTable()
	alpha := mdl.Coefficients()
	active := mdl.ActiveIndices()

	q := &QCQP{N: n, Rows: make([]Row, mdl.NOut())}
	for k := 0; k < mdl.NOut(); k++ {
		c0, lin, quad := scaledQuadraticParts(M, alpha, k, n)
		// step 1 (fold into scaledQuadraticParts): diagonal already
		// doubled so quad encodes the convention f = c0+lin.x+1/2 x^T quad x.

		// step 2: affine input substitution x_scaled = D x_raw + b
		D := make([]float64, n)
		b := make([]float64, n)
		for j, raw := range active {
			D[j], b[j] = mdl.InputScaling(raw)
		}
		c0, lin, quad = substituteAffine(c0, lin, quad, D, b)

		// step 3: output un-scaling f_raw = (f_scaled - bz)/az
		az, bz := mdl.OutputScaling(k)
		c0 = (c0 - bz) / az
		for i := range lin {
			lin[i] /= az
		}
		for i := range quad {
			for j := range quad[i] {
				quad[i][j] /= az
			}
		}

		q.Rows[k] = Row{Const: c0, Lin: lin, Quad: quad}
	}
	if err := q.CheckShape(); err != nil {
		return nil, err
	}
	return q, nil
}

// scaledQuadraticParts reads the monomial table/coefficients for output k
// and packs them into (const, linear, quadratic) in the scaled-variable
// space, doubling diagonal entries so the quadratic form is 1/2 x^T H x
// (spec section 4.3 step 1).
func scaledQuadraticParts(M [][]int, alpha [][]float64, k, n int) (c0 float64, lin []float64, quad [][]float64) {
	lin = make([]float64, n)
	quad = dmat.Alloc(n, n)
	for r, exps := range M {
		deg, nz1, nz2 := 0, -1, -1
		for j, e := range exps {
			deg += e
			if e > 0 {
				if nz1 == -1 {
					nz1 = j
				} else if nz2 == -1 {
					nz2 = j
				}
			}
		}
		a := alpha[r][k]
		switch deg {
		case 0:
			c0 = a
		case 1:
			lin[nz1] = a
		case 2:
			if nz2 == -1 {
				// pure square term x_j^2
				quad[nz1][nz1] = 2 * a
			} else {
				// cross term x_i x_j
				quad[nz1][nz2] = a
				quad[nz2][nz1] = a
			}
		}
	}
	return
}

// substituteAffine computes the (const, linear, quadratic) parts of
// q(Dx+b) given q's own (const, linear, quadratic) parts, per spec
// section 4.3 step 2:
//
//	q(Dx+b) = q(b) + (D grad q(b))^T x + 1/2 x^T (D H D) x
func substituteAffine(c0 float64, lin []float64, quad [][]float64, D, b []float64) (newC0 float64, newLin []float64, newQuad [][]float64) {
	n := len(lin)
	Hb := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < n; j++ {
			s += quad[i][j] * b[j]
		}
		Hb[i] = s
	}
	var linDotB, bHb float64
	for i := 0; i < n; i++ {
		linDotB += lin[i] * b[i]
		bHb += b[i] * Hb[i]
	}
	newC0 = c0 + linDotB + 0.5*bHb

	newLin = make([]float64, n)
	for i := 0; i < n; i++ {
		newLin[i] = D[i] * (lin[i] + Hb[i])
	}

	newQuad = dmat.Alloc(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			newQuad[i][j] = D[i] * quad[i][j] * D[j]
		}
	}
	return
}
