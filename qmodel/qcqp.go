// Package qmodel defines the QCQP model type shared by every solver and
// the extractor that builds one from a fitted prs.Model (spec section 4.3).
package qmodel

import "github.com/cpmech/gosl/chk"

// Row is one quadratic function of the QCQP: f(x) = Const + Lin.x +
// 1/2 x^T Quad x. Row 0 of a QCQP is always the objective; rows 1..NCons
// are inequality constraints under the convention c_j(x) <= 0.
type Row struct {
	Const float64
	Lin   []float64   // length n
	Quad  [][]float64 // n x n, symmetric
}

// Eval returns f(x) for this row.
func (r *Row) Eval(x []float64) float64 {
	v := r.Const
	for i, g := range r.Lin {
		v += g * x[i]
	}
	if r.Quad != nil {
		for i, row := range r.Quad {
			xi := x[i]
			if xi == 0 {
				continue
			}
			var s float64
			for j, h := range row {
				s += h * x[j]
			}
			v += 0.5 * xi * s
		}
	}
	return v
}

// Grad returns the gradient of this row at x: Lin + Quad*x.
func (r *Row) Grad(x []float64) []float64 {
	n := len(r.Lin)
	g := make([]float64, n)
	copy(g, r.Lin)
	if r.Quad != nil {
		for i := 0; i < n; i++ {
			var s float64
			for j, h := range r.Quad[i] {
				s += h * x[j]
			}
			g[i] += s
		}
	}
	return g
}

// QCQP is the quadratically constrained quadratic program extracted from a
// PRS surrogate: Rows[0] is the objective, Rows[1:] are the inequality
// constraints c_j(x) <= 0 (spec section 3, "QCQP model").
type QCQP struct {
	N    int // number of (active) decision variables
	Rows []Row
}

// NCons returns the number of inequality constraints (len(Rows)-1).
func (q *QCQP) NCons() int { return len(q.Rows) - 1 }

// Objective returns row 0.
func (q *QCQP) Objective() *Row { return &q.Rows[0] }

// Constraint returns row 1+j (0-indexed over the m_c constraints).
func (q *QCQP) Constraint(j int) *Row { return &q.Rows[1+j] }

// EvalCons returns [c_1(x), ..., c_mc(x)].
func (q *QCQP) EvalCons(x []float64) []float64 {
	out := make([]float64, q.NCons())
	for j := 0; j < q.NCons(); j++ {
		out[j] = q.Constraint(j).Eval(x)
	}
	return out
}

// JacobianCons returns the m_c x n Jacobian of the constraints at x.
func (q *QCQP) JacobianCons(x []float64) [][]float64 {
	out := make([][]float64, q.NCons())
	for j := 0; j < q.NCons(); j++ {
		out[j] = q.Constraint(j).Grad(x)
	}
	return out
}

// CheckShape validates that every row's Lin/Quad dimensions agree with N.
func (q *QCQP) CheckShape() error {
	for i, row := range q.Rows {
		if len(row.Lin) != q.N {
			return chk.Err("qmodel.QCQP: row %d linear term has length %d, expected %d", i, len(row.Lin), q.N)
		}
		if row.Quad != nil {
			if len(row.Quad) != q.N {
				return chk.Err("qmodel.QCQP: row %d quadratic term has %d rows, expected %d", i, len(row.Quad), q.N)
			}
			for r, qr := range row.Quad {
				if len(qr) != q.N {
					return chk.Err("qmodel.QCQP: row %d quadratic term row %d has length %d, expected %d", i, r, len(qr), q.N)
				}
			}
		}
	}
	return nil
}
