package prs

import "github.com/cpmech/gosl/chk"

// scaledActive projects a raw-space point x (length NRaw) onto the active
// coordinates and applies the input scaling, returning a length-NVar
// scaled vector.
func (mdl *Model) scaledActive(xRaw []float64) []float64 {
	out := make([]float64, len(mdl.active))
	for j, raw := range mdl.active {
		out[j] = mdl.ax[raw]*xRaw[raw] + mdl.bx[raw]
	}
	return out
}

// Predict evaluates the fitted surface at already-scaled query points
// (spec section 4.2: "For a query x (already scaled) ..."), returning the
// k x m matrix of scaled predictions y = h(x) . alpha. The model must be
// Ready().
func (mdl *Model) Predict(Xscaled [][]float64) ([][]float64, error) {
	if !mdl.ready {
		return nil, chk.Err("prs.Predict: model is not ready")
	}
	k := len(Xscaled)
	out := make([][]float64, k)
	for i, x := range Xscaled {
		if len(x) != mdl.NVar() {
			return nil, chk.Err("prs.Predict: query point %d has length %d, expected %d", i, len(x), mdl.NVar())
		}
		h := monomialRow(mdl.M, x)
		row := make([]float64, mdl.m)
		for col := 0; col < mdl.m; col++ {
			var s float64
			for r, hv := range h {
				s += hv * mdl.Alpha[r][col]
			}
			row[col] = s
		}
		out[i] = row
	}
	return out, nil
}

// differentiate returns the derivative table obtained from (M, alpha) by
// decrementing column varIdx's exponent and scaling each row's
// coefficients by the original exponent (spec section 4.2: "the
// derivative-wrt-x_i matrix is obtained from M by decrementing column i's
// exponent and multiplying each row's alpha by the original exponent").
func differentiate(M [][]int, alpha [][]float64, varIdx int) *diffTable {
	q := len(M)
	nvar := 0
	if q > 0 {
		nvar = len(M[0])
	}
	m := 0
	if q > 0 {
		m = len(alpha[0])
	}
	Mp := make([][]int, q)
	Ap := make([][]float64, q)
	for r := 0; r < q; r++ {
		e := M[r][varIdx]
		row := make([]int, nvar)
		copy(row, M[r])
		arow := make([]float64, m)
		if e > 0 {
			row[varIdx] = e - 1
			for c := 0; c < m; c++ {
				arow[c] = float64(e) * alpha[r][c]
			}
		}
		Mp[r] = row
		Ap[r] = arow
	}
	return &diffTable{M: Mp, Alpha: Ap}
}

// gradTable returns (building and caching on first use) the derivative
// table wrt active-coordinate i.
func (mdl *Model) gradTable(i int) *diffTable {
	if t, ok := mdl.gradTables[i]; ok {
		return t
	}
	t := differentiate(mdl.M, mdl.Alpha, i)
	mdl.gradTables[i] = t
	return t
}

// hessTable returns the second-derivative table wrt active coordinates
// (i,j), built by differentiating the i-gradient table wrt j (or
// symmetrically) and cached.
func (mdl *Model) hessTable(i, j int) *diffTable {
	key := [2]int{i, j}
	if i > j {
		key = [2]int{j, i}
	}
	if t, ok := mdl.hessTables[key]; ok {
		return t
	}
	gi := mdl.gradTable(key[0])
	t := differentiate(gi.M, gi.Alpha, key[1])
	mdl.hessTables[key] = t
	return t
}

func evalTable(t *diffTable, x []float64) []float64 {
	h := monomialRow(t.M, x)
	m := 0
	if len(t.Alpha) > 0 {
		m = len(t.Alpha[0])
	}
	out := make([]float64, m)
	for r, hv := range h {
		if hv == 0 {
			continue
		}
		for c := 0; c < m; c++ {
			out[c] += hv * t.Alpha[r][c]
		}
	}
	return out
}

// Gradient returns the raw-space gradient (length NVar, ordered by active
// coordinate) of output k at the raw-space point xRaw, un-scaled per spec
// section 4.2: d f/d x_raw,j = (d f/d x_scaled,j) * a_x,j / a_z,k.
func (mdl *Model) Gradient(xRaw []float64, k int) ([]float64, error) {
	if !mdl.ready {
		return nil, chk.Err("prs.Gradient: model is not ready")
	}
	if k < 0 || k >= mdl.m {
		return nil, chk.Err("prs.Gradient: output index %d out of range [0,%d)", k, mdl.m)
	}
	xs := mdl.scaledActive(xRaw)
	g := make([]float64, mdl.NVar())
	for i, raw := range mdl.active {
		vals := evalTable(mdl.gradTable(i), xs)
		g[i] = vals[k] * mdl.ax[raw] / mdl.az[k]
	}
	return g, nil
}

// Hessian returns the raw-space Hessian (NVar x NVar) of output k at the
// raw-space point xRaw, un-scaled per spec section 4.2: d2 f/d x_raw,i d
// x_raw,j scales by a_x,i * a_x,j / a_z,k.
func (mdl *Model) Hessian(xRaw []float64, k int) ([][]float64, error) {
	if !mdl.ready {
		return nil, chk.Err("prs.Hessian: model is not ready")
	}
	if k < 0 || k >= mdl.m {
		return nil, chk.Err("prs.Hessian: output index %d out of range [0,%d)", k, mdl.m)
	}
	xs := mdl.scaledActive(xRaw)
	n := mdl.NVar()
	H := make([][]float64, n)
	for i := 0; i < n; i++ {
		H[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		rawI := mdl.active[i]
		for j := i; j < n; j++ {
			rawJ := mdl.active[j]
			vals := evalTable(mdl.hessTable(i, j), xs)
			v := vals[k] * mdl.ax[rawI] * mdl.ax[rawJ] / mdl.az[k]
			H[i][j] = v
			H[j][i] = v
		}
	}
	return H, nil
}

// JacobianCons returns the m_c x NVar Jacobian of the constraint outputs
// (outputs 1..m-1, by the row-0-is-objective convention shared with
// qmodel) at the raw-space point xRaw.
func (mdl *Model) JacobianCons(xRaw []float64) ([][]float64, error) {
	if !mdl.ready {
		return nil, chk.Err("prs.JacobianCons: model is not ready")
	}
	mc := mdl.m - 1
	J := make([][]float64, mc)
	for k := 1; k < mdl.m; k++ {
		g, err := mdl.Gradient(xRaw, k)
		if err != nil {
			return nil, err
		}
		J[k-1] = g
	}
	return J, nil
}

// ActiveIndices returns the raw-space indices of the active (non-fixed)
// coordinates, in the order used by Gradient/Hessian/JacobianCons.
func (mdl *Model) ActiveIndices() []int {
	out := make([]int, len(mdl.active))
	copy(out, mdl.active)
	return out
}

// Fixed reports whether raw coordinate j was removed from the active
// dimension for lack of variation in the training set.
func (mdl *Model) Fixed(j int) bool {
	if j < 0 || j >= len(mdl.fixed) {
		return false
	}
	return mdl.fixed[j]
}

// OutputScaling returns the output scaling factors (a_z, b_z) for output k.
func (mdl *Model) OutputScaling(k int) (a, b float64) { return mdl.az[k], mdl.bz[k] }

// InputScaling returns the input scaling factors (a_x, b_x) for raw
// coordinate j.
func (mdl *Model) InputScaling(j int) (a, b float64) { return mdl.ax[j], mdl.bx[j] }

// Degree returns the total-degree bound the model was fitted with.
func (mdl *Model) Degree() int { return mdl.degree }

// NOut returns the number of fitted outputs (objective + constraints).
func (mdl *Model) NOut() int { return mdl.m }

// MonomialTable returns the q x NVar exponent table M used by the fit, in
// the graded order produced by monomialsUpTo (row 0 is the constant
// monomial). Needed by
// qmodel to extract a QCQP's (const, linear, quadratic) parts directly
// from the coefficient columns rather than by repeated point evaluation.
func (mdl *Model) MonomialTable() [][]int { return mdl.M }

