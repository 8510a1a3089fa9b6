package qmodel

// Status is the common outcome enum returned by every solver in this
// module (bcqp, auglag, l1auglag, tripm), per spec section 6 "External
// interfaces": "Each returns a status enum ... plus the final iterate."
type Status int

const (
	// Undefined is the zero value: no solve was attempted.
	Undefined Status = iota
	// Solved indicates the solver reached its convergence criterion.
	Solved
	// MaxIterReached indicates the iteration cap was hit; the returned
	// iterate is the best found so far.
	MaxIterReached
	// Stagnation indicates successive iterates stopped moving (spec
	// section 7: "successive iterates differ by <= tol_dx"). auglag and
	// tripm also report it after too many successive failed outer
	// iterations or when mu has collapsed, and lmfeas.SolveOnly when the
	// feasibility pass made no progress.
	Stagnation
	// BoundsError indicates l>u somewhere in the box constraints. tripm,
	// which needs a strict interior, also reports it when l==u for some
	// variable.
	BoundsError
	// DimensionError indicates a shape mismatch between H, g, l, u, x0.
	DimensionError
	// NumericalError indicates an SVD/LDLt non-convergence or a NaN
	// appearing in a computed direction or coefficient.
	NumericalError
	// ParamError indicates an invalid configuration, e.g. an unknown
	// algorithm selector code (spec section 9 open question).
	ParamError
	// TightBounds indicates |u-l| <= 1e-8 for every variable (bcqp): the
	// solve was skipped and the projected x0 returned directly.
	TightBounds
	// TooManyActiveConstraints indicates the active set reached n with
	// the minimum active-set tolerance, per spec section 7.
	TooManyActiveConstraints
)

// String renders the status the way a log line would name it.
func (s Status) String() string {
	switch s {
	case Undefined:
		return "Undefined"
	case Solved:
		return "Solved"
	case MaxIterReached:
		return "MaxIterReached"
	case Stagnation:
		return "Stagnation"
	case BoundsError:
		return "BoundsError"
	case DimensionError:
		return "DimensionError"
	case NumericalError:
		return "NumericalError"
	case ParamError:
		return "ParamError"
	case TightBounds:
		return "TightBounds"
	case TooManyActiveConstraints:
		return "TooManyActiveConstraints"
	}
	return "Unknown"
}

// Algorithm selects which general-QCQP solver Dispatch (package solve)
// should run, mirroring the original integer code in QPSolverOptimize.hpp
// (spec section 9 open question: codes >=4 are undefined in the source;
// this port resolves that by reporting ParamError instead of a silent
// no-op -- see DESIGN.md).
type Algorithm int

const (
	AlgoAugLag Algorithm = iota
	AlgoTRIPM
	AlgoL1AugLag
	AlgoFeasibilityOnly
)
