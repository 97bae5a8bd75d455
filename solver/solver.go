// Package solver defines the contract between a problem formulation and a constrained nonlinear
// program (NLP) solver, and provides an nlopt-backed implementation.
//
// A Problem is
//
//	minimize f(x) subject to ConsLower <= g(x) <= ConsUpper and VarLower <= x <= VarUpper
//
// where f and g are supplied together by a Function that can also produce exact derivatives.
package solver

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Infinity is the magnitude at which a bound is treated as absent.
const Infinity = 1e19

// Function evaluates an objective and its constraints.
type Function interface {
	// Evaluate returns f(x) and g(x).
	Evaluate(x []float64) (float64, []float64)
	// Derivatives returns f(x) and g(x), and writes the gradient of f into grad (len(x)) and the
	// row-major Jacobian of g into jac (len(g)*len(x)).
	Derivatives(x, grad, jac []float64) (float64, []float64)
}

// Problem is a single solve request. Slices are owned by the caller and not modified.
type Problem struct {
	X0        []float64
	VarLower  []float64
	VarUpper  []float64
	ConsLower []float64
	ConsUpper []float64
	Func      Function
}

// NumVars is the number of decision variables.
func (p *Problem) NumVars() int {
	return len(p.X0)
}

// NumConstraints is the number of constraint rows.
func (p *Problem) NumConstraints() int {
	return len(p.ConsLower)
}

// Validate checks dimensions and that the initial guess lies within the variable bounds.
func (p *Problem) Validate() error {
	if p.Func == nil {
		return errors.New("problem has no function")
	}
	n, m := p.NumVars(), p.NumConstraints()
	if n == 0 {
		return errors.New("problem has no variables")
	}
	var err error
	if len(p.VarLower) != n || len(p.VarUpper) != n {
		err = multierr.Append(err, errors.Errorf("expected %d variable bounds, got %d lower and %d upper",
			n, len(p.VarLower), len(p.VarUpper)))
	}
	if len(p.ConsUpper) != m {
		err = multierr.Append(err, errors.Errorf("expected %d constraint upper bounds, got %d", m, len(p.ConsUpper)))
	}
	if err != nil {
		return err
	}
	for i, x := range p.X0 {
		if p.VarLower[i] > p.VarUpper[i] {
			err = multierr.Append(err, errors.Errorf("variable %d has lower bound %v above upper bound %v",
				i, p.VarLower[i], p.VarUpper[i]))
			continue
		}
		if x < p.VarLower[i] || x > p.VarUpper[i] || math.IsNaN(x) {
			err = multierr.Append(err, errors.Errorf("initial value %v of variable %d outside [%v, %v]",
				x, i, p.VarLower[i], p.VarUpper[i]))
		}
	}
	for i := range p.ConsLower {
		if p.ConsLower[i] > p.ConsUpper[i] {
			err = multierr.Append(err, errors.Errorf("constraint %d has lower bound %v above upper bound %v",
				i, p.ConsLower[i], p.ConsUpper[i]))
		}
	}
	return err
}

// Solution is the outcome of a solve. X is always populated with the best iterate available, even
// when Status is not StatusSuccess.
type Solution struct {
	Status       Status
	Cost         float64
	X            []float64
	MaxViolation float64
	Evaluations  int
	Duration     time.Duration
}

// Solver solves constrained NLPs. Implementations return an error only for malformed problems; an
// unsuccessful optimization is reported through Solution.Status.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// MaxViolation returns the largest amount by which cons falls outside [lower, upper].
func MaxViolation(cons, lower, upper []float64) float64 {
	worst := 0.0
	for i, c := range cons {
		if math.IsNaN(c) {
			return math.Inf(1)
		}
		if v := lower[i] - c; v > worst {
			worst = v
		}
		if v := c - upper[i]; v > worst {
			worst = v
		}
	}
	return worst
}

// isUnbounded reports whether b stands for "no bound".
func isUnbounded(b float64) bool {
	return math.IsInf(b, 0) || math.Abs(b) >= Infinity
}
