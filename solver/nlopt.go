//go:build !windows && !no_cgo

package solver

import (
	"context"
	"math"
	"time"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/mpc/logging"
)

// NloptSolver solves problems with nlopt's SLSQP, a sequential quadratic programming method that uses
// the exact gradients and Jacobians supplied by the Function.
type NloptSolver struct {
	opts   Options
	logger logging.Logger
}

// NewNloptSolver returns an SLSQP solver with the given options.
func NewNloptSolver(opts Options, logger logging.Logger) (*NloptSolver, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid solver options")
	}
	return &NloptSolver{opts: opts, logger: logger}, nil
}

// constraintRow is one scalar nlopt constraint derived from a problem constraint. nlopt wants
// equalities as h(x) = 0 and inequalities as c(x) <= 0.
type constraintRow struct {
	index  int
	offset float64
	sign   float64
}

func splitConstraints(lower, upper []float64) (eq, ineq []constraintRow) {
	for i := range lower {
		lo, hi := lower[i], upper[i]
		if lo == hi {
			eq = append(eq, constraintRow{index: i, offset: lo, sign: 1})
			continue
		}
		if !isUnbounded(lo) {
			// lo - g(x) <= 0
			ineq = append(ineq, constraintRow{index: i, offset: lo, sign: -1})
		}
		if !isUnbounded(hi) {
			// g(x) - hi <= 0
			ineq = append(ineq, constraintRow{index: i, offset: hi, sign: 1})
		}
	}
	return eq, ineq
}

func nloptBounds(bounds []float64) []float64 {
	out := make([]float64, len(bounds))
	for i, b := range bounds {
		switch {
		case isUnbounded(b) && b > 0:
			out[i] = math.Inf(1)
		case isUnbounded(b):
			out[i] = math.Inf(-1)
		default:
			out[i] = b
		}
	}
	return out
}

func tolerances(n int, tol float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = tol
	}
	return out
}

// Solve runs SLSQP from p.X0 on the calling goroutine. Canceling ctx stops the optimizer at its next
// function evaluation.
func (s *NloptSolver) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid problem")
	}
	n := p.NumVars()

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(n))
	if err != nil {
		return nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	cache := newEvalCache(p, s.opts.ConstraintTolerance)
	canceled := false

	// Gradient is, under the hood, a unsafe C structure that we are meant to mutate in place.
	objective := func(x, gradient []float64) float64 {
		if ctx.Err() != nil {
			canceled = true
			if stopErr := opt.ForceStop(); stopErr != nil {
				s.logger.Errorw("forcestop error", "error", stopErr)
			}
		}
		e := cache.at(x, len(gradient) > 0)
		copy(gradient, e.grad)
		return e.cost
	}

	rowFunc := func(rows []constraintRow) func(result, x, gradient []float64) {
		return func(result, x, gradient []float64) {
			e := cache.at(x, len(gradient) > 0)
			for k, row := range rows {
				result[k] = row.sign * (e.cons[row.index] - row.offset)
				if len(gradient) == 0 {
					continue
				}
				jacRow := e.jac[row.index*n : (row.index+1)*n]
				dst := gradient[k*n : (k+1)*n]
				for j, d := range jacRow {
					dst[j] = row.sign * d
				}
			}
		}
	}

	eqRows, ineqRows := splitConstraints(p.ConsLower, p.ConsUpper)
	err = multierr.Combine(
		opt.SetLowerBounds(nloptBounds(p.VarLower)),
		opt.SetUpperBounds(nloptBounds(p.VarUpper)),
		opt.SetMinObjective(objective),
		opt.SetXtolRel(s.opts.XTolRel),
		opt.SetFtolRel(s.opts.FTolRel),
		opt.SetFtolAbs(s.opts.FTolAbs),
		opt.SetMaxTime(s.opts.MaxTime.Seconds()),
	)
	if s.opts.MaxEvaluations > 0 {
		err = multierr.Append(err, opt.SetMaxEval(s.opts.MaxEvaluations))
	}
	if len(eqRows) > 0 {
		err = multierr.Append(err,
			opt.AddEqualityMConstraint(rowFunc(eqRows), tolerances(len(eqRows), s.opts.ConstraintTolerance)))
	}
	if len(ineqRows) > 0 {
		err = multierr.Append(err,
			opt.AddInequalityMConstraint(rowFunc(ineqRows), tolerances(len(ineqRows), s.opts.ConstraintTolerance)))
	}
	if err != nil {
		return nil, errors.Wrap(err, "nlopt setup error")
	}

	start := time.Now()
	xOpt, _, nloptErr := opt.Optimize(append([]float64(nil), p.X0...))
	elapsed := time.Since(start)

	x := xOpt
	if len(x) != n || nloptErr != nil {
		// The optimizer may not hand back a point on failure. Fall back to the best iterate seen.
		x = p.X0
		if cache.best != nil {
			x = cache.best.x
		}
	}
	x = append([]float64(nil), x...)
	cost, cons := p.Func.Evaluate(x)
	violation := MaxViolation(cons, p.ConsLower, p.ConsUpper)

	result := opt.LastStatus()
	status := classify(runOutcome{
		result:    result,
		err:       nloptErr,
		canceled:  canceled,
		violation: violation,
	}, s.opts)
	if nloptErr != nil {
		s.logger.Debugw("nlopt returned an error", "error", nloptErr, "result", result, "status", status)
	}

	return &Solution{
		Status:       status,
		Cost:         cost,
		X:            x,
		MaxViolation: violation,
		Evaluations:  cache.calls,
		Duration:     elapsed,
	}, nil
}
