package mpc

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/mpc/logging"
	"go.viam.com/mpc/solver"
)

// Result is the outcome of one control cycle.
type Result struct {
	// Steer is the first steering command, in radians.
	Steer float64
	// Speed is the first speed command.
	Speed float64
	// PredictedX and PredictedY are the N predicted positions, starting at the current position.
	PredictedX []float64
	PredictedY []float64
	Cost       float64
	Status     solver.Status
	Duration   time.Duration
}

// OK reports whether the solver converged.
func (r *Result) OK() bool {
	return r.Status.Success()
}

// Values returns the result flattened as [steer, speed, x_0, y_0, ..., x_{N-1}, y_{N-1}].
func (r *Result) Values() []float64 {
	out := make([]float64, 0, 2+2*len(r.PredictedX))
	out = append(out, r.Steer, r.Speed)
	for i := range r.PredictedX {
		out = append(out, r.PredictedX[i], r.PredictedY[i])
	}
	return out
}

// Controller computes steering and speed commands from a state and a reference polynomial. A
// Controller may be shared but runs one solve at a time per caller.
type Controller struct {
	params   Params
	idx      Indexes
	varLower []float64
	varUpper []float64
	solver   solver.Solver
	logger   logging.Logger
}

// NewController validates params and returns a controller that solves with s.
func NewController(params Params, s solver.Solver, logger logging.Logger) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("mpc controller requires a solver")
	}
	if logger == nil {
		return nil, errors.New("mpc controller requires a logger")
	}
	idx := NewIndexes(params.StepsAhead)
	lower, upper := VariableBounds(params, idx)
	return &Controller{
		params:   params,
		idx:      idx,
		varLower: lower,
		varUpper: upper,
		solver:   s,
		logger:   logger,
	}, nil
}

// Params returns the controller configuration.
func (c *Controller) Params() Params {
	return c.params
}

// Indexes returns the decision vector layout.
func (c *Controller) Indexes() Indexes {
	return c.idx
}

// Solve runs one control cycle. The extracted commands are returned whatever the solver status; an
// error is returned only for unusable inputs or a malformed problem.
func (c *Controller) Solve(ctx context.Context, state VehicleState, coeffs []float64, refV float64) (*Result, error) {
	if len(coeffs) == 0 {
		return nil, errors.New("reference polynomial has no coefficients")
	}
	if err := state.validate(); err != nil {
		return nil, err
	}
	if err := c.params.CheckRefV(refV); err != nil {
		return nil, err
	}

	consLower, consUpper := ConstraintBounds(state, c.idx)
	problem := &solver.Problem{
		X0:        make([]float64, c.idx.NumVars()),
		VarLower:  c.varLower,
		VarUpper:  c.varUpper,
		ConsLower: consLower,
		ConsUpper: consUpper,
		Func: &trackingProblem{
			coeffs: coeffs,
			params: c.params,
			idx:    c.idx,
			refV:   refV,
		},
	}

	sol, err := c.solver.Solve(ctx, problem)
	if err != nil {
		return nil, errors.Wrap(err, "mpc solve")
	}
	if len(sol.X) != c.idx.NumVars() {
		return nil, errors.Errorf("solver returned %d values, expected %d", len(sol.X), c.idx.NumVars())
	}

	ok := sol.Status.Success()
	keysAndValues := []interface{}{
		"cost", sol.Cost,
		"ok", ok,
		"status", sol.Status.String(),
		"duration", sol.Duration,
		"evaluations", sol.Evaluations,
	}
	if ok {
		c.logger.Infow("mpc solved", keysAndValues...)
	} else {
		c.logger.Warnw("mpc solve did not converge", append(keysAndValues, "max_violation", sol.MaxViolation)...)
	}

	result := &Result{
		Steer:      sol.X[c.idx.Delta(0)],
		Speed:      sol.X[c.idx.V(0)],
		PredictedX: make([]float64, c.idx.NumStates()),
		PredictedY: make([]float64, c.idx.NumStates()),
		Cost:       sol.Cost,
		Status:     sol.Status,
		Duration:   sol.Duration,
	}
	for t := 0; t < c.idx.NumStates(); t++ {
		result.PredictedX[t] = sol.X[c.idx.X(t)]
		result.PredictedY[t] = sol.X[c.idx.Y(t)]
	}
	return result, nil
}
