package solver

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DefaultMaxTime is the default wall-clock budget of a single solve.
const DefaultMaxTime = 500 * time.Millisecond

// Options tunes a solver.
type Options struct {
	// MaxTime bounds each solve; when it expires the best iterate is returned with
	// StatusTimeBudgetExceeded.
	MaxTime time.Duration `json:"max_time"`
	// MaxEvaluations bounds objective evaluations; zero means unlimited.
	MaxEvaluations int `json:"max_evaluations"`
	// ConstraintTolerance is the largest constraint violation accepted as feasible.
	ConstraintTolerance float64 `json:"constraint_tolerance"`
	XTolRel             float64 `json:"xtol_rel"`
	FTolRel             float64 `json:"ftol_rel"`
	FTolAbs             float64 `json:"ftol_abs"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxTime:             DefaultMaxTime,
		ConstraintTolerance: 1e-6,
		XTolRel:             1e-8,
		FTolRel:             1e-10,
		FTolAbs:             1e-12,
	}
}

// Validate returns every problem with the options.
func (o Options) Validate() error {
	var err error
	if o.MaxTime <= 0 {
		err = multierr.Append(err, errors.Errorf("max_time must be positive, got %v", o.MaxTime))
	}
	if o.MaxEvaluations < 0 {
		err = multierr.Append(err, errors.Errorf("max_evaluations must not be negative, got %d", o.MaxEvaluations))
	}
	if !(o.ConstraintTolerance > 0) {
		err = multierr.Append(err, errors.Errorf("constraint_tolerance must be positive, got %v", o.ConstraintTolerance))
	}
	for name, v := range map[string]float64{"xtol_rel": o.XTolRel, "ftol_rel": o.FTolRel, "ftol_abs": o.FTolAbs} {
		if v < 0 || math.IsNaN(v) {
			err = multierr.Append(err, errors.Errorf("%s must not be negative, got %v", name, v))
		}
	}
	return err
}

// nlopt result names, as reported by LastStatus.
const (
	resultSuccess         = "SUCCESS"
	resultStopval         = "STOPVAL_REACHED"
	resultFtol            = "FTOL_REACHED"
	resultXtol            = "XTOL_REACHED"
	resultMaxEval         = "MAXEVAL_REACHED"
	resultMaxTime         = "MAXTIME_REACHED"
	resultFailure         = "FAILURE"
	resultInvalidArgs     = "INVALID_ARGS"
	resultOutOfMemory     = "OUT_OF_MEMORY"
	resultRoundoffLimited = "ROUNDOFF_LIMITED"
	resultForcedStop      = "FORCED_STOP"
)

// runOutcome is what an optimizer run reports back for classification.
type runOutcome struct {
	// result is the optimizer's result name, e.g. XTOL_REACHED.
	result    string
	err       error
	canceled  bool
	violation float64
}

// classify maps an optimizer run onto a Status. Limits are taken from the optimizer's own result; a
// converged result is then checked for feasibility.
func classify(out runOutcome, opts Options) Status {
	if out.canceled {
		return StatusCanceled
	}
	switch strings.TrimPrefix(strings.ToUpper(out.result), "NLOPT_") {
	case resultMaxTime:
		return StatusTimeBudgetExceeded
	case resultMaxEval:
		return StatusMaxEvaluations
	case resultRoundoffLimited:
		return StatusNumericalFailure
	case resultFailure, resultInvalidArgs, resultOutOfMemory, resultForcedStop:
		return StatusFailure
	case resultSuccess, resultStopval, resultFtol, resultXtol:
	default:
		if out.err != nil {
			return StatusFailure
		}
	}
	if math.IsNaN(out.violation) || math.IsInf(out.violation, 0) {
		return StatusNumericalFailure
	}
	if out.violation > opts.ConstraintTolerance {
		return StatusInfeasible
	}
	return StatusSuccess
}
