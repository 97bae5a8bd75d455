package solver

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

// quadratic is f(x) = sum((x_i - target_i)^2) with the single constraint g(x) = sum(x).
type quadratic struct {
	target []float64
	evals  int
	derivs int
}

func (q *quadratic) Evaluate(x []float64) (float64, []float64) {
	q.evals++
	cost, sum := 0.0, 0.0
	for i, v := range x {
		cost += (v - q.target[i]) * (v - q.target[i])
		sum += v
	}
	return cost, []float64{sum}
}

func (q *quadratic) Derivatives(x, grad, jac []float64) (float64, []float64) {
	q.derivs++
	for i, v := range x {
		grad[i] = 2 * (v - q.target[i])
		jac[i] = 1
	}
	cost, cons := q.Evaluate(x)
	q.evals--
	return cost, cons
}

func validProblem() *Problem {
	return &Problem{
		X0:        []float64{0, 0},
		VarLower:  []float64{-Infinity, -1},
		VarUpper:  []float64{Infinity, 1},
		ConsLower: []float64{1},
		ConsUpper: []float64{1},
		Func:      &quadratic{target: []float64{1, 2}},
	}
}

func TestProblemValidate(t *testing.T) {
	test.That(t, validProblem().Validate(), test.ShouldBeNil)

	p := validProblem()
	p.Func = nil
	test.That(t, p.Validate(), test.ShouldNotBeNil)

	p = validProblem()
	p.VarUpper = p.VarUpper[:1]
	test.That(t, p.Validate().Error(), test.ShouldContainSubstring, "expected 2 variable bounds")

	p = validProblem()
	p.X0 = []float64{0, 2}
	test.That(t, p.Validate().Error(), test.ShouldContainSubstring, "outside")

	p = validProblem()
	p.ConsLower = []float64{2}
	test.That(t, p.Validate().Error(), test.ShouldContainSubstring, "constraint 0")

	p = validProblem()
	p.X0 = nil
	test.That(t, p.Validate(), test.ShouldNotBeNil)
}

func TestMaxViolation(t *testing.T) {
	lower := []float64{0, -1, 2}
	upper := []float64{0, 1, 2}
	test.That(t, MaxViolation([]float64{0, 0.5, 2}, lower, upper), test.ShouldEqual, 0.0)
	test.That(t, MaxViolation([]float64{0.25, 0.5, 2}, lower, upper), test.ShouldEqual, 0.25)
	test.That(t, MaxViolation([]float64{0, -3, 2}, lower, upper), test.ShouldEqual, 2.0)
	test.That(t, math.IsInf(MaxViolation([]float64{math.NaN(), 0, 2}, lower, upper), 1), test.ShouldBeTrue)
}

func TestClassify(t *testing.T) {
	opts := DefaultOptions()

	for _, tc := range []struct {
		name     string
		out      runOutcome
		expected Status
	}{
		{"xtol converged", runOutcome{result: "XTOL_REACHED"}, StatusSuccess},
		{"ftol converged", runOutcome{result: "FTOL_REACHED"}, StatusSuccess},
		{"success", runOutcome{result: "SUCCESS"}, StatusSuccess},
		{"prefixed name", runOutcome{result: "NLOPT_XTOL_REACHED"}, StatusSuccess},
		{"time budget", runOutcome{result: "MAXTIME_REACHED"}, StatusTimeBudgetExceeded},
		{"time budget while infeasible", runOutcome{result: "MAXTIME_REACHED", violation: 1}, StatusTimeBudgetExceeded},
		{"evaluations", runOutcome{result: "MAXEVAL_REACHED"}, StatusMaxEvaluations},
		{"roundoff", runOutcome{result: "ROUNDOFF_LIMITED", err: errors.New("ROUNDOFF_LIMITED")}, StatusNumericalFailure},
		{"generic failure", runOutcome{result: "FAILURE", err: errors.New("FAILURE")}, StatusFailure},
		{"invalid args", runOutcome{result: "INVALID_ARGS", err: errors.New("INVALID_ARGS")}, StatusFailure},
		{"canceled wins", runOutcome{result: "FORCED_STOP", canceled: true, err: errors.New("FORCED_STOP")}, StatusCanceled},
		{"unknown result with error", runOutcome{err: errors.New("boom")}, StatusFailure},
		{"converged but infeasible", runOutcome{result: "XTOL_REACHED", violation: 1e-3}, StatusInfeasible},
		{"converged to nan", runOutcome{result: "XTOL_REACHED", violation: math.Inf(1)}, StatusNumericalFailure},
	} {
		t.Run(tc.name, func(t *testing.T) {
			test.That(t, classify(tc.out, opts), test.ShouldEqual, tc.expected)
		})
	}
}

func TestStatusString(t *testing.T) {
	test.That(t, StatusSuccess.String(), test.ShouldEqual, "success")
	test.That(t, StatusSuccess.Success(), test.ShouldBeTrue)
	test.That(t, StatusTimeBudgetExceeded.String(), test.ShouldEqual, "time_budget_exceeded")
	test.That(t, StatusTimeBudgetExceeded.Success(), test.ShouldBeFalse)
	test.That(t, Status(42).String(), test.ShouldEqual, "status(42)")
}

func TestOptionsValidate(t *testing.T) {
	test.That(t, DefaultOptions().Validate(), test.ShouldBeNil)
	test.That(t, DefaultOptions().MaxTime, test.ShouldEqual, 500*time.Millisecond)

	bad := Options{MaxTime: 0, MaxEvaluations: -1, ConstraintTolerance: 0, XTolRel: -1}
	err := bad.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, field := range []string{"max_time", "max_evaluations", "constraint_tolerance", "xtol_rel"} {
		test.That(t, strings.Contains(err.Error(), field), test.ShouldBeTrue)
	}
}

func TestEvalCache(t *testing.T) {
	p := validProblem()
	q := p.Func.(*quadratic)
	cache := newEvalCache(p, 1e-6)

	e := cache.at([]float64{0.5, 0.5}, true)
	test.That(t, e.cost, test.ShouldAlmostEqual, 0.25+2.25)
	test.That(t, e.grad, test.ShouldResemble, []float64{-1.0, -3.0})
	test.That(t, e.violation, test.ShouldEqual, 0.0)

	// Same point again, with or without derivatives, is served from the cache.
	cache.at([]float64{0.5, 0.5}, false)
	cache.at([]float64{0.5, 0.5}, true)
	test.That(t, q.derivs, test.ShouldEqual, 1)
	test.That(t, cache.calls, test.ShouldEqual, 1)

	// A new infeasible point is evaluated but does not replace the feasible best.
	e = cache.at([]float64{1, 2}, false)
	test.That(t, e.cost, test.ShouldEqual, 0.0)
	test.That(t, e.violation, test.ShouldEqual, 2.0)
	test.That(t, q.evals, test.ShouldEqual, 1)
	test.That(t, cache.best.x, test.ShouldResemble, []float64{0.5, 0.5})

	// Derivatives at a point first seen without them trigger a re-evaluation.
	cache.at([]float64{1, 2}, true)
	test.That(t, q.derivs, test.ShouldEqual, 2)

	// A cheaper feasible point becomes the best.
	cache.at([]float64{0, 1}, false)
	test.That(t, cache.best.x, test.ShouldResemble, []float64{0.0, 1.0})
}
