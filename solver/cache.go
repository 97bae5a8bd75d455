package solver

import "math"

type evaluation struct {
	x         []float64
	cost      float64
	cons      []float64
	grad      []float64
	jac       []float64
	hasDerivs bool
	violation float64
}

// evalCache evaluates a Function once per distinct iterate. SQP solvers ask for the objective and
// every constraint group separately at the same point; the model produces all of them in one pass.
// It also remembers the best point seen so far.
type evalCache struct {
	fn                   Function
	n, m                 int
	consLower, consUpper []float64
	tol                  float64

	last  *evaluation
	best  *evaluation
	calls int
}

func newEvalCache(p *Problem, tol float64) *evalCache {
	return &evalCache{
		fn:        p.Func,
		n:         p.NumVars(),
		m:         p.NumConstraints(),
		consLower: p.ConsLower,
		consUpper: p.ConsUpper,
		tol:       tol,
	}
}

// at returns the evaluation at x, computing derivatives when needDerivs is set.
func (c *evalCache) at(x []float64, needDerivs bool) *evaluation {
	if c.last != nil && equalSlices(c.last.x, x) && (c.last.hasDerivs || !needDerivs) {
		return c.last
	}

	c.calls++
	e := &evaluation{x: append([]float64(nil), x...), hasDerivs: needDerivs}
	if needDerivs {
		e.grad = make([]float64, c.n)
		e.jac = make([]float64, c.m*c.n)
		e.cost, e.cons = c.fn.Derivatives(e.x, e.grad, e.jac)
	} else {
		e.cost, e.cons = c.fn.Evaluate(e.x)
	}
	e.violation = MaxViolation(e.cons, c.consLower, c.consUpper)
	c.last = e
	if c.better(e) {
		c.best = e
	}
	return e
}

// better prefers feasible points by cost, then less violated points.
func (c *evalCache) better(e *evaluation) bool {
	if math.IsNaN(e.cost) {
		return false
	}
	if c.best == nil {
		return true
	}
	eFeasible, bestFeasible := e.violation <= c.tol, c.best.violation <= c.tol
	switch {
	case eFeasible && bestFeasible:
		return e.cost <= c.best.cost
	case eFeasible != bestFeasible:
		return eFeasible
	default:
		return e.violation < c.best.violation
	}
}

func equalSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
