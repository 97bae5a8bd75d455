package autodiff

import "gonum.org/v1/gonum/num/dual"

// VectorFunc is a model with a scalar objective and a vector of constraint values.
type VectorFunc func(vars []dual.Number) (dual.Number, []dual.Number)

// Lift converts x to dual numbers with zero derivative parts.
func Lift(x []float64) []dual.Number {
	out := make([]dual.Number, len(x))
	for i, v := range x {
		out[i] = dual.Number{Real: v}
	}
	return out
}

// Jacobian evaluates f at x with one forward pass per input. The objective gradient is written to
// grad (len(x) values) and the constraint Jacobian to jac (row-major, len(constraints)*len(x)
// values); either may be nil when not needed. The objective and constraint values are returned.
func Jacobian(f VectorFunc, x, grad, jac []float64) (float64, []float64) {
	n := len(x)
	vars := Lift(x)
	if n == 0 || (grad == nil && jac == nil) {
		obj, cons := f(vars)
		return obj.Real, reals(cons)
	}

	var (
		objective   float64
		constraints []float64
	)
	for j := 0; j < n; j++ {
		vars[j].Emag = 1
		obj, cons := f(vars)
		vars[j].Emag = 0

		if j == 0 {
			objective = obj.Real
			constraints = reals(cons)
		}
		if grad != nil {
			grad[j] = obj.Emag
		}
		if jac != nil {
			for i, c := range cons {
				jac[i*n+j] = c.Emag
			}
		}
	}
	return objective, constraints
}

func reals(in []dual.Number) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = v.Real
	}
	return out
}
