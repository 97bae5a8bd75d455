// Package polynomial fits reference paths to polynomials and evaluates them.
package polynomial

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/mpc/autodiff"
)

// ErrInvalidFit is returned when Fit is called with inputs that cannot define a polynomial fit.
var ErrInvalidFit = errors.New("invalid polynomial fit")

// Fit returns the least-squares coefficients, ascending by power, of the order-th degree polynomial
// through the points (xs[i], ys[i]). xs and ys must have the same non-zero length and order must be in
// [1, len(xs)-1].
func Fit(xs, ys []float64, order int) ([]float64, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil, errors.Wrapf(ErrInvalidFit, "got %d x values and %d y values", len(xs), len(ys))
	}
	if order < 1 || order > len(xs)-1 {
		return nil, errors.Wrapf(ErrInvalidFit, "order %d out of range [1, %d]", order, len(xs)-1)
	}

	// Vandermonde design matrix: column 0 is all ones, column i+1 is column i times x.
	a := mat.NewDense(len(xs), order+1, nil)
	for j, x := range xs {
		a.Set(j, 0, 1)
		for i := 0; i < order; i++ {
			a.Set(j, i+1, a.At(j, i)*x)
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var c mat.Dense
	if err := qr.SolveTo(&c, false, mat.NewDense(len(ys), 1, append([]float64(nil), ys...))); err != nil {
		return nil, errors.Wrap(err, "least squares solve failed")
	}

	coeffs := make([]float64, order+1)
	for i := range coeffs {
		coeffs[i] = c.At(i, 0)
	}
	return coeffs, nil
}

// Eval returns sum(coeffs[i] * x^i).
func Eval(coeffs []float64, x float64) float64 {
	return EvalScalar[float64](autodiff.Real{}, coeffs, x)
}

// Slope returns the analytic derivative of the polynomial at x, sum(i * coeffs[i] * x^(i-1)).
func Slope(coeffs []float64, x float64) float64 {
	return SlopeScalar[float64](autodiff.Real{}, coeffs, x)
}

// EvalScalar is Eval over any Arithmetic, so the reference value can be differentiated with respect to x.
func EvalScalar[T any](a autodiff.Arithmetic[T], coeffs []float64, x T) T {
	// Horner's rule.
	result := a.Const(0)
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = a.Add(a.Mul(result, x), a.Const(coeffs[i]))
	}
	return result
}

// SlopeScalar is Slope over any Arithmetic.
func SlopeScalar[T any](a autodiff.Arithmetic[T], coeffs []float64, x T) T {
	result := a.Const(0)
	for i := len(coeffs) - 1; i >= 1; i-- {
		result = a.Add(a.Mul(result, x), a.Const(float64(i)*coeffs[i]))
	}
	return result
}

// Heading returns atan(Slope(coeffs, x)), the direction of the reference path at x.
func Heading[T any](a autodiff.Arithmetic[T], coeffs []float64, x T) T {
	return a.Atan(SlopeScalar(a, coeffs, x))
}
