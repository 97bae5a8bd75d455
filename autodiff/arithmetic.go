// Package autodiff lets numeric models be written once and evaluated either with plain float64 values
// or with dual numbers that carry exact first derivatives alongside each value.
//
// Models are written as generic functions over an Arithmetic[T]. Real evaluates them directly; Dual
// propagates a derivative through every operation (forward-mode automatic differentiation).
package autodiff

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
)

// Arithmetic is the set of operations a differentiable model may use.
type Arithmetic[T any] interface {
	// Const lifts a constant into T; its derivative is zero.
	Const(v float64) T
	// Value returns the real part of x.
	Value(x T) float64
	Add(x, y T) T
	Sub(x, y T) T
	Mul(x, y T) T
	// Scale returns f*x.
	Scale(f float64, x T) T
	// Pow returns x**p for a constant exponent.
	Pow(x T, p float64) T
	Sin(x T) T
	Cos(x T) T
	Atan(x T) T
}

// Real is the Arithmetic over plain float64 values.
type Real struct{}

// Const implements Arithmetic.
func (Real) Const(v float64) float64 { return v }

// Value implements Arithmetic.
func (Real) Value(x float64) float64 { return x }

// Add implements Arithmetic.
func (Real) Add(x, y float64) float64 { return x + y }

// Sub implements Arithmetic.
func (Real) Sub(x, y float64) float64 { return x - y }

// Mul implements Arithmetic.
func (Real) Mul(x, y float64) float64 { return x * y }

// Scale implements Arithmetic.
func (Real) Scale(f, x float64) float64 { return f * x }

// Pow implements Arithmetic.
func (Real) Pow(x, p float64) float64 {
	if p == 2 {
		return x * x
	}
	return math.Pow(x, p)
}

// Sin implements Arithmetic.
func (Real) Sin(x float64) float64 { return math.Sin(x) }

// Cos implements Arithmetic.
func (Real) Cos(x float64) float64 { return math.Cos(x) }

// Atan implements Arithmetic.
func (Real) Atan(x float64) float64 { return math.Atan(x) }

// Dual is the Arithmetic over gonum dual numbers. The Emag part of each number holds the derivative
// with respect to whichever input was seeded with Emag=1.
type Dual struct{}

// Const implements Arithmetic.
func (Dual) Const(v float64) dual.Number { return dual.Number{Real: v} }

// Value implements Arithmetic.
func (Dual) Value(x dual.Number) float64 { return x.Real }

// Add implements Arithmetic.
func (Dual) Add(x, y dual.Number) dual.Number {
	return dual.Number{Real: x.Real + y.Real, Emag: x.Emag + y.Emag}
}

// Sub implements Arithmetic.
func (Dual) Sub(x, y dual.Number) dual.Number {
	return dual.Number{Real: x.Real - y.Real, Emag: x.Emag - y.Emag}
}

// Mul implements Arithmetic.
func (Dual) Mul(x, y dual.Number) dual.Number { return dual.Mul(x, y) }

// Scale implements Arithmetic.
func (Dual) Scale(f float64, x dual.Number) dual.Number {
	return dual.Number{Real: f * x.Real, Emag: f * x.Emag}
}

// Pow implements Arithmetic.
func (Dual) Pow(x dual.Number, p float64) dual.Number {
	if p == 2 {
		return dual.Mul(x, x)
	}
	return dual.PowReal(x, p)
}

// Sin implements Arithmetic.
func (Dual) Sin(x dual.Number) dual.Number { return dual.Sin(x) }

// Cos implements Arithmetic.
func (Dual) Cos(x dual.Number) dual.Number { return dual.Cos(x) }

// Atan implements Arithmetic.
func (Dual) Atan(x dual.Number) dual.Number { return dual.Atan(x) }
