package autodiff

import (
	"math"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/num/dual"
)

// model computes x0*sin(x1) + atan(x0)**2 and the constraints [x0 - x1, cos(x0)*x1].
func model[T any](a Arithmetic[T], v []T) (T, []T) {
	obj := a.Add(a.Mul(v[0], a.Sin(v[1])), a.Pow(a.Atan(v[0]), 2))
	cons := []T{
		a.Sub(v[0], v[1]),
		a.Mul(a.Cos(v[0]), v[1]),
	}
	return obj, cons
}

func TestRealMatchesDualValue(t *testing.T) {
	x := []float64{0.7, -1.3}
	objR, consR := model[float64](Real{}, x)

	objD, consD := model[dual.Number](Dual{}, Lift(x))
	test.That(t, objD.Real, test.ShouldAlmostEqual, objR)
	for i := range consR {
		test.That(t, consD[i].Real, test.ShouldAlmostEqual, consR[i])
	}
}

func TestJacobianAgainstAnalytic(t *testing.T) {
	x := []float64{0.7, -1.3}
	grad := make([]float64, 2)
	jac := make([]float64, 4)
	obj, cons := Jacobian(func(v []dual.Number) (dual.Number, []dual.Number) {
		return model[dual.Number](Dual{}, v)
	}, x, grad, jac)

	x0, x1 := x[0], x[1]
	test.That(t, obj, test.ShouldAlmostEqual, x0*math.Sin(x1)+math.Pow(math.Atan(x0), 2))
	test.That(t, cons[0], test.ShouldAlmostEqual, x0-x1)

	dAtan := 1 / (1 + x0*x0)
	test.That(t, grad[0], test.ShouldAlmostEqual, math.Sin(x1)+2*math.Atan(x0)*dAtan, 1e-12)
	test.That(t, grad[1], test.ShouldAlmostEqual, x0*math.Cos(x1), 1e-12)

	test.That(t, jac[0], test.ShouldAlmostEqual, 1.0)
	test.That(t, jac[1], test.ShouldAlmostEqual, -1.0)
	test.That(t, jac[2], test.ShouldAlmostEqual, -math.Sin(x0)*x1, 1e-12)
	test.That(t, jac[3], test.ShouldAlmostEqual, math.Cos(x0), 1e-12)
}

func TestJacobianValuesOnly(t *testing.T) {
	obj, cons := Jacobian(func(v []dual.Number) (dual.Number, []dual.Number) {
		return model[dual.Number](Dual{}, v)
	}, []float64{1, 2}, nil, nil)
	test.That(t, obj, test.ShouldAlmostEqual, math.Sin(2)+math.Pow(math.Atan(1), 2))
	test.That(t, len(cons), test.ShouldEqual, 2)
}

func TestPowMatchesReal(t *testing.T) {
	d := Dual{}.Pow(dual.Number{Real: 1.5, Emag: 1}, 3)
	test.That(t, d.Real, test.ShouldAlmostEqual, Real{}.Pow(1.5, 3))
	test.That(t, d.Emag, test.ShouldAlmostEqual, 3*1.5*1.5, 1e-12)
}
