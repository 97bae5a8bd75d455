package mpc

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/dual"

	"go.viam.com/mpc/autodiff"
	"go.viam.com/mpc/polynomial"
)

// VehicleState is the vehicle pose and tracking errors in the vehicle-relative frame.
type VehicleState struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Psi  float64 `json:"psi"`
	CTE  float64 `json:"cte"`
	EPsi float64 `json:"epsi"`
}

// VehicleStateFromSlice reads a state ordered [x, y, psi, cte, epsi].
func VehicleStateFromSlice(values []float64) (VehicleState, error) {
	if len(values) != 5 {
		return VehicleState{}, errors.Errorf("expected 5 state values [x, y, psi, cte, epsi], got %d", len(values))
	}
	return VehicleState{X: values[0], Y: values[1], Psi: values[2], CTE: values[3], EPsi: values[4]}, nil
}

// Slice returns the state ordered [x, y, psi, cte, epsi].
func (s VehicleState) Slice() []float64 {
	return []float64{s.X, s.Y, s.Psi, s.CTE, s.EPsi}
}

func (s VehicleState) validate() error {
	for i, v := range s.Slice() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("state value %d is not finite: %v", i, v)
		}
	}
	return nil
}

// Evaluate computes the tracking cost and the dynamics constraint residuals of the decision vector
// vars. The constraint rows share the state offsets of idx; at t=0 each row is the state itself so
// that ConstraintBounds can pin the initial state.
func Evaluate[T any](
	a autodiff.Arithmetic[T],
	vars []T,
	coeffs []float64,
	params Params,
	idx Indexes,
	refV float64,
) (T, []T) {
	n := idx.NumStates()

	cost := a.Const(0)
	for t := 0; t < n; t++ {
		cost = a.Add(cost, a.Scale(params.CTECoeff, a.Pow(vars[idx.CTE(t)], 2)))
		cost = a.Add(cost, a.Scale(params.EPsiCoeff, a.Pow(vars[idx.EPsi(t)], 2)))
	}

	ref := a.Const(refV)
	for t := 0; t < idx.NumActuations(); t++ {
		cost = a.Add(cost, a.Scale(params.SpeedCoeff, a.Pow(a.Sub(vars[idx.V(t)], ref), 2)))
		cost = a.Add(cost, a.Scale(params.SteerCoeff, a.Pow(vars[idx.Delta(t)], 2)))
	}

	// Smoothness of consecutive actuations.
	for t := 0; t < idx.NumActuations()-1; t++ {
		cost = a.Add(cost, a.Scale(params.ConsecSteerCoeff,
			a.Pow(a.Sub(vars[idx.Delta(t+1)], vars[idx.Delta(t)]), 2)))
		cost = a.Add(cost, a.Scale(params.ConsecSpeedCoeff,
			a.Pow(a.Sub(vars[idx.V(t+1)], vars[idx.V(t)]), 2)))
	}

	cons := make([]T, idx.NumConstraints())
	cons[idx.X(0)] = vars[idx.X(0)]
	cons[idx.Y(0)] = vars[idx.Y(0)]
	cons[idx.Psi(0)] = vars[idx.Psi(0)]
	cons[idx.CTE(0)] = vars[idx.CTE(0)]
	cons[idx.EPsi(0)] = vars[idx.EPsi(0)]

	dt := params.Dt
	for t := 1; t < n; t++ {
		x1, x0 := vars[idx.X(t)], vars[idx.X(t-1)]
		y1, y0 := vars[idx.Y(t)], vars[idx.Y(t-1)]
		psi1, psi0 := vars[idx.Psi(t)], vars[idx.Psi(t-1)]
		cte1 := vars[idx.CTE(t)]
		epsi1, epsi0 := vars[idx.EPsi(t)], vars[idx.EPsi(t-1)]
		delta0 := vars[idx.Delta(t-1)]
		v0 := vars[idx.V(t-1)]

		f0 := polynomial.EvalScalar(a, coeffs, x0)
		psides0 := polynomial.Heading(a, coeffs, x0)
		// Positive steering turns the vehicle clockwise.
		yaw := a.Scale(dt/params.Lf, a.Mul(v0, delta0))

		cons[idx.X(t)] = a.Sub(x1, a.Add(x0, a.Scale(dt, a.Mul(v0, a.Cos(psi0)))))
		cons[idx.Y(t)] = a.Sub(y1, a.Add(y0, a.Scale(dt, a.Mul(v0, a.Sin(psi0)))))
		cons[idx.Psi(t)] = a.Sub(psi1, a.Sub(psi0, yaw))
		cons[idx.CTE(t)] = a.Sub(cte1, a.Add(a.Sub(f0, y0), a.Scale(dt, a.Mul(v0, a.Sin(epsi0)))))
		cons[idx.EPsi(t)] = a.Sub(epsi1, a.Sub(a.Sub(psi0, psides0), yaw))
	}
	return cost, cons
}

// trackingProblem binds Evaluate to one cycle's inputs as a solver.Function.
type trackingProblem struct {
	coeffs []float64
	params Params
	idx    Indexes
	refV   float64
}

func (p *trackingProblem) Evaluate(x []float64) (float64, []float64) {
	return Evaluate[float64](autodiff.Real{}, x, p.coeffs, p.params, p.idx, p.refV)
}

func (p *trackingProblem) Derivatives(x, grad, jac []float64) (float64, []float64) {
	return autodiff.Jacobian(func(vars []dual.Number) (dual.Number, []dual.Number) {
		return Evaluate[dual.Number](autodiff.Dual{}, vars, p.coeffs, p.params, p.idx, p.refV)
	}, x, grad, jac)
}
