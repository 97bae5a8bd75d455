package mpc

import (
	"go.viam.com/mpc/solver"
	"go.viam.com/mpc/utils"
)

// Unbounded is the bound magnitude meaning "no bound".
const Unbounded = solver.Infinity

// VariableBounds returns the box bounds of the decision vector. States are free, steering is limited
// to the configured angle and speed commands to [0, SpeedUpperBound].
func VariableBounds(params Params, idx Indexes) (lower, upper []float64) {
	lower = make([]float64, idx.NumVars())
	upper = make([]float64, idx.NumVars())
	for i := 0; i < idx.DeltaStart; i++ {
		lower[i] = -Unbounded
		upper[i] = Unbounded
	}
	steer := utils.DegToRad(params.SteerLimitDeg)
	for t := 0; t < idx.NumActuations(); t++ {
		lower[idx.Delta(t)] = -steer
		upper[idx.Delta(t)] = steer
		lower[idx.V(t)] = 0
		upper[idx.V(t)] = params.SpeedUpperBound
	}
	return lower, upper
}

// ConstraintBounds returns bounds forcing every dynamics residual to zero and pinning the t=0 rows to
// the current state.
func ConstraintBounds(state VehicleState, idx Indexes) (lower, upper []float64) {
	lower = make([]float64, idx.NumConstraints())
	upper = make([]float64, idx.NumConstraints())
	for _, pin := range []struct {
		row   int
		value float64
	}{
		{idx.X(0), state.X},
		{idx.Y(0), state.Y},
		{idx.Psi(0), state.Psi},
		{idx.CTE(0), state.CTE},
		{idx.EPsi(0), state.EPsi},
	} {
		lower[pin.row] = pin.value
		upper[pin.row] = pin.value
	}
	return lower, upper
}
