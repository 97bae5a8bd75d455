package mpc

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/mpc/utils"
)

func TestVariableBounds(t *testing.T) {
	params := DefaultParams()
	idx := NewIndexes(params.StepsAhead)
	lower, upper := VariableBounds(params, idx)
	test.That(t, len(lower), test.ShouldEqual, idx.NumVars())
	test.That(t, len(upper), test.ShouldEqual, idx.NumVars())

	for i := 0; i < idx.DeltaStart; i++ {
		test.That(t, lower[i], test.ShouldEqual, -1e19)
		test.That(t, upper[i], test.ShouldEqual, 1e19)
	}
	steer := utils.DegToRad(25)
	test.That(t, steer, test.ShouldAlmostEqual, 0.436332, 1e-6)
	for i := 0; i < idx.NumActuations(); i++ {
		test.That(t, lower[idx.Delta(i)], test.ShouldEqual, -steer)
		test.That(t, upper[idx.Delta(i)], test.ShouldEqual, steer)
		test.That(t, lower[idx.V(i)], test.ShouldEqual, 0.0)
		test.That(t, upper[idx.V(i)], test.ShouldEqual, params.SpeedUpperBound)
	}
}

func TestConstraintBounds(t *testing.T) {
	idx := NewIndexes(10)
	state := VehicleState{X: 1, Y: 2, Psi: 3, CTE: 4, EPsi: 5}
	lower, upper := ConstraintBounds(state, idx)
	test.That(t, len(lower), test.ShouldEqual, 50)
	test.That(t, lower, test.ShouldResemble, upper)

	pinned := map[int]float64{0: 1, 10: 2, 20: 3, 30: 4, 40: 5}
	for i, v := range lower {
		if want, ok := pinned[i]; ok {
			test.That(t, v, test.ShouldEqual, want)
			continue
		}
		test.That(t, v, test.ShouldEqual, 0.0)
	}
}
