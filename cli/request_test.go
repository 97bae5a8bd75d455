package cli

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/mpc/control/mpc"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestReadSolveRequest(t *testing.T) {
	path := writeFile(t, "req.json", `{"state": {"cte": 0.2, "epsi": -0.1}, "coeffs": [0.2, 0.1], "ref_v": 1.5}`)
	req, err := ReadSolveRequest(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, req.State, test.ShouldResemble, mpc.VehicleState{CTE: 0.2, EPsi: -0.1})
	test.That(t, req.RefV, test.ShouldEqual, 1.5)
	coeffs, err := req.Coefficients()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, coeffs, test.ShouldResemble, []float64{0.2, 0.1})

	_, err = ReadSolveRequest(writeFile(t, "bad.json", `[`))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ReadSolveRequest(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSolveRequestCoefficients(t *testing.T) {
	req := &SolveRequest{Waypoints: &Waypoints{
		X: []float64{0, 1, 2, 3, 4},
		Y: []float64{1, 3, 5, 7, 9},
	}}
	coeffs, err := req.Coefficients()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(coeffs), test.ShouldEqual, 4)
	test.That(t, coeffs[0], test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, coeffs[1], test.ShouldAlmostEqual, 2, 1e-9)

	req.Waypoints.Order = 1
	coeffs, err = req.Coefficients()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(coeffs), test.ShouldEqual, 2)

	req.Coeffs = []float64{1}
	_, err = req.Coefficients()
	test.That(t, err, test.ShouldNotBeNil)

	_, err = (&SolveRequest{}).Coefficients()
	test.That(t, err, test.ShouldNotBeNil)
}
