package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/mpc/control/mpc"
	"go.viam.com/mpc/polynomial"
)

// SolveRequest is the input of a single solve. The reference is given either as polynomial
// coefficients or as vehicle-frame waypoints to fit.
type SolveRequest struct {
	State     mpc.VehicleState `json:"state"`
	Coeffs    []float64        `json:"coeffs,omitempty"`
	Waypoints *Waypoints       `json:"waypoints,omitempty"`
	// RefV overrides the configured reference speed when positive.
	RefV float64 `json:"ref_v,omitempty"`
}

// Waypoints are reference points in the vehicle frame.
type Waypoints struct {
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Order int       `json:"order"`
}

// SolveResponse is printed by the solve command.
type SolveResponse struct {
	Steer    float64   `json:"steer"`
	SteerDeg float64   `json:"steer_deg"`
	Speed    float64   `json:"speed"`
	Cost     float64   `json:"cost"`
	Status   string    `json:"status"`
	OK       bool      `json:"ok"`
	Coeffs   []float64 `json:"coeffs"`
	Values   []float64 `json:"values"`
}

// ReadSolveRequest decodes a request from path, or from stdin when path is "-".
func ReadSolveRequest(path string) (*SolveRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		//nolint:errcheck
		defer f.Close()
		r = f
	}
	var req SolveRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.Wrap(err, "failed to decode solve request")
	}
	return &req, nil
}

// Coefficients returns the reference polynomial, fitting the waypoints if no coefficients were given.
func (req *SolveRequest) Coefficients() ([]float64, error) {
	switch {
	case len(req.Coeffs) != 0 && req.Waypoints != nil:
		return nil, errors.New("request must give either coeffs or waypoints, not both")
	case len(req.Coeffs) != 0:
		return req.Coeffs, nil
	case req.Waypoints != nil:
		order := req.Waypoints.Order
		if order == 0 {
			order = 3
		}
		return polynomial.Fit(req.Waypoints.X, req.Waypoints.Y, order)
	}
	return nil, errors.New("request has no coeffs or waypoints")
}
