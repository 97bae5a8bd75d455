// Package mpc implements a model predictive controller that computes steering and speed commands for
// a ground vehicle tracking a polynomial reference path.
//
// Each cycle the controller solves a finite-horizon nonlinear program over the flat decision vector
// described by Indexes: the state trajectory (x, y, psi, cte, epsi for N steps) followed by the
// actuator sequences (steering delta and commanded speed v for N-1 steps). The vehicle follows a
// discretized kinematic bicycle model, and the initial state is pinned through constraint bounds.
package mpc

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	// DefaultLf is the distance from the front axle to the center of gravity, in meters.
	//
	// It was obtained by driving the vehicle in a circle with a constant steering angle and velocity
	// on flat terrain, then tuning Lf until the radius predicted by the kinematic model matched the
	// measured one.
	DefaultLf = 0.325
	// DefaultSteerLimitDeg bounds the steering angle, in degrees either side of center.
	DefaultSteerLimitDeg = 25.0
	// DefaultSpeedUpperBound is the largest speed command, in m/s.
	DefaultSpeedUpperBound = 5.0
)

// ErrInvalidParams is returned by Validate and NewController for unusable configurations.
var ErrInvalidParams = errors.New("invalid mpc params")

// Params configures a Controller. It is copied at construction and never modified afterwards.
type Params struct {
	// StepsAhead is the horizon length N.
	StepsAhead int `json:"steps_ahead"`
	// Dt is the duration of one horizon step, in seconds.
	Dt float64 `json:"dt"`

	CTECoeff         float64 `json:"cte_coeff"`
	EPsiCoeff        float64 `json:"epsi_coeff"`
	SpeedCoeff       float64 `json:"speed_coeff"`
	SteerCoeff       float64 `json:"steer_coeff"`
	ConsecSteerCoeff float64 `json:"consec_steer_coeff"`
	ConsecSpeedCoeff float64 `json:"consec_speed_coeff"`

	// RefV is the nominal target speed. It must be below SpeedUpperBound.
	RefV float64 `json:"ref_v"`

	// Lf is the front axle to center of gravity distance. See DefaultLf.
	Lf float64 `json:"lf"`
	// SteerLimitDeg is the steering bound in degrees.
	SteerLimitDeg float64 `json:"steer_limit_deg"`
	// SpeedUpperBound is the largest speed the controller may command.
	SpeedUpperBound float64 `json:"speed_upper_bound"`
}

// DefaultParams returns a configuration tuned for a small car-like robot.
func DefaultParams() Params {
	return Params{
		StepsAhead:       10,
		Dt:               0.1,
		CTECoeff:         100,
		EPsiCoeff:        100,
		SpeedCoeff:       1,
		SteerCoeff:       10,
		ConsecSteerCoeff: 100,
		ConsecSpeedCoeff: 10,
		RefV:             1.0,
		Lf:               DefaultLf,
		SteerLimitDeg:    DefaultSteerLimitDeg,
		SpeedUpperBound:  DefaultSpeedUpperBound,
	}
}

// Validate returns every problem with p, wrapped in ErrInvalidParams.
func (p Params) Validate() error {
	var err error
	if p.StepsAhead < 2 {
		err = multierr.Append(err, errors.Errorf("steps_ahead must be at least 2, got %d", p.StepsAhead))
	}
	if !(p.Dt > 0) || math.IsInf(p.Dt, 0) {
		err = multierr.Append(err, errors.Errorf("dt must be positive, got %v", p.Dt))
	}
	if !(p.Lf > 0) || math.IsInf(p.Lf, 0) {
		err = multierr.Append(err, errors.Errorf("lf must be positive, got %v", p.Lf))
	}
	if !(p.SteerLimitDeg > 0 && p.SteerLimitDeg < 90) {
		err = multierr.Append(err, errors.Errorf("steer_limit_deg must be in (0, 90), got %v", p.SteerLimitDeg))
	}
	if !(p.SpeedUpperBound > 0) || math.IsInf(p.SpeedUpperBound, 0) {
		err = multierr.Append(err, errors.Errorf("speed_upper_bound must be positive, got %v", p.SpeedUpperBound))
	}
	if !(p.RefV < p.SpeedUpperBound) {
		err = multierr.Append(err, errors.Errorf("ref_v %v must be below speed_upper_bound %v", p.RefV, p.SpeedUpperBound))
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"cte_coeff", p.CTECoeff},
		{"epsi_coeff", p.EPsiCoeff},
		{"speed_coeff", p.SpeedCoeff},
		{"steer_coeff", p.SteerCoeff},
		{"consec_steer_coeff", p.ConsecSteerCoeff},
		{"consec_speed_coeff", p.ConsecSpeedCoeff},
	} {
		if !(w.value >= 0) || math.IsInf(w.value, 0) {
			err = multierr.Append(err, errors.Errorf("%s must be a non-negative number, got %v", w.name, w.value))
		}
	}
	if err != nil {
		return errors.Wrap(ErrInvalidParams, err.Error())
	}
	return nil
}

// CheckRefV reports whether refV is a reachable target speed, i.e. below SpeedUpperBound.
func (p Params) CheckRefV(refV float64) error {
	if !(refV < p.SpeedUpperBound) {
		return errors.Wrapf(ErrInvalidParams, "ref_v %v must be below speed_upper_bound %v", refV, p.SpeedUpperBound)
	}
	return nil
}
