// Package sim drives an mpc.Controller in closed loop around a reference track, the way the vehicle's
// control node does: select the waypoints ahead, express them in the vehicle frame, fit a cubic, solve
// and apply the first actuation.
package sim

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/mpc/control/mpc"
	"go.viam.com/mpc/logging"
	"go.viam.com/mpc/polynomial"
	"go.viam.com/mpc/utils"
)

// ErrTrackEnd is returned by Step when too few waypoints remain ahead of the vehicle to fit a reference.
var ErrTrackEnd = errors.New("reached end of track")

// Config configures a simulation run.
type Config struct {
	Track TrackConfig `json:"track"`
	// Waypoints is how many upcoming waypoints are fitted each cycle.
	Waypoints int `json:"waypoints"`
	PolyOrder int `json:"poly_order"`
	Cycles    int `json:"cycles"`
	// Period is the control period in seconds.
	Period float64 `json:"period"`
	Start  Pose    `json:"start"`
	// RefV overrides the controller's reference speed when positive.
	RefV float64 `json:"ref_v,omitempty"`
}

// DefaultConfig returns a sine track run at 10Hz.
func DefaultConfig() Config {
	return Config{
		Track: TrackConfig{
			Kind:       TrackSine,
			Length:     30,
			Spacing:    0.5,
			Amplitude:  1,
			Wavelength: 15,
		},
		Waypoints: 8,
		PolyOrder: 3,
		Cycles:    300,
		Period:    0.1,
	}
}

// Validate returns every problem with the configuration.
func (c Config) Validate() error {
	err := c.Track.Validate()
	if c.PolyOrder < 1 {
		err = multierr.Append(err, errors.Errorf("poly_order must be at least 1, got %d", c.PolyOrder))
	}
	if c.Waypoints <= c.PolyOrder {
		err = multierr.Append(err, errors.Errorf("waypoints (%d) must exceed poly_order (%d)", c.Waypoints, c.PolyOrder))
	}
	if c.Cycles <= 0 {
		err = multierr.Append(err, errors.Errorf("cycles must be positive, got %d", c.Cycles))
	}
	if !(c.Period > 0) {
		err = multierr.Append(err, errors.Errorf("period must be positive, got %v", c.Period))
	}
	if c.RefV < 0 {
		err = multierr.Append(err, errors.Errorf("ref_v must not be negative, got %v", c.RefV))
	}
	return err
}

// Sample is the record of one control cycle.
type Sample struct {
	Cycle     int
	Time      float64
	Pose      Pose
	CTE       float64
	EPsi      float64
	Steer     float64
	Speed     float64
	Cost      float64
	Status    string
	Fallback  bool
	SolveTime time.Duration
}

type command struct {
	steer float64
	speed float64
}

// Runner steps a simulated vehicle with a controller. It is not safe for concurrent use.
type Runner struct {
	cfg        Config
	track      *Track
	vehicle    *Vehicle
	controller *mpc.Controller
	logger     logging.Logger
	solveTimes *utils.RollingAverage
	lastGood   *command
	cycle      int
}

// NewRunner places a vehicle at cfg.Start on the configured track.
func NewRunner(cfg Config, controller *mpc.Controller, logger logging.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid simulation config")
	}
	if cfg.RefV > 0 {
		if err := controller.Params().CheckRefV(cfg.RefV); err != nil {
			return nil, errors.Wrap(err, "invalid simulation config")
		}
	}
	track, err := NewTrack(cfg.Track)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:        cfg,
		track:      track,
		vehicle:    NewVehicle(cfg.Start, controller.Params().Lf),
		controller: controller,
		logger:     logger,
		solveTimes: utils.NewRollingAverage(20),
	}, nil
}

// Track returns the reference track.
func (r *Runner) Track() *Track {
	return r.track
}

// Vehicle returns the simulated vehicle.
func (r *Runner) Vehicle() *Vehicle {
	return r.vehicle
}

// AverageSolveTime is the mean solve time over recent cycles.
func (r *Runner) AverageSolveTime() time.Duration {
	return time.Duration(r.solveTimes.Average() * float64(time.Second))
}

func (r *Runner) refV() float64 {
	if r.cfg.RefV > 0 {
		return r.cfg.RefV
	}
	return r.controller.Params().RefV
}

// Step runs a single control cycle and advances the vehicle by one period. When the solver does not
// converge the last converged command is applied instead.
func (r *Runner) Step(ctx context.Context) (Sample, error) {
	pose := r.vehicle.Pose
	wx, wy := r.track.Ahead(r.track.Nearest(pose.X, pose.Y), r.cfg.Waypoints)
	if len(wx) <= r.cfg.PolyOrder {
		return Sample{}, ErrTrackEnd
	}

	vx, vy := ToVehicleFrame(pose, wx, wy)
	coeffs, err := polynomial.Fit(vx, vy, r.cfg.PolyOrder)
	if err != nil {
		return Sample{}, errors.Wrapf(err, "fitting reference at cycle %d", r.cycle)
	}
	// The vehicle sits at the origin of its own frame facing +X.
	state := mpc.VehicleState{
		CTE:  polynomial.Eval(coeffs, 0),
		EPsi: -math.Atan(polynomial.Slope(coeffs, 0)),
	}

	res, err := r.controller.Solve(ctx, state, coeffs, r.refV())
	if err != nil {
		return Sample{}, err
	}
	r.solveTimes.Add(res.Duration.Seconds())

	cmd := command{steer: res.Steer, speed: res.Speed}
	fallback := false
	switch {
	case res.OK():
		r.lastGood = &cmd
	case r.lastGood != nil:
		r.logger.Warnw("reusing last converged command", "cycle", r.cycle, "status", res.Status.String())
		cmd = *r.lastGood
		fallback = true
	}
	// Actuators saturate at the controller's limits.
	params := r.controller.Params()
	steerLimit := utils.DegToRad(params.SteerLimitDeg)
	cmd.steer = utils.Clamp(cmd.steer, -steerLimit, steerLimit)
	cmd.speed = utils.Clamp(cmd.speed, 0, params.SpeedUpperBound)
	r.vehicle.Step(cmd.steer, cmd.speed, r.cfg.Period)

	sample := Sample{
		Cycle:     r.cycle,
		Time:      float64(r.cycle) * r.cfg.Period,
		Pose:      pose,
		CTE:       state.CTE,
		EPsi:      state.EPsi,
		Steer:     cmd.steer,
		Speed:     cmd.speed,
		Cost:      res.Cost,
		Status:    res.Status.String(),
		Fallback:  fallback,
		SolveTime: res.Duration,
	}
	r.cycle++
	return sample, nil
}

// Run steps until the configured number of cycles, the end of an open track or ctx is done. The
// trace gathered so far is returned along with any error.
func (r *Runner) Run(ctx context.Context) (*Trace, error) {
	trace := &Trace{Track: r.track}
	for i := 0; i < r.cfg.Cycles; i++ {
		if err := ctx.Err(); err != nil {
			return trace, err
		}
		sample, err := r.Step(ctx)
		if errors.Is(err, ErrTrackEnd) {
			r.logger.Infow("reached end of track", "cycle", i)
			break
		}
		if err != nil {
			return trace, err
		}
		trace.Samples = append(trace.Samples, sample)
		r.logger.Debugw("cycle", "cycle", sample.Cycle, "cte", sample.CTE, "steer", sample.Steer, "speed", sample.Speed)
	}

	summary := trace.Summary()
	r.logger.Infow("simulation finished",
		"cycles", summary.Cycles,
		"mean_abs_cte", summary.MeanAbsCTE,
		"max_abs_cte", summary.MaxAbsCTE,
		"fallbacks", summary.Fallbacks,
		"avg_solve_time", r.AverageSolveTime(),
	)
	return trace, nil
}
