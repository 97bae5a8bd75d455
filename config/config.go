// Package config defines the on-disk configuration of the controller, its solver and the simulator.
package config

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/mpc/control/mpc"
	"go.viam.com/mpc/logging"
	"go.viam.com/mpc/sim"
	"go.viam.com/mpc/solver"
	"go.viam.com/mpc/utils"
)

// Config is the top level configuration.
type Config struct {
	ConfigFilePath string `json:"-"`

	LogLevel   logging.Level `json:"log_level"`
	Controller mpc.Params    `json:"controller"`
	Solver     SolverConfig  `json:"solver"`
	Simulation sim.Config    `json:"simulation"`

	// Attributes are controller overrides applied on top of Controller. Values may be strings, so
	// environment substitutions such as "${MPC_CTE_COEFF}" can be used for numbers.
	Attributes AttributeMap `json:"attributes,omitempty"`
}

// Default returns the configuration used for any field a file leaves out.
func Default() *Config {
	return &Config{
		LogLevel:   logging.INFO,
		Controller: mpc.DefaultParams(),
		Simulation: sim.DefaultConfig(),
	}
}

// Validate returns every problem with the configuration.
func (c *Config) Validate() error {
	var err error
	if verr := c.Controller.Validate(); verr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError("controller", verr))
	}
	if _, serr := c.Solver.Options(); serr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError("solver", serr))
	}
	if verr := c.Simulation.Validate(); verr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError("simulation", verr))
	}
	if c.Simulation.RefV > 0 {
		if verr := c.Controller.CheckRefV(c.Simulation.RefV); verr != nil {
			err = multierr.Append(err, utils.NewConfigValidationError("simulation", verr))
		}
	}
	return err
}

// SolverConfig overrides solver.DefaultOptions. Zero values keep the default.
type SolverConfig struct {
	// MaxTime is a duration string such as "500ms".
	MaxTime             string  `json:"max_time,omitempty"`
	MaxEvaluations      int     `json:"max_evaluations,omitempty"`
	ConstraintTolerance float64 `json:"constraint_tolerance,omitempty"`
	XTolRel             float64 `json:"xtol_rel,omitempty"`
	FTolRel             float64 `json:"ftol_rel,omitempty"`
	FTolAbs             float64 `json:"ftol_abs,omitempty"`
}

// Options returns the validated solver options.
func (sc SolverConfig) Options() (solver.Options, error) {
	opts := solver.DefaultOptions()
	if sc.MaxTime != "" {
		d, err := time.ParseDuration(sc.MaxTime)
		if err != nil {
			return solver.Options{}, errors.Wrap(err, "parsing max_time")
		}
		opts.MaxTime = d
	}
	if sc.MaxEvaluations != 0 {
		opts.MaxEvaluations = sc.MaxEvaluations
	}
	if sc.ConstraintTolerance != 0 {
		opts.ConstraintTolerance = sc.ConstraintTolerance
	}
	if sc.XTolRel != 0 {
		opts.XTolRel = sc.XTolRel
	}
	if sc.FTolRel != 0 {
		opts.FTolRel = sc.FTolRel
	}
	if sc.FTolAbs != 0 {
		opts.FTolAbs = sc.FTolAbs
	}
	return opts, opts.Validate()
}
