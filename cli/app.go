// Package cli contains the mpc command line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/mpc/config"
	"go.viam.com/mpc/control/mpc"
	"go.viam.com/mpc/logging"
	"go.viam.com/mpc/sim"
	"go.viam.com/mpc/solver"
	"go.viam.com/mpc/utils"
)

const (
	// Flags.
	flagConfig  = "config"
	flagDebug   = "debug"
	flagRequest = "request"
	flagCSV     = "csv"
	flagPlot    = "plot"
	flagTrack   = "track"
	flagCycles  = "cycles"
)

// NewApp returns the mpc command line application. Command output is written to out.
func NewApp(out io.Writer) *cli.App {
	var logger logging.Logger

	return &cli.App{
		Name:      "mpc",
		Usage:     "solve and simulate model predictive path tracking",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("mpc")
			} else {
				logger = logging.NewLogger("mpc")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		After: func(c *cli.Context) error {
			if logger == nil {
				return nil
			}
			//nolint:errcheck
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "solve",
				Usage:     "run one control cycle and print the commands and predicted path",
				UsageText: "mpc [--config FILE] solve --request FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagRequest,
						Aliases:  []string{"r"},
						Usage:    "read the solve request from `FILE` (- for stdin)",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return solveAction(c, logger)
				},
			},
			{
				Name:  "sim",
				Usage: "drive a simulated vehicle around a track in closed loop",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagCSV,
						Usage: "write the per-cycle trace to `FILE`",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "write a PNG of the driven path to `FILE`",
					},
					&cli.StringFlag{
						Name:  flagTrack,
						Usage: "override the configured track kind (straight, sine or circle)",
					},
					&cli.IntFlag{
						Name:  flagCycles,
						Usage: "override the configured number of cycles",
					},
				},
				Action: func(c *cli.Context) error {
					return simAction(c, logger)
				},
			},
		},
	}
}

func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path, logger); err != nil {
			return nil, errors.Wrapf(err, "reading config %q", path)
		}
	} else {
		cfg = config.Default()
	}
	if !c.Bool(flagDebug) {
		logger.SetLevel(cfg.LogLevel)
	}
	return cfg, nil
}

func newController(cfg *config.Config, logger logging.Logger) (*mpc.Controller, error) {
	opts, err := cfg.Solver.Options()
	if err != nil {
		return nil, err
	}
	s, err := solver.NewNloptSolver(opts, logger.Sublogger("solver"))
	if err != nil {
		return nil, err
	}
	return mpc.NewController(cfg.Controller, s, logger.Sublogger("controller"))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func solveAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	req, err := ReadSolveRequest(c.String(flagRequest))
	if err != nil {
		return err
	}
	coeffs, err := req.Coefficients()
	if err != nil {
		return err
	}
	refV := cfg.Controller.RefV
	if req.RefV > 0 {
		refV = req.RefV
	}
	if err := cfg.Controller.CheckRefV(refV); err != nil {
		return errors.Wrap(err, "solve request")
	}
	controller, err := newController(cfg, logger)
	if err != nil {
		return err
	}

	res, err := controller.Solve(c.Context, req.State, coeffs, refV)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, SolveResponse{
		Steer:    res.Steer,
		SteerDeg: utils.RadToDeg(res.Steer),
		Speed:    res.Speed,
		Cost:     res.Cost,
		Status:   res.Status.String(),
		OK:       res.OK(),
		Coeffs:   coeffs,
		Values:   res.Values(),
	})
}

func simAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	if kind := c.String(flagTrack); kind != "" {
		cfg.Simulation.Track.Kind = kind
	}
	if cycles := c.Int(flagCycles); cycles > 0 {
		cfg.Simulation.Cycles = cycles
	}
	controller, err := newController(cfg, logger)
	if err != nil {
		return err
	}
	runner, err := sim.NewRunner(cfg.Simulation, controller, logger.Sublogger("sim"))
	if err != nil {
		return err
	}

	trace, err := runner.Run(c.Context)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if werr := writeOutputs(trace, c.String(flagCSV), c.String(flagPlot)); werr != nil {
		return multierr.Combine(err, werr)
	}

	summary := trace.Summary()
	fmt.Fprintf(c.App.Writer, "cycles=%d mean_abs_cte=%.4f max_abs_cte=%.4f fallbacks=%d failures=%d\n",
		summary.Cycles, summary.MeanAbsCTE, summary.MaxAbsCTE, summary.Fallbacks, summary.Failures)
	return err
}

func writeOutputs(trace *sim.Trace, csvPath, plotPath string) error {
	write := func(path string, fn func(io.Writer) error) (err error) {
		if path == "" {
			return nil
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Combine(err, f.Close())
		}()
		return fn(f)
	}
	return multierr.Combine(
		write(csvPath, trace.WriteCSV),
		write(plotPath, trace.WritePlot),
	)
}
