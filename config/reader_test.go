package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/mpc/control/mpc"
	"go.viam.com/mpc/logging"
	"go.viam.com/mpc/sim"
)

func TestFromReaderDefaults(t *testing.T) {
	cfg, err := FromReader("", strings.NewReader(`{}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Controller, test.ShouldResemble, mpc.DefaultParams())
	test.That(t, cfg.Simulation, test.ShouldResemble, sim.DefaultConfig())
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.INFO)

	opts, err := cfg.Solver.Options()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.MaxTime, test.ShouldEqual, 500*time.Millisecond)
}

func TestFromReaderOverrides(t *testing.T) {
	conf := `{
		"log_level": "debug",
		"controller": {"steps_ahead": 12, "ref_v": 2.5},
		"solver": {"max_time": "150ms", "max_evaluations": 400},
		"simulation": {"track": {"kind": "circle", "radius": 4}, "cycles": 50},
		"attributes": {"cte_coeff": "250", "lf": 0.3}
	}`
	cfg, err := FromReader("inline.json", strings.NewReader(conf), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "inline.json")
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.DEBUG)

	test.That(t, cfg.Controller.StepsAhead, test.ShouldEqual, 12)
	test.That(t, cfg.Controller.RefV, test.ShouldEqual, 2.5)
	test.That(t, cfg.Controller.CTECoeff, test.ShouldEqual, 250.0)
	test.That(t, cfg.Controller.Lf, test.ShouldEqual, 0.3)
	test.That(t, cfg.Controller.Dt, test.ShouldEqual, mpc.DefaultParams().Dt)

	opts, err := cfg.Solver.Options()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.MaxTime, test.ShouldEqual, 150*time.Millisecond)
	test.That(t, opts.MaxEvaluations, test.ShouldEqual, 400)

	test.That(t, cfg.Simulation.Track.Kind, test.ShouldEqual, sim.TrackCircle)
	test.That(t, cfg.Simulation.Track.Radius, test.ShouldEqual, 4.0)
	test.That(t, cfg.Simulation.Track.Spacing, test.ShouldEqual, sim.DefaultConfig().Track.Spacing)
	test.That(t, cfg.Simulation.Cycles, test.ShouldEqual, 50)
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name string
		conf string
		msg  string
	}{
		{"bad json", `{"controller": `, "decode"},
		{"unknown attribute", `{"attributes": {"cte_weight": 1}}`, "cte_weight"},
		{"bad attribute type", `{"attributes": {"steps_ahead": "many"}}`, "attributes"},
		{"bad duration", `{"solver": {"max_time": "soon"}}`, "max_time"},
		{"ref speed too high", `{"controller": {"ref_v": 9}}`, "ref_v"},
		{"bad track", `{"simulation": {"track": {"kind": "spiral"}}}`, "spiral"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader("", strings.NewReader(tc.conf), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}

	_, err := FromReader("", strings.NewReader(`{"controller": {"steps_ahead": 1}}`), logger)
	test.That(t, errors.Is(err, mpc.ErrInvalidParams), test.ShouldBeTrue)

	_, err = FromReader("", strings.NewReader(`{"simulation": {"ref_v": 9}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "simulation")
	test.That(t, errors.Is(err, mpc.ErrInvalidParams), test.ShouldBeTrue)

	_, err = FromReader("", strings.NewReader(`{"controller": {"speed_upper_bound": 3}, "simulation": {"ref_v": 3}}`), logger)
	test.That(t, errors.Is(err, mpc.ErrInvalidParams), test.ShouldBeTrue)

	_, err = FromReader("", strings.NewReader(`{"simulation": {"ref_v": 2}}`), logger)
	test.That(t, err, test.ShouldBeNil)
}

func TestReadSubstitutesEnvironment(t *testing.T) {
	t.Setenv("MPC_TEST_STEPS", "8")
	t.Setenv("MPC_TEST_EPSI", "75")

	path := filepath.Join(t.TempDir(), "mpc.json")
	conf := `{
		"attributes": {"steps_ahead": "${MPC_TEST_STEPS}", "epsi_coeff": "${MPC_TEST_EPSI}"},
		"solver": {"max_time": "${MPC_TEST_MAX_TIME:-250ms}"}
	}`
	test.That(t, os.WriteFile(path, []byte(conf), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.Controller.StepsAhead, test.ShouldEqual, 8)
	test.That(t, cfg.Controller.EPsiCoeff, test.ShouldEqual, 75.0)
	opts, err := cfg.Solver.Options()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.MaxTime, test.ShouldEqual, 250*time.Millisecond)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAttributeMap(t *testing.T) {
	am := AttributeMap{"b": 1, "a": "x"}
	test.That(t, am.Has("a"), test.ShouldBeTrue)
	test.That(t, am.Has("c"), test.ShouldBeFalse)
	test.That(t, am.Keys(), test.ShouldResemble, []string{"a", "b"})

	params := mpc.DefaultParams()
	test.That(t, DecodeAttributes(nil, &params), test.ShouldBeNil)
	test.That(t, params, test.ShouldResemble, mpc.DefaultParams())
}
