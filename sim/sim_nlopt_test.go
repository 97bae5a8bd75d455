//go:build !windows && !no_cgo

package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/mpc/control/mpc"
	"go.viam.com/mpc/logging"
	"go.viam.com/mpc/solver"
)

func TestClosedLoopConvergesToStraightTrack(t *testing.T) {
	logger := logging.NewTestLogger(t)
	opts := solver.DefaultOptions()
	opts.MaxTime = 2 * time.Second
	s, err := solver.NewNloptSolver(opts, logger)
	test.That(t, err, test.ShouldBeNil)
	c, err := mpc.NewController(mpc.DefaultParams(), s, logger)
	test.That(t, err, test.ShouldBeNil)

	cfg := DefaultConfig()
	cfg.Track = TrackConfig{Kind: TrackStraight, Length: 10, Spacing: 0.5}
	cfg.Start = Pose{Y: 0.3}
	cfg.Cycles = 40
	r, err := NewRunner(cfg, c, logger)
	test.That(t, err, test.ShouldBeNil)

	trace, err := r.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(trace.Samples), test.ShouldEqual, 40)

	first := trace.Samples[0]
	last := trace.Samples[len(trace.Samples)-1]
	test.That(t, first.CTE, test.ShouldAlmostEqual, -0.3, 1e-6)
	test.That(t, math.Abs(last.CTE), test.ShouldBeLessThan, math.Abs(first.CTE))
	test.That(t, last.Pose.X, test.ShouldBeGreaterThan, first.Pose.X)
}
