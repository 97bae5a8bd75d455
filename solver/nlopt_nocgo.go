//go:build windows || no_cgo

package solver

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/mpc/logging"
)

// NloptSolver mimics the type in the cgo compiled code.
type NloptSolver struct{}

// NewNloptSolver is not supported on no_cgo builds.
func NewNloptSolver(opts Options, logger logging.Logger) (*NloptSolver, error) {
	return nil, errors.New("nlopt is not supported on this build")
}

// Solve refuses to solve problems without cgo.
func (s *NloptSolver) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	return nil, errors.New("cannot solve without cgo")
}
