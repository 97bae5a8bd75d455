package utils

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestConfigValidationErrors(t *testing.T) {
	err := NewConfigValidationFieldRequiredError("controller", "steps_ahead")
	test.That(t, err.Error(), test.ShouldEqual, `error validating "controller": "steps_ahead" is required`)

	inner := errors.New("dt must be positive")
	err = NewConfigValidationError("controller", inner)
	test.That(t, errors.Cause(err), test.ShouldEqual, inner)
}
