package diffusion

import (
	"errors"

	"github.com/dd0wney/opinion-diffusion/pkg/network"
)

var (
	// ErrInvalidParameter is returned when a configuration cannot describe a run.
	// It is the same value as network.ErrInvalidParameter so callers can test
	// for either with errors.Is.
	ErrInvalidParameter = network.ErrInvalidParameter
	// ErrInvalidState is returned when an operation is not allowed in the
	// engine's current lifecycle state
	ErrInvalidState = errors.New("invalid engine state")
)
