package systems

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration marks construction parameters the engine cannot run with.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrOutOfBounds marks a coordinate outside [0,W)x[0,H).
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrInvalidTrait marks a trait vector with a component outside [0,255].
	ErrInvalidTrait = errors.New("trait vector out of range")
)

// ConfigError names the parameter that failed validation.
// It matches ErrInvalidConfiguration under errors.Is.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func outOfBounds(x, y, w, h int) error {
	return fmt.Errorf("%w: (%d,%d) not in %dx%d grid", ErrOutOfBounds, x, y, w, h)
}
