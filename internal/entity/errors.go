package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInvocation is returned by operation bodies that reject their
	// arguments as semantically invalid.
	ErrInvalidInvocation = errors.New("invalid invocation")

	ErrUnknownType       = errors.New("unknown entity type")
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrUnsupportedMember = errors.New("unsupported member type")
	ErrNotCoercible      = errors.New("value not coercible")
)

// Invalid returns an error wrapping ErrInvalidInvocation. Operation bodies
// use it to reject a call without it being treated as a crash.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInvocation, fmt.Sprintf(format, args...))
}
