package barneshut

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned when a particle, node, or work queue
	// allocation would go past its configured maximum.
	ErrCapacityExceeded = errors.New("barneshut: capacity exceeded")

	// ErrDegenerateInput is returned when insertion cannot separate
	// particles within the depth bound, or a particle lies outside the
	// root domain.
	ErrDegenerateInput = errors.New("barneshut: degenerate input")

	// ErrInvariant is returned by CheckInvariants.
	ErrInvariant = errors.New("barneshut: invariant violated")
)

// CapacityError names the exhausted resource.
type CapacityError struct {
	Resource string
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("barneshut: %s capacity %d exceeded", e.Resource, e.Limit)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }
