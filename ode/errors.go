package ode

import (
	"errors"
	"fmt"
)

// Errors reported by tree mutations. Allocation failures are reported
// separately, as the allocator's own error wrapped with operation
// context; anything that is not ErrDuplicate or ErrConflict came from
// the allocator.
var (
	// ErrDuplicate is returned when an Add or Rename would give two
	// direct children of the same parent the same name.
	ErrDuplicate = errors.New("ode: duplicate sibling name")

	// ErrConflict is returned when an operation would make a node hold
	// both a value and children.
	ErrConflict = errors.New("ode: node cannot hold both value and children")
)

// ParseError reports malformed serial input to ParseText or
// ParsePacked. No node is ever returned alongside a ParseError, and
// nothing allocated during the failed parse is retained.
type ParseError struct {
	Reason string
	Offset int // byte offset into the input, -1 if not applicable
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("ode: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("ode: %s", e.Reason)
}

func parseErr(reason string, off int) error {
	return &ParseError{Reason: reason, Offset: off}
}
