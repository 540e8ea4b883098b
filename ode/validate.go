package ode

import (
	"bytes"
	"fmt"
)

// InvariantError reports a structural invariant violation found by
// Check, with a path of node names from the checked node to the
// offender.
type InvariantError struct {
	Path    string
	Message string
}

func (e *InvariantError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("ode: %s: %s", e.Path, e.Message)
	}
	return "ode: " + e.Message
}

// Check walks o's subtree and verifies the structural invariants: no
// node holds both a value and children, every child's parent
// back-reference addresses its owning node, and sibling names are
// unique. It returns nil for a healthy subtree and
// an *InvariantError describing the first violation otherwise.
//
// A wiped subtree is the one legitimate state Check flags: Wipe
// clears names without preserving uniqueness.
func (o *Node) Check() error {
	return o.check("")
}

func (o *Node) check(path string) error {
	path += "/" + string(o.name)

	if o.value != nil && len(o.sub) > 0 {
		return &InvariantError{Path: path, Message: "node holds both value and children"}
	}

	for i := range o.sub {
		c := &o.sub[i]
		if c.parent != o {
			return &InvariantError{
				Path:    path + "/" + string(c.name),
				Message: "stale parent back-reference",
			}
		}
		if c.alloc != nil {
			return &InvariantError{
				Path:    path + "/" + string(c.name),
				Message: "allocator bound to a non-root node",
			}
		}
		for j := i + 1; j < len(o.sub); j++ {
			if bytes.Equal(c.name, o.sub[j].name) {
				return &InvariantError{
					Path:    path + "/" + string(c.name),
					Message: "duplicate sibling name",
				}
			}
		}
		if err := c.check(path); err != nil {
			return err
		}
	}
	return nil
}
