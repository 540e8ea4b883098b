package ode

import (
	"bytes"
	"fmt"
)

// Node is the tree entity. It holds a name and either a value, an
// ordered set of subordinate nodes, or neither. See the package
// documentation for the ownership and invalidation rules.
//
// The zero Node is not usable; obtain nodes from New, Add, ParseText
// or ParsePacked.
type Node struct {
	name  []byte
	value []byte // nil means no value; a node never has value and sub

	sub    []Node // children, embedded by value
	parent *Node  // nil on roots

	alloc Allocator // set on roots only
}

// New creates an empty root node named name, using DefaultAllocator.
// The name bytes are copied. Apply Delete to the node after use if the
// tree's allocator frees eagerly.
func New(name []byte) (*Node, error) {
	return NewIn(nil, name)
}

// NewIn is New with an explicit allocator for the whole tree. A nil
// allocator selects DefaultAllocator.
func NewIn(a Allocator, name []byte) (*Node, error) {
	o := &Node{alloc: a}
	if err := setBuf(o.allocator(), &o.name, name); err != nil {
		return nil, fmt.Errorf("ode: new: %w", err)
	}
	return o, nil
}

// allocator resolves the tree's allocator by walking to the root.
func (o *Node) allocator() Allocator {
	r := o
	for r.parent != nil {
		r = r.parent
	}
	if r.alloc != nil {
		return r.alloc
	}
	return DefaultAllocator
}

// Name returns the node's name. The returned slice is the engine's
// copy; do not modify it, use Rename instead.
func (o *Node) Name() []byte {
	return o.name
}

// Value returns the node's value and whether one is present. A present
// zero-length value reports ([]byte{}, true), distinct from (nil,
// false) on a value-less node. The returned slice is the engine's
// copy; do not modify it, use SetValue instead.
func (o *Node) Value() ([]byte, bool) {
	return o.value, o.value != nil
}

// Parent returns the owning node, or nil if o is a root.
func (o *Node) Parent() *Node {
	return o.parent
}

// IsRoot reports whether o has no parent.
func (o *Node) IsRoot() bool {
	return o.parent == nil
}

// Len returns the number of direct children.
func (o *Node) Len() int {
	return len(o.sub)
}

// Iter steps through the direct children of o in storage order. Pass
// nil to obtain the first child (or nil if o has none); pass a child
// of o to obtain its successor, or nil if it was the last. Passing a
// node that is not currently a child of o returns nil.
func (o *Node) Iter(pos *Node) *Node {
	if pos == nil {
		if len(o.sub) == 0 {
			return nil
		}
		return &o.sub[0]
	}
	for i := range o.sub {
		if &o.sub[i] == pos {
			if i+1 < len(o.sub) {
				return &o.sub[i+1]
			}
			return nil
		}
	}
	return nil
}

// Equal reports whether two subtrees have equal structure and content:
// same name, same value presence and bytes, and pairwise-equal
// children in storage order. Parents and allocators do not
// participate.
func (o *Node) Equal(p *Node) bool {
	if o == nil || p == nil {
		return o == p
	}
	if !bytes.Equal(o.name, p.name) {
		return false
	}
	if (o.value != nil) != (p.value != nil) || !bytes.Equal(o.value, p.value) {
		return false
	}
	if len(o.sub) != len(p.sub) {
		return false
	}
	for i := range o.sub {
		if !o.sub[i].Equal(&p.sub[i]) {
			return false
		}
	}
	return true
}

// String returns the node's text-codec form, for debugging. It uses
// the tree's allocator; if that allocator fails the error text is
// returned instead.
func (o *Node) String() string {
	b, err := EmitText(o)
	if err != nil {
		return "<ode: " + err.Error() + ">"
	}
	return string(b)
}
