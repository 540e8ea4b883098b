package ode

import "bytes"

// Child returns the direct child of o whose name equals name byte for
// byte, or nil if there is none. The search is linear in the number of
// children.
func (o *Node) Child(name []byte) *Node {
	for i := range o.sub {
		if bytes.Equal(o.sub[i].name, name) {
			return &o.sub[i]
		}
	}
	return nil
}

// Get resolves a path of names by repeated single-level lookup
// starting at o. It returns o itself when called with no names, and
// nil as soon as any step has no matching child.
func (o *Node) Get(names ...string) *Node {
	for _, name := range names {
		var next *Node
		for i := range o.sub {
			if string(o.sub[i].name) == name {
				next = &o.sub[i]
				break
			}
		}
		if next == nil {
			return nil
		}
		o = next
	}
	return o
}
