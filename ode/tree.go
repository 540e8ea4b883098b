package ode

import "fmt"

// setBuf replaces *dst with a copy of src through a. The operation is
// atomic: on failure *dst is untouched and still valid.
func setBuf(a Allocator, dst *[]byte, src []byte) error {
	old := *dst
	if old != nil && len(old) == len(src) {
		// Same size: overwrite in place, nothing can fail.
		copy(old, src)
		return nil
	}

	var nb []byte
	var err error
	if old != nil {
		nb, err = a.Reallocate(old, len(src))
	} else {
		nb, err = a.Allocate(len(src))
	}
	if err != nil {
		return err
	}
	copy(nb, src)
	*dst = nb
	return nil
}

// reparent repairs the one level of back-references invalidated when
// o's child array has been relocated: the children of each child still
// point at the old addresses. Deeper levels are unaffected because
// their arrays did not move.
func reparent(o *Node) {
	for i := range o.sub {
		c := &o.sub[i]
		for j := range c.sub {
			c.sub[j].parent = c
		}
	}
}

// destroy releases all storage owned by o's subtree through a. The
// space of o itself and its parent are untouched.
func destroy(o *Node, a Allocator) {
	a.Free(o.name)
	if o.value != nil {
		a.Free(o.value)
	} else if o.sub != nil {
		for i := range o.sub {
			destroy(&o.sub[i], a)
		}
		a.FreeNodes(o.sub)
	}
}

// Rename atomically replaces o's name with a copy of name. It fails
// with ErrDuplicate if o has a parent and a different sibling already
// carries the name; renaming a node to its current name succeeds. On
// allocation failure the old name is left intact.
func (o *Node) Rename(name []byte) error {
	if o.parent != nil {
		if c := o.parent.Child(name); c != nil && c != o {
			return ErrDuplicate
		}
	}
	if err := setBuf(o.allocator(), &o.name, name); err != nil {
		return fmt.Errorf("ode: rename: %w", err)
	}
	return nil
}

// SetValue atomically replaces o's value with a copy of value,
// allocating on first use. It fails with ErrConflict if o has
// children. A zero-length value is stored as present-and-empty.
func (o *Node) SetValue(value []byte) error {
	if len(o.sub) > 0 {
		return ErrConflict
	}
	if value == nil {
		value = []byte{}
	}
	if err := setBuf(o.allocator(), &o.value, value); err != nil {
		return fmt.Errorf("ode: set value: %w", err)
	}
	return nil
}

// Add appends an empty child named name to o and returns it. It fails
// with ErrConflict if o holds a value and with ErrDuplicate if o
// already has a child of that name. On success, previously obtained
// pointers to children of o are invalidated; the returned pointer is
// valid until the next structural change to o.
func (o *Node) Add(name []byte) (*Node, error) {
	if o.value != nil {
		return nil, ErrConflict
	}
	if o.Child(name) != nil {
		return nil, ErrDuplicate
	}

	a := o.allocator()
	n := len(o.sub)

	// Prepare a grown copy of the child array; the original is not
	// touched until every fallible step has succeeded.
	grown, err := a.AllocateNodes(n + 1)
	if err != nil {
		return nil, fmt.Errorf("ode: add: %w", err)
	}
	copy(grown, o.sub)

	add := &grown[n]
	add.parent = o
	if err := setBuf(a, &add.name, name); err != nil {
		a.FreeNodes(grown)
		return nil, fmt.Errorf("ode: add: %w", err)
	}

	old := o.sub
	o.sub = grown
	reparent(o) // grandchildren still point into old
	if old != nil {
		a.FreeNodes(old)
	}
	return add, nil
}

// Delete removes o and its subtree from the tree and releases their
// storage. A root is destroyed unconditionally. Deleting a non-root
// may reorder its former siblings (the last child fills the slot) and
// invalidates pointers to them. On failure (the allocator refusing to
// shrink the parent's child array) the tree is unchanged. o must not
// be used after a successful Delete.
func (o *Node) Delete() error {
	a := o.allocator()

	if o.parent == nil {
		destroy(o, a)
		return nil
	}

	sur := o.parent
	n := len(sur.sub)

	if n == 1 {
		destroy(o, a)
		a.FreeNodes(sur.sub)
		sur.sub = nil
		return nil
	}

	// Order is meaningless: fill the slot with the last child, then
	// shrink. The doomed node's content is kept aside so the slot can
	// be restored if the shrink fails.
	backup := *o
	last := &sur.sub[n-1]
	if o != last {
		*o = *last
	}

	shrunk, err := a.ReallocateNodes(sur.sub, n-1)
	if err != nil {
		if o != last {
			*o = backup
		}
		return fmt.Errorf("ode: delete: %w", err)
	}

	moved := len(shrunk) > 0 && len(sur.sub) > 0 && &shrunk[0] != &sur.sub[0]
	destroy(&backup, a)
	sur.sub = shrunk

	if moved {
		reparent(sur)
	} else if o != last {
		// Only the filled slot changed address; repair its children.
		for i := range o.sub {
			o.sub[i].parent = o
		}
	}
	return nil
}

// Wipe overwrites the data of o and its subtree: zero is applied to
// every name and value buffer in depth-first order and the recorded
// lengths are cleared. The structure itself is untouched; o remains
// valid input to Delete. Sibling name uniqueness is intentionally not
// preserved. zero must be a no-op for empty input.
func (o *Node) Wipe(zero ZeroFunc) {
	zero(o.name)
	o.name = o.name[:0]

	if o.value != nil {
		zero(o.value)
		o.value = o.value[:0]
	} else {
		for i := range o.sub {
			o.sub[i].Wipe(zero)
		}
	}
}
