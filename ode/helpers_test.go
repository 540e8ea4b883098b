package ode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// treeLit is an allocator-free projection of a subtree, comparable
// with go-cmp or plain equality in tests.
type treeLit struct {
	Name  string
	Value *string
	Sub   []treeLit
}

func project(o *Node) treeLit {
	l := treeLit{Name: string(o.Name())}
	if v, ok := o.Value(); ok {
		s := string(v)
		l.Value = &s
	}
	for c := o.Iter(nil); c != nil; c = o.Iter(c) {
		l.Sub = append(l.Sub, project(c))
	}
	return l
}

// errAllocFault is what faultAllocator injects.
var errAllocFault = errors.New("allocation fault")

// faultAllocator is a runtime-backed allocator that fails the n-th
// fallible call after arm(n), always relocates on Reallocate (to
// exercise the back-reference repair paths), and tracks outstanding
// allocations to detect leaks.
type faultAllocator struct {
	failAt int // 1-based fallible call to fail; 0 when disarmed
	calls  int

	liveBufs int
	liveSubs int
}

func (a *faultAllocator) arm(n int) { a.failAt, a.calls = n, 0 }
func (a *faultAllocator) disarm()   { a.failAt = 0 }

func (a *faultAllocator) inject() bool {
	a.calls++
	return a.failAt != 0 && a.calls == a.failAt
}

func (a *faultAllocator) Allocate(n int) ([]byte, error) {
	if a.inject() {
		return nil, errAllocFault
	}
	a.liveBufs++
	return make([]byte, n), nil
}

func (a *faultAllocator) Reallocate(buf []byte, n int) ([]byte, error) {
	if a.inject() {
		return nil, errAllocFault
	}
	nb := make([]byte, n)
	copy(nb, buf)
	return nb, nil
}

func (a *faultAllocator) Free([]byte) { a.liveBufs-- }

func (a *faultAllocator) AllocateNodes(n int) ([]Node, error) {
	if a.inject() {
		return nil, errAllocFault
	}
	a.liveSubs++
	return make([]Node, n), nil
}

func (a *faultAllocator) ReallocateNodes(sub []Node, n int) ([]Node, error) {
	if a.inject() {
		return nil, errAllocFault
	}
	ns := make([]Node, n)
	copy(ns, sub)
	return ns, nil
}

func (a *faultAllocator) FreeNodes([]Node) { a.liveSubs-- }

// requireAtomic drives op through every possible allocation failure in
// turn, requiring that each failed attempt leaves the tree
// byte-identical and leak-free, until op finally succeeds.
func requireAtomic(t *testing.T, a *faultAllocator, root *Node, op func() error) {
	t.Helper()

	snap := project(root)
	bufs, subs := a.liveBufs, a.liveSubs

	for failAt := 1; ; failAt++ {
		require.Less(t, failAt, 32, "operation never succeeded")

		a.arm(failAt)
		err := op()
		a.disarm()
		if err == nil {
			return
		}

		require.ErrorIs(t, err, errAllocFault)
		require.Equal(t, snap, project(root))
		require.Equal(t, bufs, a.liveBufs, "leaked byte buffers")
		require.Equal(t, subs, a.liveSubs, "leaked child arrays")
		require.NoError(t, root.Check())
	}
}
