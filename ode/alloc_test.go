package ode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFaulty(t *testing.T) (*faultAllocator, *Node) {
	t.Helper()
	a := &faultAllocator{}
	root, err := NewIn(a, []byte("r"))
	require.NoError(t, err)

	x, err := root.Add([]byte("x"))
	require.NoError(t, err)
	_, err = x.Add([]byte("deep"))
	require.NoError(t, err)
	_, err = root.Add([]byte("y"))
	require.NoError(t, err)
	return a, root
}

func TestNewReportsAllocationFailure(t *testing.T) {
	a := &faultAllocator{}
	a.arm(1)
	_, err := NewIn(a, []byte("r"))
	require.ErrorIs(t, err, errAllocFault)
	assert.Zero(t, a.liveBufs)
}

func TestAddAtomicOnAllocFailure(t *testing.T) {
	a, root := buildFaulty(t)

	requireAtomic(t, a, root, func() error {
		_, err := root.Add([]byte("new"))
		return err
	})

	require.NotNil(t, root.Child([]byte("new")))
	// The grown array relocated; grandchildren must have been
	// re-pointed at their parent's new address.
	require.Same(t, root.Get("x"), root.Get("x", "deep").Parent())
	require.NoError(t, root.Check())
}

func TestRenameAtomicOnAllocFailure(t *testing.T) {
	a, root := buildFaulty(t)

	requireAtomic(t, a, root, func() error {
		// A longer name forces a reallocation.
		return root.Child([]byte("y")).Rename([]byte("a longer name"))
	})
	require.NotNil(t, root.Child([]byte("a longer name")))
}

func TestSetValueAtomicOnAllocFailure(t *testing.T) {
	a, root := buildFaulty(t)
	y := root.Child([]byte("y"))
	require.NoError(t, y.SetValue([]byte("first")))

	requireAtomic(t, a, root, func() error {
		return y.SetValue([]byte("a considerably longer value"))
	})

	v, ok := y.Value()
	require.True(t, ok)
	assert.Equal(t, []byte("a considerably longer value"), v)
}

// Delete's only fallible step is the child-array shrink; a failure
// must restore the deleted slot byte for byte, grandchildren included.
func TestDeleteRollbackOnShrinkFailure(t *testing.T) {
	a, root := buildFaulty(t)

	requireAtomic(t, a, root, func() error {
		return root.Child([]byte("x")).Delete()
	})

	require.Nil(t, root.Get("x"))
	require.Equal(t, 1, root.Len())
	require.NotNil(t, root.Child([]byte("y")))
	require.NoError(t, root.Check())
}

func TestDeleteMovedChildRepairUnderRelocation(t *testing.T) {
	// faultAllocator always relocates on shrink, so deleting a middle
	// child exercises the full one-level repair.
	_, root := buildFaulty(t)
	_, err := root.Add([]byte("z"))
	require.NoError(t, err)

	require.NoError(t, root.Child([]byte("y")).Delete())

	deep := root.Get("x", "deep")
	require.NotNil(t, deep)
	require.Same(t, root.Get("x"), deep.Parent())
	require.NoError(t, root.Check())
}

func TestParseTextLeakFreeOnFailure(t *testing.T) {
	a := &faultAllocator{}

	// Structurally invalid input: the value string is unterminated.
	_, err := ParseTextIn(a, []byte(`"r"||"a":"v";"b`))
	require.Error(t, err)
	assert.Zero(t, a.liveBufs, "leaked byte buffers")
	assert.Zero(t, a.liveSubs, "leaked child arrays")

	// Allocation failure mid-parse: every prior allocation is undone.
	for failAt := 1; failAt < 16; failAt++ {
		a.arm(failAt)
		o, err := ParseTextIn(a, []byte(`"r"||"a":"v";"b";`))
		a.disarm()
		if err == nil {
			require.NoError(t, o.Delete())
			break
		}
		require.ErrorIs(t, err, errAllocFault)
		assert.Zero(t, a.liveBufs, "leaked byte buffers (failAt=%d)", failAt)
		assert.Zero(t, a.liveSubs, "leaked child arrays (failAt=%d)", failAt)
	}

	assert.Zero(t, a.liveBufs)
	assert.Zero(t, a.liveSubs)
}

func TestParsePackedLeakFreeOnFailure(t *testing.T) {
	src := mustNew(t, "r")
	x := mustAdd(t, src, "x")
	mustSetValue(t, x, "v")
	mustAdd(t, src, "y")
	buf, err := EmitPacked(src)
	require.NoError(t, err)

	a := &faultAllocator{}
	for failAt := 1; failAt < 16; failAt++ {
		a.arm(failAt)
		o, err := ParsePackedIn(a, buf)
		a.disarm()
		if err == nil {
			require.NoError(t, o.Delete())
			break
		}
		require.ErrorIs(t, err, errAllocFault)
		assert.Zero(t, a.liveBufs, "leaked byte buffers (failAt=%d)", failAt)
		assert.Zero(t, a.liveSubs, "leaked child arrays (failAt=%d)", failAt)
	}

	assert.Zero(t, a.liveBufs)
	assert.Zero(t, a.liveSubs)
}

func TestWipingAllocatorScrubsOnFree(t *testing.T) {
	root, err := NewIn(WipingAllocator{}, []byte("secrets"))
	require.NoError(t, err)
	require.NoError(t, root.SetValue([]byte("hunter2")))

	v, ok := root.Value()
	require.True(t, ok)

	require.NoError(t, root.Delete())
	assert.Equal(t, make([]byte, len(v)), v, "freed buffer not scrubbed")
}

func TestDefaultAllocatorZeroLengthIsPresent(t *testing.T) {
	b, err := DefaultAllocator.Allocate(0)
	require.NoError(t, err)
	require.NotNil(t, b)

	b, err = WipingAllocator{}.Allocate(0)
	require.NoError(t, err)
	require.NotNil(t, b)
}
