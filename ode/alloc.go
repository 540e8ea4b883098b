package ode

// Allocator is the capability through which a tree obtains, resizes
// and releases all of its storage: the byte buffers behind names,
// values and serial output, and the per-parent child arrays. A tree is
// bound to one allocator at the root (New, NewIn, the parse
// functions); every node in the tree allocates through it.
//
// Contracts, which substitutes must honor:
//
//   - Allocate returns a non-nil slice even for n == 0. A nil value
//     slice means "no value", so zero-length allocations must still be
//     distinguishable from absence.
//   - Reallocate leaves buf fully valid when it fails; when it
//     succeeds, buf must no longer be used. The returned slice holds
//     the first min(len(buf), n) bytes of buf.
//   - Free accepts slices that have been truncated (Wipe shortens
//     lengths but not capacities) and must tolerate zero-length input.
//   - The node-array methods carry the same contracts for []Node.
//     They exist because Go cannot carve typed node storage out of raw
//     bytes the way a C allocator serves both.
//
// Failures are reported as errors and surface unchanged (wrapped) from
// the mutation or codec call that triggered them.
type Allocator interface {
	Allocate(n int) ([]byte, error)
	Reallocate(buf []byte, n int) ([]byte, error)
	Free(buf []byte)

	AllocateNodes(n int) ([]Node, error)
	ReallocateNodes(sub []Node, n int) ([]Node, error)
	FreeNodes(sub []Node)
}

// DefaultAllocator is backed by the Go runtime. It never fails and its
// free operations are no-ops; the garbage collector reclaims storage.
var DefaultAllocator Allocator = runtimeAllocator{}

type runtimeAllocator struct{}

func (runtimeAllocator) Allocate(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func (runtimeAllocator) Reallocate(buf []byte, n int) ([]byte, error) {
	if n <= cap(buf) {
		return buf[:n], nil
	}
	nb := make([]byte, n)
	copy(nb, buf)
	return nb, nil
}

func (runtimeAllocator) Free([]byte) {}

func (runtimeAllocator) AllocateNodes(n int) ([]Node, error) {
	return make([]Node, n), nil
}

func (runtimeAllocator) ReallocateNodes(sub []Node, n int) ([]Node, error) {
	if n <= cap(sub) {
		return sub[:n], nil
	}
	ns := make([]Node, n)
	copy(ns, sub)
	return ns, nil
}

func (runtimeAllocator) FreeNodes([]Node) {}

// ZeroFunc overwrites a buffer with zeros (or a caller-defined "zero"
// pattern). It is used by Wipe and WipingAllocator and must be a no-op
// for empty input.
type ZeroFunc func([]byte)

// Zero is the plain ZeroFunc.
func Zero(b []byte) {
	clear(b)
}

// WipingAllocator is a runtime-backed allocator that scrubs storage on
// release: freed byte buffers are zeroed to their full capacity and
// freed node arrays are cleared. Together with Wipe it keeps trees
// holding secrets from leaving content behind in reclaimed memory.
//
// Note that the runtime may still have copied buffers during growth;
// route growth-sensitive data through fixed-size values where that
// matters.
type WipingAllocator struct {
	// Zero is applied to released byte buffers. Defaults to Zero.
	Zero ZeroFunc
}

func (w WipingAllocator) zero(b []byte) {
	if w.Zero != nil {
		w.Zero(b)
		return
	}
	Zero(b)
}

func (w WipingAllocator) Allocate(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func (w WipingAllocator) Reallocate(buf []byte, n int) ([]byte, error) {
	if n <= cap(buf) {
		return buf[:n], nil
	}
	nb := make([]byte, n)
	copy(nb, buf)
	w.zero(buf[:cap(buf)])
	return nb, nil
}

func (w WipingAllocator) Free(buf []byte) {
	w.zero(buf[:cap(buf)])
}

func (w WipingAllocator) AllocateNodes(n int) ([]Node, error) {
	return make([]Node, n), nil
}

func (w WipingAllocator) ReallocateNodes(sub []Node, n int) ([]Node, error) {
	if n <= cap(sub) {
		return sub[:n], nil
	}
	ns := make([]Node, n)
	copy(ns, sub)
	clear(sub[:cap(sub)])
	return ns, nil
}

func (w WipingAllocator) FreeNodes(sub []Node) {
	clear(sub[:cap(sub)])
}
