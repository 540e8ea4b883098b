package ode

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Packed format framing. Lengths and counts are 64-bit integers in
// native byte order: the format trades portability for zero-cost
// encode/decode within one deployment, and both magics identify which
// framing follows.
const (
	magicPacked     = 0xD8 // native packed records
	magicCompressed = 0xD9 // zstd frame holding a complete packed buffer

	wordSize = 8
)

// Record tags.
const (
	tagValue = 0 // length-prefixed payload follows
	tagSub   = 1 // child count and child records follow
	tagEmpty = 2 // nothing follows
)

var (
	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
)

func init() {
	// Stateless helpers for EncodeAll/DecodeAll; neither constructor
	// can fail without options.
	zstdEnc, _ = zstd.NewWriter(nil)
	zstdDec, _ = zstd.NewReader(nil)
}

// packedSize returns the record size of o's subtree, excluding the
// magic byte.
func packedSize(o *Node) int {
	size := wordSize + len(o.name) + 1

	switch {
	case o.value != nil:
		size += wordSize + len(o.value)
	case len(o.sub) > 0:
		size += wordSize
		for i := range o.sub {
			size += packedSize(&o.sub[i])
		}
	}
	return size
}

func putWord(buf []byte, pos int, v uint64) int {
	binary.NativeEndian.PutUint64(buf[pos:], v)
	return pos + wordSize
}

// emitRecord writes o's record at buf[pos:] and returns the next write
// position.
func emitRecord(buf []byte, pos int, o *Node) int {
	pos = putWord(buf, pos, uint64(len(o.name)))
	copy(buf[pos:], o.name)
	pos += len(o.name)

	switch {
	case o.value != nil:
		buf[pos] = tagValue
		pos = putWord(buf, pos+1, uint64(len(o.value)))
		copy(buf[pos:], o.value)
		pos += len(o.value)
	case len(o.sub) > 0:
		buf[pos] = tagSub
		pos = putWord(buf, pos+1, uint64(len(o.sub)))
		for i := range o.sub {
			pos = emitRecord(buf, pos, &o.sub[i])
		}
	default:
		buf[pos] = tagEmpty
		pos++
	}
	return pos
}

// EmitPacked serializes o and its subtree into the packed binary form.
// The returned buffer comes from the tree's allocator and is sized
// exactly.
func EmitPacked(o *Node) ([]byte, error) {
	buf, err := o.allocator().Allocate(1 + packedSize(o))
	if err != nil {
		return nil, fmt.Errorf("ode: emit packed: %w", err)
	}
	buf[0] = magicPacked
	emitRecord(buf, 1, o)
	return buf, nil
}

// EmitPackedCompressed serializes o like EmitPacked and wraps the
// result in a zstd frame behind its own magic byte. ParsePacked
// accepts both forms. The compressed output and the compressor's
// scratch space come from the Go runtime, not the tree's allocator;
// the intermediate packed buffer is freed through the allocator.
func EmitPackedCompressed(o *Node) ([]byte, error) {
	packed, err := EmitPacked(o)
	if err != nil {
		return nil, err
	}
	out := zstdEnc.EncodeAll(packed, []byte{magicCompressed})
	o.allocator().Free(packed)
	return out, nil
}
