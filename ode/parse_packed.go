package ode

import "encoding/binary"

// packedParser decodes the packed binary form. Every declared length
// and count is validated against the remaining input before any
// allocation is sized from it.
type packedParser struct {
	data  []byte
	pos   int
	alloc Allocator
}

// ParsePacked reconstructs a root node from packed serial data, using
// DefaultAllocator. Both the native and the compressed framing are
// accepted. Invalid input yields a *ParseError and leaves nothing
// allocated.
func ParsePacked(data []byte) (*Node, error) {
	return ParsePackedIn(nil, data)
}

// ParsePackedIn is ParsePacked with an explicit allocator for the
// reconstructed tree. A nil allocator selects DefaultAllocator.
func ParsePackedIn(a Allocator, data []byte) (*Node, error) {
	if a == nil {
		a = DefaultAllocator
	}
	if len(data) == 0 {
		return nil, parseErr("empty input", 0)
	}

	switch data[0] {
	case magicPacked:
		return parsePackedBuf(a, data)
	case magicCompressed:
		inner, err := zstdDec.DecodeAll(data[1:], nil)
		if err != nil {
			return nil, parseErr("bad compressed payload", 1)
		}
		if len(inner) == 0 || inner[0] != magicPacked {
			return nil, parseErr("bad magic byte in compressed payload", 1)
		}
		return parsePackedBuf(a, inner)
	default:
		return nil, parseErr("bad magic byte", 0)
	}
}

// parsePackedBuf decodes a complete native packed buffer, magic
// included.
func parsePackedBuf(a Allocator, data []byte) (*Node, error) {
	p := &packedParser{data: data, pos: 1, alloc: a}

	root := &Node{alloc: a}
	if err := p.parseRecord(root); err != nil {
		return nil, err
	}
	if p.pos != len(p.data) {
		destroy(root, a)
		return nil, parseErr("trailing data", p.pos)
	}
	return root, nil
}

// length reads a word and validates it as a byte length against the
// remaining input.
func (p *packedParser) length() (int, error) {
	if len(p.data)-p.pos < wordSize {
		return 0, parseErr("truncated length", p.pos)
	}
	v := binary.NativeEndian.Uint64(p.data[p.pos:])
	p.pos += wordSize
	if v > uint64(len(p.data)-p.pos) {
		return 0, parseErr("declared length exceeds input", p.pos-wordSize)
	}
	return int(v), nil
}

// readBytes reads an allocator-owned copy of a length-prefixed byte
// string into *dst.
func (p *packedParser) readBytes(dst *[]byte) error {
	n, err := p.length()
	if err != nil {
		return err
	}
	buf, err := p.alloc.Allocate(n)
	if err != nil {
		return err
	}
	copy(buf, p.data[p.pos:p.pos+n])
	p.pos += n
	*dst = buf
	return nil
}

// parseRecord decodes one record into dst, recursing into
// subordinates. On failure everything parseRecord allocated into dst
// is released and dst is left cleared.
func (p *packedParser) parseRecord(dst *Node) error {
	if err := p.readBytes(&dst.name); err != nil {
		return err
	}

	fail := func(err error) error {
		p.alloc.Free(dst.name)
		dst.name = nil
		if dst.value != nil {
			p.alloc.Free(dst.value)
			dst.value = nil
		}
		return err
	}

	if p.pos >= len(p.data) {
		return fail(parseErr("truncated record", p.pos))
	}
	tag := p.data[p.pos]
	p.pos++

	switch tag {
	case tagValue:
		if err := p.readBytes(&dst.value); err != nil {
			return fail(err)
		}

	case tagSub:
		if len(p.data)-p.pos < wordSize {
			return fail(parseErr("truncated child count", p.pos))
		}
		v := binary.NativeEndian.Uint64(p.data[p.pos:])
		p.pos += wordSize

		// A record is at least a zero name length and a tag, which
		// bounds the count an honest input can declare.
		const minRecord = wordSize + 1
		if v == 0 || v > uint64(len(p.data)-p.pos)/minRecord {
			return fail(parseErr("bad child count", p.pos-wordSize))
		}
		nsub := int(v)

		sub, err := p.alloc.AllocateNodes(nsub)
		if err != nil {
			return fail(err)
		}
		for i := range sub {
			sub[i].parent = dst
			if err := p.parseRecord(&sub[i]); err != nil {
				for j := 0; j < i; j++ {
					destroy(&sub[j], p.alloc)
				}
				p.alloc.FreeNodes(sub)
				return fail(err)
			}
		}
		dst.sub = sub

	case tagEmpty:
		// Nothing follows.

	default:
		return fail(parseErr("unknown record tag", p.pos-1))
	}

	return nil
}
