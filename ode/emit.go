package ode

import "fmt"

// Text format delimiters.
const (
	objSpec  = '|' // child-count marker, repeated
	objSep   = ';' // object terminator
	strSpec  = '#' // raw-string fence
	strSep   = '"' // string quote
	fieldSep = ':' // name/value separator
)

// fenceWidth returns the number of strSpec characters required around
// b in serial form: one more than the longest run of fence characters
// immediately following a quote anywhere in b, or zero when b contains
// no quote. This is the smallest width whose closing sequence cannot
// occur inside b.
func fenceWidth(b []byte) int {
	hi := 0
	for i := 0; i < len(b); i++ {
		if b[i] != strSep {
			continue
		}
		specs := 1
		for i+1 < len(b) && b[i+1] == strSpec {
			specs++
			i++
		}
		if specs > hi {
			hi = specs
		}
	}
	return hi
}

// serialLen returns the serial size of a string of length n with a
// fence of specs characters: the content, two quotes and both fences.
func serialLen(n, specs int) int {
	return n + 2*specs + 2
}

// textSize returns the exact serial size of o's subtree, so the
// emitter can fill a single allocation.
func textSize(o *Node) int {
	size := serialLen(len(o.name), fenceWidth(o.name))

	switch {
	case o.value != nil:
		// Field separator and terminator around the value.
		size += 2 + serialLen(len(o.value), fenceWidth(o.value))
	case len(o.sub) > 0:
		size += len(o.sub) // child-count markers
		for i := range o.sub {
			size += textSize(&o.sub[i])
		}
	default:
		size++ // terminator
	}
	return size
}

// emitString writes b in fenced serial form at buf[pos:] and returns
// the next write position.
func emitString(buf []byte, pos int, b []byte) int {
	specs := fenceWidth(b)

	for i := 0; i < specs; i++ {
		buf[pos+i] = strSpec
	}
	pos += specs
	buf[pos] = strSep
	pos++
	copy(buf[pos:], b)
	pos += len(b)
	buf[pos] = strSep
	pos++
	for i := 0; i < specs; i++ {
		buf[pos+i] = strSpec
	}
	return pos + specs
}

// emitNode writes o's subtree at buf[pos:] and returns the next write
// position.
func emitNode(buf []byte, pos int, o *Node) int {
	pos = emitString(buf, pos, o.name)

	switch {
	case o.value != nil:
		buf[pos] = fieldSep
		pos = emitString(buf, pos+1, o.value)
		buf[pos] = objSep
		pos++
	case len(o.sub) > 0:
		for i := range o.sub {
			buf[pos+i] = objSpec
		}
		pos += len(o.sub)
		for i := range o.sub {
			pos = emitNode(buf, pos, &o.sub[i])
		}
	default:
		buf[pos] = objSep
		pos++
	}
	return pos
}

// EmitText serializes o and its subtree into the delimited text form
// described in the package documentation. The returned buffer comes
// from the tree's allocator and is sized exactly; free it through that
// allocator when it frees eagerly.
func EmitText(o *Node) ([]byte, error) {
	buf, err := o.allocator().Allocate(textSize(o))
	if err != nil {
		return nil, fmt.Errorf("ode: emit text: %w", err)
	}
	emitNode(buf, 0, o)
	return buf, nil
}
