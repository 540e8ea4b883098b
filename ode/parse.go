package ode

// textParser decodes the delimited text form. It operates on one
// complete in-memory buffer; there is no streaming mode.
type textParser struct {
	data  []byte
	pos   int
	alloc Allocator
}

// ParseText reconstructs a root node from text-codec serial data,
// using DefaultAllocator. Invalid input yields a *ParseError and
// leaves nothing allocated. Bytes after a complete root object are
// ignored.
func ParseText(data []byte) (*Node, error) {
	return ParseTextIn(nil, data)
}

// ParseTextIn is ParseText with an explicit allocator for the
// reconstructed tree. A nil allocator selects DefaultAllocator.
func ParseTextIn(a Allocator, data []byte) (*Node, error) {
	if a == nil {
		a = DefaultAllocator
	}
	p := &textParser{data: data, alloc: a}

	root := &Node{alloc: a}
	if err := p.parseNode(root); err != nil {
		return nil, err
	}
	return root, nil
}

// scanString locates the fenced string starting at p.pos. It returns
// the content bytes (aliasing p.data) and advances p.pos past the
// closing fence. The closing sequence is a quote followed by the
// opening fence width of fence characters; a quote followed by fewer
// is literal content.
func (p *textParser) scanString() ([]byte, error) {
	start := p.pos
	s := p.pos
	last := len(p.data) - 1 // index of the final byte

	// Room for at least a pair of quotes.
	if s >= last {
		return nil, parseErr("truncated string", start)
	}

	// Opening fence.
	specs := 0
	for s <= last && p.data[s] != strSep {
		if p.data[s] != strSpec {
			return nil, parseErr("bad character in string fence", s)
		}
		specs++
		s++
	}

	// Opening quote, with room for the closing one.
	if s >= last {
		return nil, parseErr("truncated string", start)
	}
	rStart := s
	s++

	// Find the closing quote: one followed by the full fence.
scan:
	for ; s <= last; s++ {
		if p.data[s] != strSep {
			continue
		}
		rEnd := s
		for k := 0; k < specs; k++ {
			s++
			if s > last {
				return nil, parseErr("unterminated string", start)
			}
			if p.data[s] != strSpec {
				// Literal quote; resume the scan at this byte.
				s--
				continue scan
			}
		}
		p.pos = s + 1
		return p.data[rStart+1 : rEnd], nil
	}

	return nil, parseErr("unterminated string", start)
}

// readString scans a fenced string and stores an allocator-owned copy
// of its content in *dst.
func (p *textParser) readString(dst *[]byte) error {
	content, err := p.scanString()
	if err != nil {
		return err
	}
	buf, err := p.alloc.Allocate(len(content))
	if err != nil {
		return err
	}
	copy(buf, content)
	*dst = buf
	return nil
}

// parseNode decodes one object form into dst, recursing into
// subordinates. On failure everything parseNode allocated into dst is
// released and dst is left cleared, so a failed parse leaks nothing.
func (p *textParser) parseNode(dst *Node) error {
	if err := p.readString(&dst.name); err != nil {
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
		return fail(parseErr("truncated object", p.pos))
	}
	c := p.data[p.pos]
	p.pos++

	switch c {
	case fieldSep:
		if err := p.readString(&dst.value); err != nil {
			return fail(err)
		}
		if p.pos >= len(p.data) || p.data[p.pos] != objSep {
			return fail(parseErr("missing object terminator", p.pos))
		}
		p.pos++

	case objSpec:
		nsub := 1
		for p.pos < len(p.data) && p.data[p.pos] == objSpec {
			nsub++
			p.pos++
		}
		if p.pos >= len(p.data)-1 {
			return fail(parseErr("truncated object", p.pos))
		}

		sub, err := p.alloc.AllocateNodes(nsub)
		if err != nil {
			return fail(err)
		}
		for i := range sub {
			sub[i].parent = dst
			if err := p.parseNode(&sub[i]); err != nil {
				for j := 0; j < i; j++ {
					destroy(&sub[j], p.alloc)
				}
				p.alloc.FreeNodes(sub)
				return fail(err)
			}
		}
		dst.sub = sub

	case objSep:
		// Empty node.

	default:
		return fail(parseErr("unexpected byte in object", p.pos-1))
	}

	return nil
}
