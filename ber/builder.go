package ber

import "bytes"

// Builder assembles a TLV stream back to front: fields are prepended starting
// with the one that ends up last on the wire, so a PDU whose fields must be
// encoded in descending tag-number order still reads in ascending order.
type Builder struct {
	buf []byte // content occupies buf[pos:]
	pos int
}

// NewBuilder returns a builder with room for sizehint bytes.
func NewBuilder(sizehint int) *Builder {
	if sizehint < 16 {
		sizehint = 16
	}
	return &Builder{buf: make([]byte, sizehint), pos: sizehint}
}

func (b *Builder) grow(n int) {
	if b.pos >= n {
		return
	}
	l := len(b.buf) - b.pos
	nc := 2*len(b.buf) + n
	nb := make([]byte, nc)
	copy(nb[nc-l:], b.buf[b.pos:])
	b.buf = nb
	b.pos = nc - l
}

// Len returns the number of bytes currently in the builder.
func (b *Builder) Len() int {
	return len(b.buf) - b.pos
}

// Bytes returns the assembled wire image in reading order. The slice aliases
// the builder's storage and stays valid until the next prepend.
func (b *Builder) Bytes() []byte {
	return b.buf[b.pos:]
}

// PrependBytes places p before the current content.
func (b *Builder) PrependBytes(p []byte) {
	b.grow(len(p))
	b.pos -= len(p)
	copy(b.buf[b.pos:], p)
}

// PrependByte places a single byte before the current content.
func (b *Builder) PrependByte(c byte) {
	b.grow(1)
	b.pos--
	b.buf[b.pos] = c
}

// PrependTLV places a complete TLV before the current content.
func (b *Builder) PrependTLV(tag Tag, value []byte) {
	b.PrependBytes(value)
	b.prependheader(tag, uint(len(value)))
}

// Wrap frames everything currently in the builder under tag.
func (b *Builder) Wrap(tag Tag) {
	b.prependheader(tag, uint(b.Len()))
}

func (b *Builder) prependheader(tag Tag, l uint) {
	var hdr bytes.Buffer
	tag.encode(&hdr)
	encodelength(&hdr, l)
	b.PrependBytes(hdr.Bytes())
}
