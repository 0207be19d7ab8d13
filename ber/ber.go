// Package ber implements the subset of ISO-8825 basic encoding rules used by
// the COSEM application layer: tag/length/value framing with universal,
// application and context-specific classes, definite short and long lengths,
// OBJECT IDENTIFIER and BIT STRING content codecs and a back-to-front builder
// for PDUs whose fields are encoded in reverse order.
package ber

import (
	"bytes"

	"github.com/metergrid/libcosem-go/base"
)

type Class byte

const (
	ClassUniversal       Class = 0x00
	ClassApplication     Class = 0x40
	ClassContextSpecific Class = 0x80
	ClassPrivate         Class = 0xC0
)

func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "universal"
	case ClassApplication:
		return "application"
	case ClassContextSpecific:
		return "context-specific"
	default:
		return "private"
	}
}

// Universal tag numbers used by the association PDUs.
const (
	TagInteger          = 2
	TagBitString        = 3
	TagOctetString      = 4
	TagObjectIdentifier = 6
	TagSequence         = 16
	TagGraphicString    = 25
)

// Tag identifies a TLV. Number and class round-trip exactly through
// encode/decode, including the multi-byte form for numbers above 30.
type Tag struct {
	Class       Class
	Constructed bool
	Number      uint32
}

func UniversalTag(number uint32, constructed bool) Tag {
	return Tag{Class: ClassUniversal, Constructed: constructed, Number: number}
}

func ApplicationTag(number uint32, constructed bool) Tag {
	return Tag{Class: ClassApplication, Constructed: constructed, Number: number}
}

// ContextTag builds a context-specific tag, the form ACSE PDU fields use.
func ContextTag(number uint32, constructed bool) Tag {
	return Tag{Class: ClassContextSpecific, Constructed: constructed, Number: number}
}

// IdentifierByte returns the single identifier octet for tag numbers below 31.
func (t Tag) IdentifierByte() byte {
	b := byte(t.Class)
	if t.Constructed {
		b |= 0x20
	}
	return b | byte(t.Number&0x1f)
}

func (t Tag) encode(dst *bytes.Buffer) {
	if t.Number < 31 {
		dst.WriteByte(t.IdentifierByte())
		return
	}
	b := byte(t.Class) | 0x1f
	if t.Constructed {
		b |= 0x20
	}
	dst.WriteByte(b)
	n := t.Number
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(n & 0x7f)
	n >>= 7
	for n != 0 {
		i--
		tmp[i] = byte(n&0x7f) | 0x80
		n >>= 7
	}
	dst.Write(tmp[i:])
}

func decodetag(src []byte, off int) (Tag, int, error) {
	if len(src) == 0 {
		return Tag{}, 0, base.InvalidDataf("truncated tag at offset %d", off)
	}
	t := Tag{Class: Class(src[0] & 0xc0), Constructed: src[0]&0x20 != 0, Number: uint32(src[0] & 0x1f)}
	if t.Number != 0x1f {
		return t, 1, nil
	}
	t.Number = 0
	for i := 1; ; i++ {
		if i >= len(src) {
			return Tag{}, 0, base.InvalidDataf("truncated tag number at offset %d", off+i)
		}
		if t.Number > 0x1ffffff {
			return Tag{}, 0, base.InvalidDataf("too much bytes for tag number at offset %d", off)
		}
		t.Number = t.Number<<7 | uint32(src[i]&0x7f)
		if src[i]&0x80 == 0 {
			if t.Number < 31 {
				return Tag{}, 0, base.InvalidDataf("non-canonical tag number at offset %d", off)
			}
			return t, i + 1, nil
		}
	}
}

func encodelength(dst *bytes.Buffer, l uint) {
	if l < 128 {
		dst.WriteByte(byte(l))
		return
	}
	if l < 256 {
		dst.WriteByte(0x81)
		dst.WriteByte(byte(l))
		return
	}
	if l < 65536 {
		dst.WriteByte(0x82)
		dst.WriteByte(byte(l >> 8))
		dst.WriteByte(byte(l))
		return
	}
	if l < 16777216 {
		dst.WriteByte(0x83)
		dst.WriteByte(byte(l >> 16))
		dst.WriteByte(byte(l >> 8))
		dst.WriteByte(byte(l))
		return
	}
	dst.WriteByte(0x84)
	dst.WriteByte(byte(l >> 24))
	dst.WriteByte(byte(l >> 16))
	dst.WriteByte(byte(l >> 8))
	dst.WriteByte(byte(l))
}

func codedlength(l uint) int {
	switch {
	case l < 128:
		return 1
	case l < 256:
		return 2
	case l < 65536:
		return 3
	case l < 16777216:
		return 4
	default:
		return 5
	}
}

func decodelength(src []byte, off int) (uint, int, error) {
	if len(src) == 0 {
		return 0, 0, base.InvalidDataf("truncated length at offset %d", off)
	}
	b := src[0]
	if b < 128 {
		return uint(b), 1, nil
	}
	if b == 128 {
		return 0, 0, base.InvalidDataf("unsupported infinite length at offset %d", off)
	}
	c := int(b & 0x7f)
	if c > 4 {
		return 0, 0, base.InvalidDataf("too much bytes for length at offset %d", off)
	}
	if len(src) < c+1 {
		return 0, 0, base.InvalidDataf("truncated length at offset %d", off)
	}
	r := uint(0)
	for i := 0; i < c; i++ {
		r = (r << 8) | uint(src[1+i])
	}
	return r, c + 1, nil
}

// EncodeTLV frames value under tag with a minimal definite length.
func EncodeTLV(tag Tag, value []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(value) + 6)
	AppendTLV(&buf, tag, value)
	return buf.Bytes()
}

// AppendTLV writes the framed value into dst.
func AppendTLV(dst *bytes.Buffer, tag Tag, value []byte) {
	tag.encode(dst)
	encodelength(dst, uint(len(value)))
	dst.Write(value)
}

// DecodeTLV parses the first TLV of src and returns its tag, content and the
// total number of bytes consumed. Truncated and malformed input fails with a
// typed invalid-data error, never a panic.
func DecodeTLV(src []byte) (Tag, []byte, int, error) {
	return decodeTLVAt(src, 0)
}

func decodeTLVAt(src []byte, off int) (Tag, []byte, int, error) {
	tag, tn, err := decodetag(src, off)
	if err != nil {
		return Tag{}, nil, 0, err
	}
	dlen, ln, err := decodelength(src[tn:], off+tn)
	if err != nil {
		return Tag{}, nil, 0, err
	}
	total := tn + ln + int(dlen)
	if len(src) < total {
		return Tag{}, nil, 0, base.InvalidDataf("content of %d bytes does not fit in %d remaining at offset %d", dlen, len(src)-tn-ln, off+tn+ln)
	}
	return tag, src[tn+ln : total], total, nil
}

// EncodeSequence concatenates the already encoded fields under a universal
// SEQUENCE header.
func EncodeSequence(fields ...[]byte) []byte {
	total := 0
	for _, f := range fields {
		total += len(f)
	}
	var buf bytes.Buffer
	buf.Grow(total + 6)
	UniversalTag(TagSequence, true).encode(&buf)
	encodelength(&buf, uint(total))
	for _, f := range fields {
		buf.Write(f)
	}
	return buf.Bytes()
}

// EncodeInteger yields the minimal two's complement content octets.
func EncodeInteger(v int64) []byte {
	n := 1
	for ; n < 8; n++ {
		if v>>(8*uint(n)-1) == 0 || v>>(8*uint(n)-1) == -1 {
			break
		}
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = byte(v >> (8 * uint(i)))
	}
	return out
}

// DecodeInteger parses two's complement content octets of up to eight bytes.
func DecodeInteger(content []byte) (int64, error) {
	if len(content) == 0 {
		return 0, base.InvalidDataf("empty integer content")
	}
	if len(content) > 8 {
		return 0, base.InvalidDataf("too much bytes for integer")
	}
	v := int64(int8(content[0]))
	for _, b := range content[1:] {
		v = v<<8 | int64(b)
	}
	return v, nil
}
