package ber

import "github.com/metergrid/libcosem-go/base"

// BitString is a BER BIT STRING: packed bits plus the count of unused
// trailing bits in the last octet.
type BitString struct {
	Bits       []byte
	UnusedBits byte
}

// NewBitString packs the given bits most significant first, the layout the
// ACSE protocol-version and acse-requirements fields use.
func NewBitString(bits []bool) BitString {
	bs := BitString{Bits: make([]byte, (len(bits)+7)/8)}
	for i, set := range bits {
		if set {
			bs.Bits[i/8] |= 0x80 >> uint(i%8)
		}
	}
	if len(bits)%8 != 0 {
		bs.UnusedBits = byte(8 - len(bits)%8)
	}
	return bs
}

// Len returns the number of significant bits.
func (bs BitString) Len() int {
	return len(bs.Bits)*8 - int(bs.UnusedBits)
}

// Bit reports whether bit i (most significant first) is set; out-of-range
// bits read as unset.
func (bs BitString) Bit(i int) bool {
	if i < 0 || i >= bs.Len() {
		return false
	}
	return bs.Bits[i/8]&(0x80>>uint(i%8)) != 0
}

// Encode yields the content octets: unused-bit count followed by the packed
// bits.
func (bs BitString) Encode() []byte {
	out := make([]byte, 1+len(bs.Bits))
	out[0] = bs.UnusedBits
	copy(out[1:], bs.Bits)
	return out
}

// DecodeBitString parses BIT STRING content octets.
func DecodeBitString(content []byte) (BitString, error) {
	if len(content) == 0 {
		return BitString{}, base.InvalidDataf("empty bit string content")
	}
	if content[0] > 7 {
		return BitString{}, base.InvalidDataf("invalid unused bit count %d", content[0])
	}
	if content[0] > 0 && len(content) == 1 {
		return BitString{}, base.InvalidDataf("unused bits in empty bit string")
	}
	return BitString{Bits: content[1:], UnusedBits: content[0]}, nil
}
