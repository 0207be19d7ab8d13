package axdr

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/metergrid/libcosem-go/base"
)

func encodelengthto(dst *bytes.Buffer, l uint) {
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

func decodelength(src io.Reader, tmp *tmpbuffer) (uint, int, error) {
	_, err := io.ReadFull(src, tmp[:1])
	if err != nil {
		return 0, 0, err
	}
	b := tmp[0]
	if b < 128 {
		return uint(b), 1, nil
	}
	if b == 128 {
		return 0, 0, base.InvalidDataf("unsupported infinite length")
	}
	c := int(b & 0x7f)
	if c > 4 {
		return 0, 0, base.InvalidDataf("too much bytes for length")
	}
	_, err = io.ReadFull(src, tmp[:c])
	if err != nil {
		return 0, 0, err
	}
	r := uint(0)
	for i := 0; i < c; i++ {
		r = (r << 8) | uint(tmp[i])
	}
	return r, c + 1, nil
}

// PutLength appends an A-XDR length field.
func PutLength(dst *bytes.Buffer, l uint) {
	encodelengthto(dst, l)
}

// Length parses an A-XDR length field from the start of src.
func Length(src []byte) (uint, int, error) {
	var tmp tmpbuffer
	return decodelength(bytes.NewReader(src), &tmp)
}

// PutUint8 appends v as a fixed single byte.
func PutUint8(dst *bytes.Buffer, v uint8) {
	dst.WriteByte(v)
}

// PutUint16 appends v big-endian without padding.
func PutUint16(dst *bytes.Buffer, v uint16) {
	dst.WriteByte(byte(v >> 8))
	dst.WriteByte(byte(v))
}

// PutUint32 appends v big-endian without padding.
func PutUint32(dst *bytes.Buffer, v uint32) {
	dst.WriteByte(byte(v >> 24))
	dst.WriteByte(byte(v >> 16))
	dst.WriteByte(byte(v >> 8))
	dst.WriteByte(byte(v))
}

// PutUint64 appends v big-endian without padding.
func PutUint64(dst *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	dst.Write(tmp[:])
}

// Uint8 parses a single byte from the start of src.
func Uint8(src []byte) (uint8, int, error) {
	if len(src) < 1 {
		return 0, 0, base.InvalidDataf("too short data for unsigned")
	}
	return src[0], 1, nil
}

// Uint16 parses a big-endian doubled byte from the start of src.
func Uint16(src []byte) (uint16, int, error) {
	if len(src) < 2 {
		return 0, 0, base.InvalidDataf("too short data for long unsigned")
	}
	return binary.BigEndian.Uint16(src), 2, nil
}

// Uint32 parses four big-endian bytes from the start of src.
func Uint32(src []byte) (uint32, int, error) {
	if len(src) < 4 {
		return 0, 0, base.InvalidDataf("too short data for double long unsigned")
	}
	return binary.BigEndian.Uint32(src), 4, nil
}

// Uint64 parses eight big-endian bytes from the start of src.
func Uint64(src []byte) (uint64, int, error) {
	if len(src) < 8 {
		return 0, 0, base.InvalidDataf("too short data for long64 unsigned")
	}
	return binary.BigEndian.Uint64(src), 8, nil
}

// PutOctetString appends the A-XDR length field followed by the bytes.
func PutOctetString(dst *bytes.Buffer, p []byte) {
	encodelengthto(dst, uint(len(p)))
	dst.Write(p)
}

// OctetString parses a length-prefixed octet string from the start of src.
func OctetString(src []byte) ([]byte, int, error) {
	l, c, err := Length(src)
	if err != nil {
		return nil, 0, err
	}
	if uint(len(src)-c) < l {
		return nil, 0, base.InvalidDataf("too short data for octet string")
	}
	out := make([]byte, l)
	copy(out, src[c:])
	return out, c + int(l), nil
}
