package ber

import (
	"strconv"
	"strings"

	"github.com/metergrid/libcosem-go/base"
)

// ObjectIdentifier holds OID arcs, e.g. {1 0 17 0 0 8 0 101} for the default
// logical-name application context.
type ObjectIdentifier []uint32

func (oid ObjectIdentifier) String() string {
	var sb strings.Builder
	for i, arc := range oid {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.FormatUint(uint64(arc), 10))
	}
	return sb.String()
}

func (oid ObjectIdentifier) Equal(other ObjectIdentifier) bool {
	if len(oid) != len(other) {
		return false
	}
	for i := range oid {
		if oid[i] != other[i] {
			return false
		}
	}
	return true
}

// Encode yields the X.690 content octets: the first two arcs packed into one
// subidentifier, the rest base-128 with continuation bits.
func (oid ObjectIdentifier) Encode() ([]byte, error) {
	if len(oid) < 2 {
		return nil, base.InvalidDataf("object identifier needs at least two arcs")
	}
	if oid[0] > 2 {
		return nil, base.InvalidDataf("first object identifier arc %d out of range", oid[0])
	}
	if oid[0] < 2 && oid[1] >= 40 {
		return nil, base.InvalidDataf("second object identifier arc %d out of range", oid[1])
	}
	out := make([]byte, 0, len(oid)+2)
	out = appendsubid(out, oid[0]*40+oid[1])
	for _, arc := range oid[2:] {
		out = appendsubid(out, arc)
	}
	return out, nil
}

func appendsubid(dst []byte, v uint32) []byte {
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	v >>= 7
	for v != 0 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
		v >>= 7
	}
	return append(dst, tmp[i:]...)
}

// DecodeObjectIdentifier parses X.690 content octets back into arcs.
func DecodeObjectIdentifier(content []byte) (ObjectIdentifier, error) {
	if len(content) == 0 {
		return nil, base.InvalidDataf("empty object identifier")
	}
	if content[len(content)-1]&0x80 != 0 {
		return nil, base.InvalidDataf("truncated object identifier subidentifier")
	}
	oid := make(ObjectIdentifier, 0, len(content)+1)
	v := uint32(0)
	first := true
	for i, b := range content {
		if v > 0x1ffffff {
			return nil, base.InvalidDataf("object identifier subidentifier at offset %d too large", i)
		}
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 != 0 {
			continue
		}
		if first {
			switch {
			case v < 40:
				oid = append(oid, 0, v)
			case v < 80:
				oid = append(oid, 1, v-40)
			default:
				oid = append(oid, 2, v-80)
			}
			first = false
		} else {
			oid = append(oid, v)
		}
		v = 0
	}
	return oid, nil
}
