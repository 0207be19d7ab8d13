// Package cosem implements the COSEM addressing layer: OBIS codes,
// logical-name and short-name attribute references and the selective-access
// descriptors that narrow an attribute read to entries, a time window or a
// value range.
package cosem

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/metergrid/libcosem-go/base"
)

// ObisCode is the six-group object identification system code A-B:C.D.E.F.
type ObisCode struct {
	A byte
	B byte
	C byte
	D byte
	E byte
	F byte
}

// ObisSize is the wire size of an OBIS code.
const ObisSize = 6

const (
	ObisHasA = 0x20
	ObisHasB = 0x10
	ObisHasC = 0x08
	ObisHasD = 0x04
	ObisHasE = 0x02
	ObisHasF = 0x01
)

func (o ObisCode) String() string {
	return fmt.Sprintf("%d-%d:%d.%d.%d.%d", o.A, o.B, o.C, o.D, o.E, o.F)
}

func (o ObisCode) Bytes() []byte {
	return []byte{o.A, o.B, o.C, o.D, o.E, o.F}
}

func (o ObisCode) EqualTo(o2 ObisCode) bool {
	return o == o2
}

// NewObisFromSlice reads the six wire bytes.
func NewObisFromSlice(src []byte) (ob ObisCode, err error) {
	if len(src) < ObisSize {
		err = base.InvalidDataf("too short data for obis code")
		return
	}
	return ObisCode{A: src[0], B: src[1], C: src[2], D: src[3], E: src[4], F: src[5]}, nil
}

var obisrg = regexp.MustCompile(`^((\d+)-(\d+):)?(\d+)\.(\d+)(\.(\d+)(\.(\d+))?)?$`)

func mustatoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		panic(err) // really shouldnt happen
	}
	return i
}

// NewObisFromString parses "a-b:c.d.e.f"; the a-b: and .e.f groups are
// optional, missing groups default to 0/0 and 255/255.
func NewObisFromString(src string) (ob ObisCode, err error) {
	ob, _, err = NewObisFromStringComp(src)
	return
}

// NewObisFromStringComp also reports which groups were present as an
// ObisHas* mask.
func NewObisFromStringComp(src string) (ob ObisCode, cmp int, err error) {
	if !obisrg.MatchString(src) {
		err = base.InvalidDataf("invalid obis format")
		return
	}
	cmp = ObisHasC | ObisHasD
	m := obisrg.FindStringSubmatch(src)
	a, b := 0, 0
	if len(m[1]) > 0 {
		a = mustatoi(m[2])
		b = mustatoi(m[3])
		cmp |= ObisHasA | ObisHasB
	}
	c := mustatoi(m[4])
	d := mustatoi(m[5])
	e, f := 255, 255
	if len(m[6]) > 0 {
		e = mustatoi(m[7])
		cmp |= ObisHasE
		if len(m[8]) > 0 {
			f = mustatoi(m[9])
			cmp |= ObisHasF
		}
	}
	if a > 255 || b > 255 || c > 255 || d > 255 || e > 255 || f > 255 {
		err = base.InvalidDataf("obis group value out of range")
		return
	}
	ob.A = byte(a)
	ob.B = byte(b)
	ob.C = byte(c)
	ob.D = byte(d)
	ob.E = byte(e)
	ob.F = byte(f)
	return
}
