package cosem

import (
	"bytes"
	"fmt"

	"github.com/metergrid/libcosem-go/axdr"
	"github.com/metergrid/libcosem-go/base"
)

// LogicalNameReference addresses one attribute or method of a COSEM object
// by interface class, OBIS instance and a non-zero attribute/method id.
type LogicalNameReference struct {
	ClassID    uint16
	InstanceID ObisCode
	ID         uint8
}

// LogicalNameReferenceSize is the flat wire size: unsigned16 class, six
// OBIS bytes, unsigned8 id.
const LogicalNameReferenceSize = 9

// NewLogicalNameReference fails when id is zero, zero is not a valid
// attribute or method index.
func NewLogicalNameReference(classID uint16, instanceID ObisCode, id uint8) (LogicalNameReference, error) {
	if id == 0 {
		return LogicalNameReference{}, base.InvalidDataf("logical name reference id must not be zero")
	}
	return LogicalNameReference{ClassID: classID, InstanceID: instanceID, ID: id}, nil
}

func (r LogicalNameReference) String() string {
	return fmt.Sprintf("%d/%s/%d", r.ClassID, r.InstanceID.String(), r.ID)
}

// Encode yields the flat 9-byte wire form.
func (r LogicalNameReference) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(LogicalNameReferenceSize)
	r.EncodeTo(&buf)
	return buf.Bytes()
}

func (r LogicalNameReference) EncodeTo(dst *bytes.Buffer) {
	axdr.PutUint16(dst, r.ClassID)
	dst.Write(r.InstanceID.Bytes())
	axdr.PutUint8(dst, r.ID)
}

// DecodeLogicalNameReference parses the flat wire form from the start of
// src and returns the bytes consumed.
func DecodeLogicalNameReference(src []byte) (LogicalNameReference, int, error) {
	if len(src) < LogicalNameReferenceSize {
		return LogicalNameReference{}, 0, base.InvalidDataf("too short data for logical name reference")
	}
	classID, n, err := axdr.Uint16(src)
	if err != nil {
		return LogicalNameReference{}, 0, err
	}
	obis, err := NewObisFromSlice(src[n:])
	if err != nil {
		return LogicalNameReference{}, 0, err
	}
	id := src[n+ObisSize]
	if id == 0 {
		return LogicalNameReference{}, 0, base.InvalidDataf("logical name reference id must not be zero")
	}
	return LogicalNameReference{ClassID: classID, InstanceID: obis, ID: id}, LogicalNameReferenceSize, nil
}

// ShortNameReference addresses an attribute relative to a short-name base
// address with a non-zero offset id.
type ShortNameReference struct {
	BaseName uint16
	ID       uint8
}

// ShortNameReferenceSize is the flat wire size: unsigned16 base name,
// unsigned8 id.
const ShortNameReferenceSize = 3

// NewShortNameReference fails when id is zero.
func NewShortNameReference(baseName uint16, id uint8) (ShortNameReference, error) {
	if id == 0 {
		return ShortNameReference{}, base.InvalidDataf("short name reference id must not be zero")
	}
	return ShortNameReference{BaseName: baseName, ID: id}, nil
}

func (r ShortNameReference) String() string {
	return fmt.Sprintf("0x%04x/%d", r.BaseName, r.ID)
}

// Encode yields the flat 3-byte wire form.
func (r ShortNameReference) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(ShortNameReferenceSize)
	r.EncodeTo(&buf)
	return buf.Bytes()
}

func (r ShortNameReference) EncodeTo(dst *bytes.Buffer) {
	axdr.PutUint16(dst, r.BaseName)
	axdr.PutUint8(dst, r.ID)
}

// DecodeShortNameReference parses the flat wire form from the start of src
// and returns the bytes consumed.
func DecodeShortNameReference(src []byte) (ShortNameReference, int, error) {
	if len(src) < ShortNameReferenceSize {
		return ShortNameReference{}, 0, base.InvalidDataf("too short data for short name reference")
	}
	baseName, n, err := axdr.Uint16(src)
	if err != nil {
		return ShortNameReference{}, 0, err
	}
	id := src[n]
	if id == 0 {
		return ShortNameReference{}, 0, base.InvalidDataf("short name reference id must not be zero")
	}
	return ShortNameReference{BaseName: baseName, ID: id}, ShortNameReferenceSize, nil
}
