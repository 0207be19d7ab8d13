package dlmsal

import (
	"bytes"

	"github.com/metergrid/libcosem-go/axdr"
	"github.com/metergrid/libcosem-go/base"
)

// Compact short-name service PDU tags.
const (
	snTagReadRequest   byte = 0x01
	snTagWriteRequest  byte = 0x02
	snTagReadResponse  byte = 0x03
	snTagWriteResponse byte = 0x04
)

// SnPdu is one of the compact short-name service PDUs: ReadRequest,
// WriteRequest, ReadResponse or WriteResponse.
type SnPdu interface {
	Encode() ([]byte, error)
	snPdu()
}

// ReadRequest asks for the attribute at a short-name address.
type ReadRequest struct {
	InvokeID  byte
	ShortName uint16
}

func (p ReadRequest) snPdu() {}

// Encode yields exactly four bytes: tag, invoke id and the big-endian name.
func (p ReadRequest) Encode() ([]byte, error) {
	return []byte{snTagReadRequest, p.InvokeID, byte(p.ShortName >> 8), byte(p.ShortName)}, nil
}

// WriteRequest writes a data value to a short-name address.
type WriteRequest struct {
	InvokeID  byte
	ShortName uint16
	Data      axdr.Data
}

func (p WriteRequest) snPdu() {}

func (p WriteRequest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(snTagWriteRequest)
	buf.WriteByte(p.InvokeID)
	axdr.PutUint16(&buf, p.ShortName)
	if err := axdr.EncodeTo(&buf, &p.Data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadResponse answers a ReadRequest with either a data value or an access
// result.
type ReadResponse struct {
	InvokeID byte
	Result   base.AccessResult
	Data     *axdr.Data
}

func (p ReadResponse) snPdu() {}

func (p ReadResponse) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(snTagReadResponse)
	buf.WriteByte(p.InvokeID)
	if p.Data != nil {
		buf.WriteByte(0x00)
		if err := axdr.EncodeTo(&buf, p.Data); err != nil {
			return nil, err
		}
	} else {
		buf.WriteByte(0x01)
		buf.WriteByte(byte(p.Result))
	}
	return buf.Bytes(), nil
}

// WriteResponse answers a WriteRequest with an access result.
type WriteResponse struct {
	InvokeID byte
	Result   base.AccessResult
}

func (p WriteResponse) snPdu() {}

func (p WriteResponse) Encode() ([]byte, error) {
	return []byte{snTagWriteResponse, p.InvokeID, byte(p.Result)}, nil
}

// DecodeSnPdu dispatches on the leading tag and parses the matching PDU
// from the start of src, returning the bytes consumed.
func DecodeSnPdu(src []byte) (SnPdu, int, error) {
	if len(src) < 2 {
		return nil, 0, base.InvalidDataf("too short data for sn pdu")
	}
	switch src[0] {
	case snTagReadRequest:
		if len(src) < 4 {
			return nil, 0, base.InvalidDataf("too short data for read request")
		}
		name, _, err := axdr.Uint16(src[2:])
		if err != nil {
			return nil, 0, err
		}
		return ReadRequest{InvokeID: src[1], ShortName: name}, 4, nil
	case snTagWriteRequest:
		if len(src) < 5 {
			return nil, 0, base.InvalidDataf("too short data for write request")
		}
		name, _, err := axdr.Uint16(src[2:])
		if err != nil {
			return nil, 0, err
		}
		data, n, err := axdr.DecodeSlice(src[4:])
		if err != nil {
			return nil, 0, err
		}
		return WriteRequest{InvokeID: src[1], ShortName: name, Data: data}, 4 + n, nil
	case snTagReadResponse:
		if len(src) < 4 {
			return nil, 0, base.InvalidDataf("too short data for read response")
		}
		switch src[2] {
		case 0x00:
			data, n, err := axdr.DecodeSlice(src[3:])
			if err != nil {
				return nil, 0, err
			}
			return ReadResponse{InvokeID: src[1], Data: &data}, 3 + n, nil
		case 0x01:
			return ReadResponse{InvokeID: src[1], Result: base.AccessResult(src[3])}, 4, nil
		default:
			return nil, 0, base.InvalidDataf("unexpected read response choice %02x", src[2])
		}
	case snTagWriteResponse:
		if len(src) < 3 {
			return nil, 0, base.InvalidDataf("too short data for write response")
		}
		return WriteResponse{InvokeID: src[1], Result: base.AccessResult(src[2])}, 3, nil
	default:
		return nil, 0, base.InvalidDataf("unknown sn pdu tag %02x", src[0])
	}
}
