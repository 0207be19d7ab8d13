package dlmsal

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/metergrid/libcosem-go/base"
)

// conformance is encoded as the tagged 24-bit block 5F 1F 04 00 xx xx xx.
var conformanceHeader = []byte{0x5f, 0x1f, 0x04}

// InitiateRequest is the xDLMS proposal carried as AARQ user information.
type InitiateRequest struct {
	DedicatedKey             []byte
	ResponseAllowed          bool
	ProposedQualityOfService *byte
	ProposedDlmsVersion      byte
	ProposedConformance      base.Conformance
	ClientMaxReceivePduSize  uint16
}

// NewInitiateRequest builds the proposal the given settings describe.
func NewInitiateRequest(s *Settings) *InitiateRequest {
	return &InitiateRequest{
		ResponseAllowed:         true,
		ProposedDlmsVersion:     base.DlmsVersion,
		ProposedConformance:     s.ConformanceBlock,
		ClientMaxReceivePduSize: s.MaxPduRecvSize,
	}
}

// Encode yields the tagged wire form.
func (r *InitiateRequest) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(16 + len(r.DedicatedKey))
	buf.WriteByte(byte(base.TagInitiateRequest))
	if r.DedicatedKey != nil {
		buf.WriteByte(0x01)
		buf.WriteByte(byte(len(r.DedicatedKey)))
		buf.Write(r.DedicatedKey)
	} else {
		buf.WriteByte(0x00)
	}
	if r.ResponseAllowed {
		buf.WriteByte(0x00) // absent, defaults to true
	} else {
		buf.WriteByte(0x01)
		buf.WriteByte(0x00)
	}
	if r.ProposedQualityOfService != nil {
		buf.WriteByte(0x01)
		buf.WriteByte(*r.ProposedQualityOfService)
	} else {
		buf.WriteByte(0x00)
	}
	buf.WriteByte(r.ProposedDlmsVersion)
	buf.Write(conformanceHeader)
	var conf [4]byte
	binary.BigEndian.PutUint32(conf[:], uint32(r.ProposedConformance))
	buf.Write(conf[:])
	buf.WriteByte(byte(r.ClientMaxReceivePduSize >> 8))
	buf.WriteByte(byte(r.ClientMaxReceivePduSize))
	return buf.Bytes()
}

// DecodeInitiateRequest parses the tagged wire form.
func DecodeInitiateRequest(src []byte) (*InitiateRequest, error) {
	if len(src) < 1 || src[0] != byte(base.TagInitiateRequest) {
		return nil, base.InvalidDataf("not an initiate request")
	}
	src = src[1:]
	r := &InitiateRequest{ResponseAllowed: true}
	var err error
	if src, err = decodeOptionalKey(src, r); err != nil {
		return nil, err
	}
	if len(src) < 1 {
		return nil, base.InvalidDataf("truncated initiate request")
	}
	if src[0] == 0x01 {
		if len(src) < 2 {
			return nil, base.InvalidDataf("truncated initiate request")
		}
		r.ResponseAllowed = src[1] != 0
		src = src[2:]
	} else {
		src = src[1:]
	}
	if len(src) < 1 {
		return nil, base.InvalidDataf("truncated initiate request")
	}
	if src[0] == 0x01 {
		if len(src) < 2 {
			return nil, base.InvalidDataf("truncated initiate request")
		}
		qos := src[1]
		r.ProposedQualityOfService = &qos
		src = src[2:]
	} else {
		src = src[1:]
	}
	if len(src) < 10 {
		return nil, base.InvalidDataf("invalid initiate request length")
	}
	r.ProposedDlmsVersion = src[0]
	conf, err := decodeConformance(src[1:8])
	if err != nil {
		return nil, err
	}
	r.ProposedConformance = conf
	r.ClientMaxReceivePduSize = binary.BigEndian.Uint16(src[8:10])
	return r, nil
}

func decodeOptionalKey(src []byte, r *InitiateRequest) ([]byte, error) {
	if len(src) < 1 {
		return nil, base.InvalidDataf("truncated initiate request")
	}
	if src[0] != 0x01 {
		return src[1:], nil
	}
	if len(src) < 2 || len(src) < 2+int(src[1]) {
		return nil, base.InvalidDataf("truncated dedicated key")
	}
	l := int(src[1])
	r.DedicatedKey = make([]byte, l)
	copy(r.DedicatedKey, src[2:])
	return src[2+l:], nil
}

// InitiateResponse is the xDLMS answer carried as AARE user information.
type InitiateResponse struct {
	NegotiatedQualityOfService *byte
	NegotiatedDlmsVersion      byte
	NegotiatedConformance      base.Conformance
	ServerMaxReceivePduSize    uint16
	VAAName                    int16
}

// Encode yields the tagged wire form.
func (r *InitiateResponse) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(14)
	buf.WriteByte(byte(base.TagInitiateResponse))
	if r.NegotiatedQualityOfService != nil {
		buf.WriteByte(0x01)
		buf.WriteByte(*r.NegotiatedQualityOfService)
	} else {
		buf.WriteByte(0x00)
	}
	buf.WriteByte(r.NegotiatedDlmsVersion)
	buf.Write(conformanceHeader)
	var conf [4]byte
	binary.BigEndian.PutUint32(conf[:], uint32(r.NegotiatedConformance))
	buf.Write(conf[:])
	buf.WriteByte(byte(r.ServerMaxReceivePduSize >> 8))
	buf.WriteByte(byte(r.ServerMaxReceivePduSize))
	buf.WriteByte(byte(uint16(r.VAAName) >> 8))
	buf.WriteByte(byte(uint16(r.VAAName)))
	return buf.Bytes()
}

// DecodeInitiateResponse parses the tagged wire form. The negotiated dlms
// version must be the one this stack speaks.
func DecodeInitiateResponse(src []byte) (*InitiateResponse, error) {
	if len(src) < 1 || src[0] != byte(base.TagInitiateResponse) {
		return nil, base.InvalidDataf("not an initiate response")
	}
	src = src[1:]
	if len(src) < 13 {
		return nil, base.InvalidDataf("invalid initiate response length")
	}
	r := &InitiateResponse{}
	if src[0] == 0x01 {
		qos := src[1]
		r.NegotiatedQualityOfService = &qos
		src = src[2:]
	} else {
		src = src[1:]
	}
	if len(src) < 12 {
		return nil, base.InvalidDataf("invalid initiate response length")
	}
	if src[0] != base.DlmsVersion {
		return nil, base.InvalidDataf("wrong dlms version %d", src[0])
	}
	conf, err := decodeConformance(src[1:8])
	if err != nil {
		return nil, err
	}
	r.NegotiatedDlmsVersion = src[0]
	r.NegotiatedConformance = conf
	r.ServerMaxReceivePduSize = binary.BigEndian.Uint16(src[8:10])
	r.VAAName = int16(binary.BigEndian.Uint16(src[10:12]))
	return r, nil
}

func decodeConformance(src []byte) (base.Conformance, error) {
	if !bytes.Equal(src[:3], conformanceHeader) || src[3] != 0x00 {
		return 0, base.InvalidDataf("invalid conformance block encoding")
	}
	return base.Conformance(binary.BigEndian.Uint32(src[3:7])), nil
}

// ConfirmedServiceError is the xDLMS error a server may return instead of an
// InitiateResponse.
type ConfirmedServiceError struct {
	Service    byte
	ErrorClass byte
	ErrorValue byte
}

func (e *ConfirmedServiceError) Error() string {
	return fmt.Sprintf("confirmed service error: service %d class %d value %d", e.Service, e.ErrorClass, e.ErrorValue)
}

// Encode yields the tagged wire form.
func (e *ConfirmedServiceError) Encode() []byte {
	return []byte{byte(base.TagConfirmedServiceError), e.Service, e.ErrorClass, e.ErrorValue}
}

// DecodeUserInformation interprets an association information blob as either
// an InitiateResponse or a ConfirmedServiceError.
func DecodeUserInformation(src []byte) (*InitiateResponse, *ConfirmedServiceError, error) {
	if len(src) < 1 {
		return nil, nil, base.InvalidDataf("empty user information")
	}
	switch src[0] {
	case byte(base.TagInitiateResponse):
		ir, err := DecodeInitiateResponse(src)
		return ir, nil, err
	case byte(base.TagConfirmedServiceError):
		if len(src) < 4 {
			return nil, nil, base.InvalidDataf("invalid service error length")
		}
		return nil, &ConfirmedServiceError{Service: src[1], ErrorClass: src[2], ErrorValue: src[3]}, nil
	default:
		return nil, nil, base.InvalidDataf("unexpected user information tag %02x", src[0])
	}
}
