package acse

import (
	"github.com/metergrid/libcosem-go/base"
	"github.com/metergrid/libcosem-go/ber"
)

// RLRQ is the release request PDU. Both fields are optional; an empty RLRQ
// is the common form and encodes to just the application tag with zero
// length.
type RLRQ struct {
	Reason *base.ReleaseRequestReason
	// UserInformation is opaque at this layer, a ciphered InitiateRequest
	// when the release is protected.
	UserInformation []byte
}

// Encode yields the wire form.
func (p *RLRQ) Encode() ([]byte, error) {
	b := ber.NewBuilder(16)
	if p.UserInformation != nil {
		prependWrapped(b, tagUserInformation, ber.UniversalTag(ber.TagOctetString, false), p.UserInformation)
	}
	if p.Reason != nil {
		b.PrependTLV(ber.ContextTag(tagReleaseReason, false), []byte{byte(*p.Reason)})
	}
	b.Wrap(ber.ApplicationTag(TagRLRQ, true))
	return b.Bytes(), nil
}

// DecodeRLRQ parses an RLRQ from the start of src and returns the bytes
// consumed.
func DecodeRLRQ(src []byte) (*RLRQ, int, error) {
	content, n, err := unwrapPDU(src, TagRLRQ, "rlrq")
	if err != nil {
		return nil, 0, err
	}
	p := &RLRQ{}
	for off := 0; off < len(content); {
		tag, value, c, err := ber.DecodeTLV(content[off:])
		if err != nil {
			return nil, 0, err
		}
		if tag.Class == ber.ClassContextSpecific {
			switch tag.Number {
			case tagReleaseReason:
				reason, err := decodeReleaseReason(value)
				if err != nil {
					return nil, 0, err
				}
				r := base.ReleaseRequestReason(reason)
				p.Reason = &r
			case tagUserInformation:
				p.UserInformation, err = unwrapOctetString(value, "user information")
				if err != nil {
					return nil, 0, err
				}
			}
		}
		off += c
	}
	return p, n, nil
}

// RLRE is the release response PDU, the mirror of RLRQ.
type RLRE struct {
	Reason          *base.ReleaseResponseReason
	UserInformation []byte
}

// Encode yields the wire form.
func (p *RLRE) Encode() ([]byte, error) {
	b := ber.NewBuilder(16)
	if p.UserInformation != nil {
		prependWrapped(b, tagUserInformation, ber.UniversalTag(ber.TagOctetString, false), p.UserInformation)
	}
	if p.Reason != nil {
		b.PrependTLV(ber.ContextTag(tagReleaseReason, false), []byte{byte(*p.Reason)})
	}
	b.Wrap(ber.ApplicationTag(TagRLRE, true))
	return b.Bytes(), nil
}

// DecodeRLRE parses an RLRE from the start of src and returns the bytes
// consumed.
func DecodeRLRE(src []byte) (*RLRE, int, error) {
	content, n, err := unwrapPDU(src, TagRLRE, "rlre")
	if err != nil {
		return nil, 0, err
	}
	p := &RLRE{}
	for off := 0; off < len(content); {
		tag, value, c, err := ber.DecodeTLV(content[off:])
		if err != nil {
			return nil, 0, err
		}
		if tag.Class == ber.ClassContextSpecific {
			switch tag.Number {
			case tagReleaseReason:
				reason, err := decodeReleaseReason(value)
				if err != nil {
					return nil, 0, err
				}
				r := base.ReleaseResponseReason(reason)
				p.Reason = &r
			case tagUserInformation:
				p.UserInformation, err = unwrapOctetString(value, "user information")
				if err != nil {
					return nil, 0, err
				}
			}
		}
		off += c
	}
	return p, n, nil
}

func decodeReleaseReason(value []byte) (byte, error) {
	if len(value) != 1 {
		return 0, base.InvalidDataf("invalid release reason length %d", len(value))
	}
	return value[0], nil
}
