package acse

import (
	"github.com/metergrid/libcosem-go/base"
	"github.com/metergrid/libcosem-go/ber"
)

// AARQ is the association request PDU. ApplicationContextName is the only
// required field; everything else is optional and identified by its context
// tag number on the wire.
type AARQ struct {
	ProtocolVersion            *ber.BitString
	ApplicationContextName     ber.ObjectIdentifier
	CalledAPTitle              []byte
	CalledAEQualifier          []byte
	CalledAPInvocationID       *int64
	CalledAEInvocationID       *int64
	CallingAPTitle             []byte
	CallingAEQualifier         []byte
	CallingAPInvocationID      *int64
	CallingAEInvocationID      *int64
	SenderAcseRequirements     *ber.BitString
	MechanismName              ber.ObjectIdentifier
	CallingAuthenticationValue AuthenticationValue
	// ApplicationContextNameList carries the raw encoded list, opaque here.
	ApplicationContextNameList []byte
	ImplementationInformation  []byte
	// UserInformation is the association information blob, conventionally an
	// encoded InitiateRequest. It is not interpreted at this layer.
	UserInformation []byte
}

// NewAARQ builds a request for the given application context.
func NewAARQ(applicationContext ber.ObjectIdentifier) *AARQ {
	return &AARQ{ApplicationContextName: applicationContext}
}

// Encode yields the wire form. Fields are laid down in descending tag-number
// order through the back-to-front builder, so the octets read in ascending
// order, and the whole sequence is framed by the AARQ application tag.
func (p *AARQ) Encode() ([]byte, error) {
	if len(p.ApplicationContextName) == 0 {
		return nil, base.InvalidDataf("aarq needs an application context name")
	}
	b := ber.NewBuilder(64)
	if p.UserInformation != nil {
		prependWrapped(b, tagUserInformation, ber.UniversalTag(ber.TagOctetString, false), p.UserInformation)
	}
	if p.ImplementationInformation != nil {
		b.PrependTLV(ber.ContextTag(tagImplementationInformation, false), p.ImplementationInformation)
	}
	if p.ApplicationContextNameList != nil {
		b.PrependTLV(ber.ContextTag(tagApplicationContextNameList, true), p.ApplicationContextNameList)
	}
	if p.CallingAuthenticationValue != nil {
		prependAuthenticationValue(b, tagCallingAuthenticationValue, p.CallingAuthenticationValue)
	}
	if p.MechanismName != nil {
		enc, err := p.MechanismName.Encode()
		if err != nil {
			return nil, err
		}
		b.PrependTLV(ber.ContextTag(tagMechanismName, false), enc)
	}
	if p.SenderAcseRequirements != nil {
		b.PrependTLV(ber.ContextTag(tagSenderAcseRequirements, false), p.SenderAcseRequirements.Encode())
	}
	if p.CallingAEInvocationID != nil {
		prependWrapped(b, tagCallingAEInvocationID, ber.UniversalTag(ber.TagInteger, false), ber.EncodeInteger(*p.CallingAEInvocationID))
	}
	if p.CallingAPInvocationID != nil {
		prependWrapped(b, tagCallingAPInvocationID, ber.UniversalTag(ber.TagInteger, false), ber.EncodeInteger(*p.CallingAPInvocationID))
	}
	if p.CallingAEQualifier != nil {
		prependWrapped(b, tagCallingAEQualifier, ber.UniversalTag(ber.TagOctetString, false), p.CallingAEQualifier)
	}
	if p.CallingAPTitle != nil {
		prependWrapped(b, tagCallingAPTitle, ber.UniversalTag(ber.TagOctetString, false), p.CallingAPTitle)
	}
	if p.CalledAEInvocationID != nil {
		prependWrapped(b, tagCalledAEInvocationID, ber.UniversalTag(ber.TagInteger, false), ber.EncodeInteger(*p.CalledAEInvocationID))
	}
	if p.CalledAPInvocationID != nil {
		prependWrapped(b, tagCalledAPInvocationID, ber.UniversalTag(ber.TagInteger, false), ber.EncodeInteger(*p.CalledAPInvocationID))
	}
	if p.CalledAEQualifier != nil {
		prependWrapped(b, tagCalledAEQualifier, ber.UniversalTag(ber.TagOctetString, false), p.CalledAEQualifier)
	}
	if p.CalledAPTitle != nil {
		prependWrapped(b, tagCalledAPTitle, ber.UniversalTag(ber.TagOctetString, false), p.CalledAPTitle)
	}
	enc, err := p.ApplicationContextName.Encode()
	if err != nil {
		return nil, err
	}
	prependWrapped(b, tagApplicationContextName, ber.UniversalTag(ber.TagObjectIdentifier, false), enc)
	if p.ProtocolVersion != nil {
		b.PrependTLV(ber.ContextTag(tagProtocolVersion, false), p.ProtocolVersion.Encode())
	}
	b.Wrap(ber.ApplicationTag(TagAARQ, true))
	return b.Bytes(), nil
}

// DecodeAARQ parses an AARQ from the start of src and returns the bytes
// consumed. Context tag numbers outside the known field set are skipped.
func DecodeAARQ(src []byte) (*AARQ, int, error) {
	content, n, err := unwrapPDU(src, TagAARQ, "aarq")
	if err != nil {
		return nil, 0, err
	}
	p := &AARQ{}
	for off := 0; off < len(content); {
		tag, value, c, err := ber.DecodeTLV(content[off:])
		if err != nil {
			return nil, 0, err
		}
		if tag.Class == ber.ClassContextSpecific {
			if err = p.decodeField(tag, value); err != nil {
				return nil, 0, err
			}
		}
		off += c
	}
	if len(p.ApplicationContextName) == 0 {
		return nil, 0, base.InvalidDataf("aarq misses application context name")
	}
	return p, n, nil
}

func (p *AARQ) decodeField(tag ber.Tag, value []byte) (err error) {
	switch tag.Number {
	case tagProtocolVersion:
		p.ProtocolVersion, err = decodeBitStringField(value, "protocol version")
	case tagApplicationContextName:
		p.ApplicationContextName, err = unwrapOID(value, "application context name")
	case tagCalledAPTitle:
		p.CalledAPTitle, err = unwrapOctetString(value, "called ap title")
	case tagCalledAEQualifier:
		p.CalledAEQualifier, err = unwrapOctetString(value, "called ae qualifier")
	case tagCalledAPInvocationID:
		p.CalledAPInvocationID, err = decodeInvocationID(value, "called ap invocation id")
	case tagCalledAEInvocationID:
		p.CalledAEInvocationID, err = decodeInvocationID(value, "called ae invocation id")
	case tagCallingAPTitle:
		p.CallingAPTitle, err = unwrapOctetString(value, "calling ap title")
	case tagCallingAEQualifier:
		p.CallingAEQualifier, err = unwrapOctetString(value, "calling ae qualifier")
	case tagCallingAPInvocationID:
		p.CallingAPInvocationID, err = decodeInvocationID(value, "calling ap invocation id")
	case tagCallingAEInvocationID:
		p.CallingAEInvocationID, err = decodeInvocationID(value, "calling ae invocation id")
	case tagSenderAcseRequirements:
		p.SenderAcseRequirements, err = decodeBitStringField(value, "sender acse requirements")
	case tagMechanismName:
		p.MechanismName, err = ber.DecodeObjectIdentifier(value)
	case tagCallingAuthenticationValue:
		p.CallingAuthenticationValue, err = unwrapAuthenticationValue(value, "calling authentication value")
	case tagApplicationContextNameList:
		p.ApplicationContextNameList = newcopy(value)
	case tagImplementationInformation:
		p.ImplementationInformation = newcopy(value)
	case tagUserInformation:
		p.UserInformation, err = unwrapOctetString(value, "user information")
	}
	return
}

func decodeInvocationID(value []byte, field string) (*int64, error) {
	v, err := unwrapInteger(value, field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
