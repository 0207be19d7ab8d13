package acse

import (
	"go.uber.org/multierr"

	"github.com/metergrid/libcosem-go/base"
	"github.com/metergrid/libcosem-go/ber"
)

// AARE is the association response PDU. ApplicationContextName, Result and
// ResultSourceDiagnostic are required; the rest is optional.
type AARE struct {
	ProtocolVersion               *ber.BitString
	ApplicationContextName        ber.ObjectIdentifier
	Result                        base.AssociationResult
	ResultSourceDiagnostic        SourceDiagnostic
	RespondingAPTitle             []byte
	RespondingAEQualifier         []byte
	RespondingAPInvocationID      *int64
	RespondingAEInvocationID      *int64
	ResponderAcseRequirements     *ber.BitString
	MechanismName                 ber.ObjectIdentifier
	RespondingAuthenticationValue AuthenticationValue
	ImplementationInformation     []byte
	// UserInformation is the association information blob, conventionally an
	// encoded InitiateResponse or confirmed service error.
	UserInformation []byte
}

// Encode yields the wire form, fields laid down in descending tag-number
// order and framed by the AARE application tag.
func (p *AARE) Encode() ([]byte, error) {
	if len(p.ApplicationContextName) == 0 {
		return nil, base.InvalidDataf("aare needs an application context name")
	}
	b := ber.NewBuilder(64)
	if p.UserInformation != nil {
		prependWrapped(b, tagUserInformation, ber.UniversalTag(ber.TagOctetString, false), p.UserInformation)
	}
	if p.ImplementationInformation != nil {
		b.PrependTLV(ber.ContextTag(tagImplementationInformation, false), p.ImplementationInformation)
	}
	if p.RespondingAuthenticationValue != nil {
		prependAuthenticationValue(b, tagRespondingAuthenticationValue, p.RespondingAuthenticationValue)
	}
	if p.MechanismName != nil {
		enc, err := p.MechanismName.Encode()
		if err != nil {
			return nil, err
		}
		b.PrependTLV(ber.ContextTag(tagResponderMechanismName, false), enc)
	}
	if p.ResponderAcseRequirements != nil {
		b.PrependTLV(ber.ContextTag(tagResponderAcseRequirements, false), p.ResponderAcseRequirements.Encode())
	}
	if p.RespondingAEInvocationID != nil {
		prependWrapped(b, tagRespondingAEInvocationID, ber.UniversalTag(ber.TagInteger, false), ber.EncodeInteger(*p.RespondingAEInvocationID))
	}
	if p.RespondingAPInvocationID != nil {
		prependWrapped(b, tagRespondingAPInvocationID, ber.UniversalTag(ber.TagInteger, false), ber.EncodeInteger(*p.RespondingAPInvocationID))
	}
	if p.RespondingAEQualifier != nil {
		prependWrapped(b, tagRespondingAEQualifier, ber.UniversalTag(ber.TagOctetString, false), p.RespondingAEQualifier)
	}
	if p.RespondingAPTitle != nil {
		prependWrapped(b, tagRespondingAPTitle, ber.UniversalTag(ber.TagOctetString, false), p.RespondingAPTitle)
	}
	p.prependDiagnostic(b)
	prependWrapped(b, tagResult, ber.UniversalTag(ber.TagInteger, false), ber.EncodeInteger(int64(p.Result)))
	enc, err := p.ApplicationContextName.Encode()
	if err != nil {
		return nil, err
	}
	prependWrapped(b, tagApplicationContextName, ber.UniversalTag(ber.TagObjectIdentifier, false), enc)
	if p.ProtocolVersion != nil {
		b.PrependTLV(ber.ContextTag(tagProtocolVersion, false), p.ProtocolVersion.Encode())
	}
	b.Wrap(ber.ApplicationTag(TagAARE, true))
	return b.Bytes(), nil
}

// prependDiagnostic writes the acse-service-user or acse-service-provider
// choice wrapping the diagnostic integer.
func (p *AARE) prependDiagnostic(b *ber.Builder) {
	source := p.ResultSourceDiagnostic.Source
	if source != DiagnosticSourceServiceProvider {
		source = DiagnosticSourceServiceUser
	}
	choice := ber.EncodeTLV(ber.ContextTag(uint32(source), true),
		ber.EncodeTLV(ber.UniversalTag(ber.TagInteger, false), ber.EncodeInteger(int64(p.ResultSourceDiagnostic.Value))))
	b.PrependTLV(ber.ContextTag(tagResultSourceDiagnostic, true), choice)
}

// DecodeAARE parses an AARE from the start of src and returns the bytes
// consumed. Unknown context tag numbers are skipped; a missing required
// field fails after the whole PDU has been walked.
func DecodeAARE(src []byte) (*AARE, int, error) {
	content, n, err := unwrapPDU(src, TagAARE, "aare")
	if err != nil {
		return nil, 0, err
	}
	p := &AARE{}
	var haveContext, haveResult, haveDiagnostic bool
	for off := 0; off < len(content); {
		tag, value, c, err := ber.DecodeTLV(content[off:])
		if err != nil {
			return nil, 0, err
		}
		if tag.Class == ber.ClassContextSpecific {
			switch tag.Number {
			case tagApplicationContextName:
				haveContext = true
			case tagResult:
				haveResult = true
			case tagResultSourceDiagnostic:
				haveDiagnostic = true
			}
			if err = p.decodeField(tag, value); err != nil {
				return nil, 0, err
			}
		}
		off += c
	}
	var missing error
	if !haveContext {
		missing = multierr.Append(missing, base.InvalidDataf("aare misses application context name"))
	}
	if !haveResult {
		missing = multierr.Append(missing, base.InvalidDataf("aare misses result"))
	}
	if !haveDiagnostic {
		missing = multierr.Append(missing, base.InvalidDataf("aare misses result source diagnostic"))
	}
	if missing != nil {
		return nil, 0, missing
	}
	return p, n, nil
}

func (p *AARE) decodeField(tag ber.Tag, value []byte) (err error) {
	switch tag.Number {
	case tagProtocolVersion:
		p.ProtocolVersion, err = decodeBitStringField(value, "protocol version")
	case tagApplicationContextName:
		p.ApplicationContextName, err = unwrapOID(value, "application context name")
	case tagResult:
		var v int64
		v, err = unwrapInteger(value, "result")
		p.Result = base.AssociationResult(v)
	case tagResultSourceDiagnostic:
		p.ResultSourceDiagnostic, err = decodeDiagnostic(value)
	case tagRespondingAPTitle:
		p.RespondingAPTitle, err = unwrapOctetString(value, "responding ap title")
	case tagRespondingAEQualifier:
		p.RespondingAEQualifier, err = unwrapOctetString(value, "responding ae qualifier")
	case tagRespondingAPInvocationID:
		p.RespondingAPInvocationID, err = decodeInvocationID(value, "responding ap invocation id")
	case tagRespondingAEInvocationID:
		p.RespondingAEInvocationID, err = decodeInvocationID(value, "responding ae invocation id")
	case tagResponderAcseRequirements:
		p.ResponderAcseRequirements, err = decodeBitStringField(value, "responder acse requirements")
	case tagResponderMechanismName:
		p.MechanismName, err = ber.DecodeObjectIdentifier(value)
	case tagRespondingAuthenticationValue:
		p.RespondingAuthenticationValue, err = unwrapAuthenticationValue(value, "responding authentication value")
	case tagImplementationInformation:
		p.ImplementationInformation = newcopy(value)
	case tagUserInformation:
		p.UserInformation, err = unwrapOctetString(value, "user information")
	}
	return
}

func decodeDiagnostic(content []byte) (SourceDiagnostic, error) {
	tag, value, n, err := ber.DecodeTLV(content)
	if err != nil {
		return SourceDiagnostic{}, err
	}
	if tag.Class != ber.ClassContextSpecific || !tag.Constructed || n != len(content) {
		return SourceDiagnostic{}, base.InvalidDataf("unexpected result source diagnostic content")
	}
	source := DiagnosticSource(tag.Number)
	if source != DiagnosticSourceServiceUser && source != DiagnosticSourceServiceProvider {
		return SourceDiagnostic{}, base.InvalidDataf("unknown result source diagnostic choice %d", tag.Number)
	}
	v, err := unwrapInteger(value, "result source diagnostic")
	if err != nil {
		return SourceDiagnostic{}, err
	}
	return SourceDiagnostic{Source: source, Value: base.SourceDiagnostic(v)}, nil
}
