// Package acse implements the four association control PDUs of the COSEM
// application layer: AARQ, AARE, RLRQ and RLRE. Each PDU is an
// [APPLICATION n] IMPLICIT SEQUENCE of context-tagged fields; present fields
// are encoded in descending tag-number order and decoded in whatever order
// the sender used, skipping unknown tag numbers for forward compatibility.
package acse

import (
	"github.com/metergrid/libcosem-go/base"
	"github.com/metergrid/libcosem-go/ber"
)

// Application-class tag numbers of the association PDUs.
const (
	TagAARQ uint32 = 0
	TagAARE uint32 = 1
	TagRLRQ uint32 = 2
	TagRLRE uint32 = 3
)

// Context-specific field tag numbers shared by AARQ and AARE.
const (
	tagProtocolVersion            = 0
	tagApplicationContextName     = 1
	tagCalledAPTitle              = 2
	tagCalledAEQualifier          = 3
	tagCalledAPInvocationID       = 4
	tagCalledAEInvocationID       = 5
	tagCallingAPTitle             = 6
	tagCallingAEQualifier         = 7
	tagCallingAPInvocationID      = 8
	tagCallingAEInvocationID      = 9
	tagSenderAcseRequirements     = 10
	tagMechanismName              = 11
	tagCallingAuthenticationValue = 12
	tagApplicationContextNameList = 13
	tagImplementationInformation  = 29
	tagUserInformation            = 30
)

// AARE reuses the low numbers for its responder fields.
const (
	tagResult                        = 2
	tagResultSourceDiagnostic        = 3
	tagRespondingAPTitle             = 4
	tagRespondingAEQualifier         = 5
	tagRespondingAPInvocationID      = 6
	tagRespondingAEInvocationID      = 7
	tagResponderAcseRequirements     = 8
	tagResponderMechanismName        = 9
	tagRespondingAuthenticationValue = 10
)

// RLRQ and RLRE carry only a reason and user information.
const (
	tagReleaseReason = 0
)

// DefaultApplicationContextLN is the logical-name referencing application
// context used when the caller does not supply one.
var DefaultApplicationContextLN = ber.ObjectIdentifier{1, 0, 17, 0, 0, 8, 0, 101}

// applicationContextNameBase holds the DLMS UA application context OID arcs
// up to the context id, which ApplicationContextName appends.
var applicationContextNameBase = ber.ObjectIdentifier{2, 16, 756, 5, 8, 1}

// ApplicationContextName builds the full application context name OID for
// the given context variant.
func ApplicationContextName(ctx base.ApplicationContext) ber.ObjectIdentifier {
	oid := make(ber.ObjectIdentifier, 0, len(applicationContextNameBase)+1)
	oid = append(oid, applicationContextNameBase...)
	return append(oid, uint32(ctx))
}

// MechanismNameBase holds the authentication mechanism OID arcs up to the
// mechanism id, which MechanismName appends.
var mechanismNameBase = ber.ObjectIdentifier{2, 16, 756, 5, 8, 2}

// MechanismName builds the full authentication mechanism name OID for the
// given mechanism id.
func MechanismName(mechanism base.Authentication) ber.ObjectIdentifier {
	oid := make(ber.ObjectIdentifier, 0, len(mechanismNameBase)+1)
	oid = append(oid, mechanismNameBase...)
	return append(oid, uint32(mechanism))
}

// AuthenticationValue is a calling or responding authentication value. Only
// the charstring choice is carried, the form low-level security uses for the
// password.
type AuthenticationValue []byte

const authenticationValueCharstring = 0

// SourceDiagnostic is the AARE result-source-diagnostic: which side produced
// the diagnostic and its value.
type SourceDiagnostic struct {
	Source DiagnosticSource
	Value  base.SourceDiagnostic
}

type DiagnosticSource byte

const (
	DiagnosticSourceServiceUser     DiagnosticSource = 1
	DiagnosticSourceServiceProvider DiagnosticSource = 2
)

// prependWrapped frames content under inner and that under a constructed
// context tag, the layout every EXPLICIT ACSE field uses.
func prependWrapped(b *ber.Builder, number uint32, inner ber.Tag, content []byte) {
	wrapped := ber.EncodeTLV(inner, content)
	b.PrependTLV(ber.ContextTag(number, true), wrapped)
}

// unwrap peels the single expected inner TLV out of a constructed field.
func unwrap(content []byte, want ber.Tag, field string) ([]byte, error) {
	tag, value, n, err := ber.DecodeTLV(content)
	if err != nil {
		return nil, err
	}
	if tag != want || n != len(content) {
		return nil, base.InvalidDataf("unexpected %s field content", field)
	}
	return value, nil
}

func unwrapInteger(content []byte, field string) (int64, error) {
	inner, err := unwrap(content, ber.UniversalTag(ber.TagInteger, false), field)
	if err != nil {
		return 0, err
	}
	return ber.DecodeInteger(inner)
}

func unwrapOctetString(content []byte, field string) ([]byte, error) {
	inner, err := unwrap(content, ber.UniversalTag(ber.TagOctetString, false), field)
	if err != nil {
		return nil, err
	}
	return newcopy(inner), nil
}

func unwrapOID(content []byte, field string) (ber.ObjectIdentifier, error) {
	inner, err := unwrap(content, ber.UniversalTag(ber.TagObjectIdentifier, false), field)
	if err != nil {
		return nil, err
	}
	return ber.DecodeObjectIdentifier(inner)
}

func unwrapAuthenticationValue(content []byte, field string) (AuthenticationValue, error) {
	tag, value, n, err := ber.DecodeTLV(content)
	if err != nil {
		return nil, err
	}
	if tag.Class != ber.ClassContextSpecific || n != len(content) {
		return nil, base.InvalidDataf("unexpected %s field content", field)
	}
	if tag.Number != authenticationValueCharstring {
		return nil, base.InvalidDataf("unsupported %s choice %d", field, tag.Number)
	}
	return AuthenticationValue(newcopy(value)), nil
}

func prependAuthenticationValue(b *ber.Builder, number uint32, v AuthenticationValue) {
	wrapped := ber.EncodeTLV(ber.ContextTag(authenticationValueCharstring, false), v)
	b.PrependTLV(ber.ContextTag(number, true), wrapped)
}

func decodeBitStringField(content []byte, field string) (*ber.BitString, error) {
	bs, err := ber.DecodeBitString(content)
	if err != nil {
		return nil, base.InvalidDataf("invalid %s field: %v", field, err)
	}
	return &bs, nil
}

// unwrapPDU validates the outer application tag and returns the field bytes.
func unwrapPDU(src []byte, number uint32, name string) ([]byte, int, error) {
	tag, content, n, err := ber.DecodeTLV(src)
	if err != nil {
		return nil, 0, err
	}
	if tag.Class != ber.ClassApplication || tag.Number != number || !tag.Constructed {
		return nil, 0, base.InvalidDataf("not an %s pdu, tag %s %d", name, tag.Class, tag.Number)
	}
	return content, n, nil
}

func newcopy(src []byte) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}
