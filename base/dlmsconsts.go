package base

import "strings"

const (
	DlmsVersion = 0x06

	VAANameLN = 0x0007
	VAANameSN = 0xFA00
)

type Authentication byte

const (
	AuthenticationNone       Authentication = 0 // No authentication is used.
	AuthenticationLow        Authentication = 1 // Low authentication is used.
	AuthenticationHigh       Authentication = 2 // High authentication is used.
	AuthenticationHighMD5    Authentication = 3 // High authentication is used. Password is hashed with MD5.
	AuthenticationHighSHA1   Authentication = 4 // High authentication is used. Password is hashed with SHA1.
	AuthenticationHighGmac   Authentication = 5 // High authentication is used. Password is hashed with GMAC.
	AuthenticationHighSha256 Authentication = 6 // High authentication is used. Password is hashed with SHA-256.
	AuthenticationHighEcdsa  Authentication = 7 // High authentication is used. Password is hashed with ECDSA.
)

type AssociationResult byte

const (
	AssociationResultAccepted          AssociationResult = 0
	AssociationResultPermanentRejected AssociationResult = 1
	AssociationResultTransientRejected AssociationResult = 2
)

func (r AssociationResult) String() string {
	switch r {
	case AssociationResultAccepted:
		return "accepted"
	case AssociationResultPermanentRejected:
		return "rejected-permanent"
	case AssociationResultTransientRejected:
		return "rejected-transient"
	default:
		return "unknown"
	}
}

type SourceDiagnostic byte

const (
	SourceDiagnosticNone                                       SourceDiagnostic = 0
	SourceDiagnosticNoReasonGiven                              SourceDiagnostic = 1
	SourceDiagnosticApplicationContextNameNotSupported         SourceDiagnostic = 2
	SourceDiagnosticCallingAPTitleNotRecognized                SourceDiagnostic = 3
	SourceDiagnosticCallingAPInvocationIdentifierNotRecognized SourceDiagnostic = 4
	SourceDiagnosticCallingAEQualifierNotRecognized            SourceDiagnostic = 5
	SourceDiagnosticCallingAEInvocationIdentifierNotRecognized SourceDiagnostic = 6
	SourceDiagnosticCalledAPTitleNotRecognized                 SourceDiagnostic = 7
	SourceDiagnosticCalledAPInvocationIdentifierNotRecognized  SourceDiagnostic = 8
	SourceDiagnosticCalledAEQualifierNotRecognized             SourceDiagnostic = 9
	SourceDiagnosticCalledAEInvocationIdentifierNotRecognized  SourceDiagnostic = 10
	SourceDiagnosticAuthenticationMechanismNameNotRecognized   SourceDiagnostic = 11
	SourceDiagnosticAuthenticationMechanismNameRequired        SourceDiagnostic = 12
	SourceDiagnosticAuthenticationFailure                      SourceDiagnostic = 13
	SourceDiagnosticAuthenticationRequired                     SourceDiagnostic = 14
)

type ApplicationContext byte

// Application context definitions
const (
	ApplicationContextLNNoCiphering ApplicationContext = 1
	ApplicationContextSNNoCiphering ApplicationContext = 2
	ApplicationContextLNCiphering   ApplicationContext = 3
	ApplicationContextSNCiphering   ApplicationContext = 4
)

// Conformance is the 24-bit negotiated conformance block.
type Conformance uint32

const (
	ConformanceBlockReservedZero         Conformance = 0b100000000000000000000000
	ConformanceBlockGeneralProtection    Conformance = 0b010000000000000000000000
	ConformanceBlockGeneralBlockTransfer Conformance = 0b001000000000000000000000
	ConformanceBlockRead                 Conformance = 0b000100000000000000000000

	ConformanceBlockWrite            Conformance = 0b000010000000000000000000
	ConformanceBlockUnconfirmedWrite Conformance = 0b000001000000000000000000
	ConformanceBlockReservedSix      Conformance = 0b000000100000000000000000
	ConformanceBlockReservedSeven    Conformance = 0b000000010000000000000000

	ConformanceBlockAttribute0SupportedWithSet Conformance = 0b000000001000000000000000
	ConformanceBlockPriorityMgmtSupported      Conformance = 0b000000000100000000000000
	ConformanceBlockAttribute0SupportedWithGet Conformance = 0b000000000010000000000000
	ConformanceBlockBlockTransferWithGetOrRead Conformance = 0b000000000001000000000000

	ConformanceBlockBlockTransferWithSetOrWrite Conformance = 0b000000000000100000000000
	ConformanceBlockBlockTransferWithAction     Conformance = 0b000000000000010000000000
	ConformanceBlockMultipleReferences          Conformance = 0b000000000000001000000000
	ConformanceBlockInformationReport           Conformance = 0b000000000000000100000000

	ConformanceBlockDataNotification   Conformance = 0b000000000000000010000000
	ConformanceBlockAccess             Conformance = 0b000000000000000001000000
	ConformanceBlockParametrizedAccess Conformance = 0b000000000000000000100000
	ConformanceBlockGet                Conformance = 0b000000000000000000010000

	ConformanceBlockSet               Conformance = 0b000000000000000000001000
	ConformanceBlockSelectiveAccess   Conformance = 0b000000000000000000000100
	ConformanceBlockEventNotification Conformance = 0b000000000000000000000010
	ConformanceBlockAction            Conformance = 0b000000000000000000000001
)

// Has reports whether every bit of c2 is set in c.
func (c Conformance) Has(c2 Conformance) bool {
	return c&c2 == c2
}

func (c Conformance) String() string {
	names := []struct {
		bit  Conformance
		name string
	}{
		{ConformanceBlockGeneralProtection, "general-protection"},
		{ConformanceBlockGeneralBlockTransfer, "general-block-transfer"},
		{ConformanceBlockRead, "read"},
		{ConformanceBlockWrite, "write"},
		{ConformanceBlockUnconfirmedWrite, "unconfirmed-write"},
		{ConformanceBlockAttribute0SupportedWithSet, "attribute0-set"},
		{ConformanceBlockPriorityMgmtSupported, "priority-mgmt"},
		{ConformanceBlockAttribute0SupportedWithGet, "attribute0-get"},
		{ConformanceBlockBlockTransferWithGetOrRead, "block-transfer-get-read"},
		{ConformanceBlockBlockTransferWithSetOrWrite, "block-transfer-set-write"},
		{ConformanceBlockBlockTransferWithAction, "block-transfer-action"},
		{ConformanceBlockMultipleReferences, "multiple-references"},
		{ConformanceBlockInformationReport, "information-report"},
		{ConformanceBlockDataNotification, "data-notification"},
		{ConformanceBlockAccess, "access"},
		{ConformanceBlockParametrizedAccess, "parametrized-access"},
		{ConformanceBlockGet, "get"},
		{ConformanceBlockSet, "set"},
		{ConformanceBlockSelectiveAccess, "selective-access"},
		{ConformanceBlockEventNotification, "event-notification"},
		{ConformanceBlockAction, "action"},
	}
	var sb strings.Builder
	for _, n := range names {
		if c.Has(n.bit) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(n.name)
		}
	}
	if sb.Len() == 0 {
		return "none"
	}
	return sb.String()
}

type CosemTag byte

const (
	TagInitiateRequest       CosemTag = 1
	TagInitiateResponse      CosemTag = 8
	TagConfirmedServiceError CosemTag = 14
	TagAARQ                  CosemTag = 96
	TagAARE                  CosemTag = 97
	TagRLRQ                  CosemTag = 98
	TagRLRE                  CosemTag = 99
)

// AccessResult is the DLMS data-access-result code.
type AccessResult byte

const (
	TagResultSuccess                 AccessResult = 0
	TagResultHardwareFault           AccessResult = 1
	TagResultTemporaryFailure        AccessResult = 2
	TagResultReadWriteDenied         AccessResult = 3
	TagResultObjectUndefined         AccessResult = 4
	TagResultObjectClassInconsistent AccessResult = 9
	TagResultObjectUnavailable       AccessResult = 11
	TagResultTypeUnmatched           AccessResult = 12
	TagResultScopeAccessViolated     AccessResult = 13
	TagResultDataBlockUnavailable    AccessResult = 14
	TagResultLongGetAborted          AccessResult = 15
	TagResultNoLongGetInProgress     AccessResult = 16
	TagResultLongSetAborted          AccessResult = 17
	TagResultNoLongSetInProgress     AccessResult = 18
	TagResultDataBlockNumberInvalid  AccessResult = 19
	TagResultOtherReason             AccessResult = 250
)

func (s AccessResult) String() string {
	switch s {
	case TagResultSuccess:
		return "success"
	case TagResultHardwareFault:
		return "hardware-fault"
	case TagResultTemporaryFailure:
		return "temporary-failure"
	case TagResultReadWriteDenied:
		return "read-write-denied"
	case TagResultObjectUndefined:
		return "object-undefined"
	case TagResultObjectClassInconsistent:
		return "object-class-inconsistent"
	case TagResultObjectUnavailable:
		return "object-unavailable"
	case TagResultTypeUnmatched:
		return "type-unmatched"
	case TagResultScopeAccessViolated:
		return "scope-of-access-violated"
	case TagResultDataBlockUnavailable:
		return "data-block-unavailable"
	case TagResultLongGetAborted:
		return "long-get-aborted"
	case TagResultNoLongGetInProgress:
		return "no-long-get-in-progress"
	case TagResultLongSetAborted:
		return "long-set-aborted"
	case TagResultNoLongSetInProgress:
		return "no-long-set-in-progress"
	case TagResultDataBlockNumberInvalid:
		return "data-block-number-invalid"
	case TagResultOtherReason:
		return "other-reason"
	default:
		return "unknown"
	}
}

type ReleaseRequestReason byte

const (
	ReleaseRequestReasonNormal      ReleaseRequestReason = 0
	ReleaseRequestReasonUrgent      ReleaseRequestReason = 1
	ReleaseRequestReasonUserDefined ReleaseRequestReason = 30
)

type ReleaseResponseReason byte

const (
	ReleaseResponseReasonNormal      ReleaseResponseReason = 0
	ReleaseResponseReasonNotFinished ReleaseResponseReason = 1
	ReleaseResponseReasonUserDefined ReleaseResponseReason = 30
)
