package dlmsal

import "github.com/metergrid/libcosem-go/base"

// Event is something that happened to the association. Listeners receive
// events synchronously, in registration order, on the goroutine that drove
// the triggering transition.
type Event interface {
	associationEvent()
}

// Established is emitted when an accepted AARE with a valid
// InitiateResponse completes the association.
type Established struct {
	Version byte
}

// EstablishmentFailed is emitted when the server rejects the AARQ or the
// accepted AARE carries no usable InitiateResponse. Diagnostic always holds
// the raw AARE diagnostic value; for RejectOther it is the only place the
// unmapped value is carried.
type EstablishmentFailed struct {
	Reason     RejectReason
	Diagnostic base.SourceDiagnostic
}

// Released is emitted when an RLRE completes the normal release.
type Released struct{}

// ConnectionLost is emitted when the physical connection drops underneath
// an established or releasing association.
type ConnectionLost struct{}

// Aborted is emitted before the association is torn down by Abort.
type Aborted struct {
	Reason string
}

// AuthenticationFailed is emitted when the authentication exchange fails
// while the association is pending.
type AuthenticationFailed struct {
	Details string
}

func (Established) associationEvent()          {}
func (EstablishmentFailed) associationEvent()  {}
func (Released) associationEvent()             {}
func (ConnectionLost) associationEvent()       {}
func (Aborted) associationEvent()              {}
func (AuthenticationFailed) associationEvent() {}

// Listener observes association lifecycle events.
type Listener interface {
	OnAssociationEvent(Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

func (f ListenerFunc) OnAssociationEvent(e Event) {
	f(e)
}

// RejectReason classifies why the server refused the association. It is a
// classification only; the raw diagnostic value travels next to it in
// OpenResult and EstablishmentFailed.
type RejectReason byte

const (
	RejectNone RejectReason = iota
	RejectNotAuthorized
	RejectCalledApTitleNotRecognized
	RejectCalledApInvocationIdNotRecognized
	RejectNotAuthorizedToInvoke
	RejectOther
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectNotAuthorized:
		return "not-authorized"
	case RejectCalledApTitleNotRecognized:
		return "called-ap-title-not-recognized"
	case RejectCalledApInvocationIdNotRecognized:
		return "called-ap-invocation-id-not-recognized"
	case RejectNotAuthorizedToInvoke:
		return "not-authorized-to-invoke"
	default:
		return "other"
	}
}

// RejectReasonFromDiagnostic maps an AARE result source diagnostic value to
// the reject reason surfaced to listeners.
func RejectReasonFromDiagnostic(d base.SourceDiagnostic) RejectReason {
	switch d {
	case 0:
		return RejectNone
	case 1:
		return RejectNotAuthorized
	case 2:
		return RejectCalledApTitleNotRecognized
	case 3:
		return RejectCalledApInvocationIdNotRecognized
	case 4:
		return RejectNotAuthorizedToInvoke
	default:
		return RejectOther
	}
}
