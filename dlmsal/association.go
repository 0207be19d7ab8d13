package dlmsal

import (
	"errors"

	"go.uber.org/zap"
	"k8s.io/utils/ptr"

	"github.com/metergrid/libcosem-go/acse"
	"github.com/metergrid/libcosem-go/base"
	"github.com/metergrid/libcosem-go/ber"
)

var (
	ErrNotConnected         = errors.New("physical connection not established")
	ErrAlreadyActive        = errors.New("association already active")
	ErrNoAssociation        = errors.New("no active association")
	ErrNoPendingAssociation = errors.New("no association pending")
)

// Association drives one application association over an external
// transport. It owns its AssociationContext and is not internally
// synchronized; callers running it from several goroutines must serialize
// access themselves.
type Association struct {
	settings  *Settings
	ctx       AssociationContext
	listeners []Listener
	logger    *zap.SugaredLogger
	pending   *InitiateRequest
}

// New creates an association in StateInactive.
func New(settings *Settings) *Association {
	return &Association{
		settings: settings,
		ctx: AssociationContext{
			state:     StateInactive,
			clientSap: settings.ClientSap,
			serverSap: settings.ServerSap,
		},
	}
}

// RegisterListener adds a lifecycle event listener. Listeners are invoked
// synchronously, in registration order.
func (a *Association) RegisterListener(l Listener) {
	a.listeners = append(a.listeners, l)
}

// Context exposes the association context for inspection.
func (a *Association) Context() *AssociationContext {
	return &a.ctx
}

// State returns the current lifecycle state.
func (a *Association) State() AssociationState {
	return a.ctx.state
}

// IsActive reports whether the association is established.
func (a *Association) IsActive() bool {
	return a.ctx.state == StateAssociated
}

// OnConnected tells the association the physical link is up. It only moves
// an inactive association to idle; later states are left alone.
func (a *Association) OnConnected() {
	if a.ctx.state == StateInactive {
		a.transition(StateIdle)
	}
}

// Open builds the AARQ for the configured settings and moves the
// association to StateAssociationPending. The returned bytes are handed to
// the transport; the answer comes back through ProcessAARE.
func (a *Association) Open() ([]byte, error) {
	switch a.ctx.state {
	case StateInactive:
		return nil, ErrNotConnected
	case StateIdle:
	default:
		return nil, ErrAlreadyActive
	}
	out, err := a.BuildAARQ(nil, nil)
	if err != nil {
		return nil, err
	}
	a.transition(StateAssociationPending)
	return out, nil
}

// BuildAARQ encodes an association request. A nil initiate request proposes
// the settings defaults; a nil application context falls back to the
// settings context and then to the logical-name context.
func (a *Association) BuildAARQ(ir *InitiateRequest, appContext ber.ObjectIdentifier) ([]byte, error) {
	if ir == nil {
		ir = NewInitiateRequest(a.settings)
	}
	if appContext == nil {
		appContext = a.settings.ApplicationContext
	}
	if appContext == nil {
		appContext = acse.DefaultApplicationContextLN
	}
	p := acse.NewAARQ(appContext)
	if a.settings.SystemTitle != nil {
		p.CallingAPTitle = a.settings.SystemTitle
	}
	if a.settings.Authentication != base.AuthenticationNone {
		req := ber.NewBitString([]bool{true})
		p.SenderAcseRequirements = &req
		p.MechanismName = acse.MechanismName(a.settings.Authentication)
		p.CallingAuthenticationValue = acse.AuthenticationValue(a.settings.password)
	}
	p.UserInformation = ir.Encode()
	out, err := p.Encode()
	if err != nil {
		return nil, err
	}
	a.pending = ir
	a.dlogf("AARQ built, %d bytes, context %s", len(out), appContext)
	return out, nil
}

// OpenResult is the outcome of ProcessAARE.
type OpenResult struct {
	Established bool
	Version     byte
	Conformance base.Conformance
	MaxPduSize  uint16
	Result      base.AssociationResult
	Diagnostic  base.SourceDiagnostic
	Reason      RejectReason
}

// ProcessAARE digests the association response. An accepted AARE with a
// valid InitiateResponse establishes the association; every other outcome,
// including an undecodable PDU, drops back to StateIdle. Well formed
// refusals emit EstablishmentFailed and are reported through the result,
// not as an error.
func (a *Association) ProcessAARE(src []byte) (OpenResult, error) {
	if a.ctx.state != StateAssociationPending {
		return OpenResult{}, ErrNoPendingAssociation
	}
	a.dlogf("AARE: %s", encodeHexString(src))
	aare, _, err := acse.DecodeAARE(src)
	if err != nil {
		a.pending = nil
		a.transition(StateIdle)
		return OpenResult{}, err
	}
	if aare.RespondingAPTitle != nil {
		a.ctx.setSystemTitle(aare.RespondingAPTitle)
	}
	res := OpenResult{
		Result:     aare.Result,
		Diagnostic: aare.ResultSourceDiagnostic.Value,
		Reason:     RejectReasonFromDiagnostic(aare.ResultSourceDiagnostic.Value),
	}
	if aare.Result != base.AssociationResultAccepted {
		a.logf("association rejected: %s, diagnostic %d", aare.Result, aare.ResultSourceDiagnostic.Value)
		return a.establishmentFailed(res), nil
	}
	if aare.UserInformation == nil {
		a.logf("association accepted without initiate response")
		return a.establishmentFailed(res), nil
	}
	ir, cse, uerr := DecodeUserInformation(aare.UserInformation)
	if uerr != nil {
		a.logf("unusable initiate response: %v", uerr)
		return a.establishmentFailed(res), nil
	}
	if cse != nil {
		a.logf("association accepted with %v", cse)
		return a.establishmentFailed(res), nil
	}
	neg := negotiate(a.pending, ir)
	a.ctx.setNegotiated(neg)
	a.pending = nil
	a.transition(StateAssociated)
	a.emit(Established{Version: neg.Version})
	a.logf("association established, conformance %s, max pdu %d", neg.Conformance, neg.MaxPduSize)
	res.Established = true
	res.Version = neg.Version
	res.Conformance = neg.Conformance
	res.MaxPduSize = neg.MaxPduSize
	return res, nil
}

// establishmentFailed is the single failure path out of the pending state.
func (a *Association) establishmentFailed(res OpenResult) OpenResult {
	a.pending = nil
	a.ctx.setNegotiated(nil)
	a.transition(StateIdle)
	a.emit(EstablishmentFailed{Reason: res.Reason, Diagnostic: res.Diagnostic})
	return res
}

// negotiate derives the association parameters from the proposal and the
// server's answer. The conformance is the intersection of both blocks.
func negotiate(req *InitiateRequest, resp *InitiateResponse) *NegotiatedParameters {
	conf := resp.NegotiatedConformance
	if req != nil {
		conf &= req.ProposedConformance
	}
	neg := &NegotiatedParameters{
		Version:     resp.NegotiatedDlmsVersion,
		Conformance: conf,
		MaxPduSize:  resp.ServerMaxReceivePduSize,
		VAAName:     resp.VAAName,
	}
	if resp.NegotiatedQualityOfService != nil {
		neg.QualityOfService = *resp.NegotiatedQualityOfService
	}
	return neg
}

// Release builds the RLRQ and moves the association to StateReleasePending.
func (a *Association) Release() ([]byte, error) {
	if a.ctx.state != StateAssociated {
		return nil, ErrNoAssociation
	}
	out, err := a.BuildRLRQ()
	if err != nil {
		return nil, err
	}
	a.transition(StateReleasePending)
	return out, nil
}

// BuildRLRQ encodes a release request. Some meters only accept the empty
// form, which the settings select.
func (a *Association) BuildRLRQ() ([]byte, error) {
	p := &acse.RLRQ{}
	if !a.settings.EmptyRLRQ {
		p.Reason = ptr.To(base.ReleaseRequestReasonNormal)
	}
	return p.Encode()
}

// ReleaseResult is the outcome of ProcessRLRE.
type ReleaseResult struct {
	Reason          *base.ReleaseResponseReason
	UserInformation []byte
}

// ProcessRLRE digests the release response. Any successfully decoded RLRE
// completes the release regardless of its reason; an undecodable one still
// tears the association down to StateInactive and returns the error.
func (a *Association) ProcessRLRE(src []byte) (ReleaseResult, error) {
	if a.ctx.state != StateReleasePending {
		return ReleaseResult{}, ErrNoAssociation
	}
	a.dlogf("RLRE: %s", encodeHexString(src))
	rlre, _, err := acse.DecodeRLRE(src)
	if err != nil {
		a.ctx.setNegotiated(nil)
		a.transition(StateInactive)
		return ReleaseResult{}, err
	}
	a.ctx.setNegotiated(nil)
	a.transition(StateInactive)
	a.emit(Released{})
	return ReleaseResult{Reason: rlre.Reason, UserInformation: rlre.UserInformation}, nil
}

// Abort tears the association down from any state. The Aborted event is
// delivered before the transition so listeners still see the old state.
func (a *Association) Abort(reason string) {
	a.emit(Aborted{Reason: reason})
	a.pending = nil
	a.ctx.setNegotiated(nil)
	a.transition(StateInactive)
}

// OnConnectionLost tells the association the physical link dropped.
// ConnectionLost is only emitted when an association was up or releasing;
// the normal release path emits Released instead.
func (a *Association) OnConnectionLost() {
	st := a.ctx.state
	a.pending = nil
	a.ctx.setNegotiated(nil)
	a.transition(StateInactive)
	if st == StateAssociated || st == StateReleasePending {
		a.emit(ConnectionLost{})
	}
}

// OnAuthFailure reports a failed authentication exchange while the
// association is pending.
func (a *Association) OnAuthFailure(details string) error {
	if a.ctx.state != StateAssociationPending {
		return ErrNoPendingAssociation
	}
	a.pending = nil
	a.transition(StateIdle)
	a.emit(AuthenticationFailed{Details: details})
	return nil
}

func (a *Association) transition(to AssociationState) {
	if a.ctx.state == to {
		return
	}
	a.dlogf("association state %s -> %s", a.ctx.state, to)
	a.ctx.state = to
}

func (a *Association) emit(e Event) {
	for _, l := range a.listeners {
		l.OnAssociationEvent(e)
	}
}
