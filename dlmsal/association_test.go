package dlmsal

import (
	"errors"
	"reflect"
	"testing"

	"k8s.io/utils/ptr"

	"github.com/metergrid/libcosem-go/acse"
	"github.com/metergrid/libcosem-go/base"
)

type recorder struct {
	events []Event
}

func (r *recorder) OnAssociationEvent(e Event) {
	r.events = append(r.events, e)
}

func newTestAssociation(t *testing.T) (*Association, *recorder) {
	t.Helper()
	settings, err := NewSettingsWithLowAuthenticationLN("12345678")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	a := New(settings)
	rec := &recorder{}
	a.RegisterListener(rec)
	return a, rec
}

func serverAARE(t *testing.T, result base.AssociationResult, diag base.SourceDiagnostic, ui []byte) []byte {
	t.Helper()
	p := &acse.AARE{
		ApplicationContextName: acse.DefaultApplicationContextLN,
		Result:                 result,
		ResultSourceDiagnostic: acse.SourceDiagnostic{Source: acse.DiagnosticSourceServiceUser, Value: diag},
		UserInformation:        ui,
	}
	enc, err := p.Encode()
	if err != nil {
		t.Fatalf("aare: %v", err)
	}
	return enc
}

func serverInitiateResponse(conf base.Conformance, maxpdu uint16) []byte {
	r := &InitiateResponse{
		NegotiatedDlmsVersion:   base.DlmsVersion,
		NegotiatedConformance:   conf,
		ServerMaxReceivePduSize: maxpdu,
		VAAName:                 0x0007,
	}
	return r.Encode()
}

func TestOpenRequiresConnection(t *testing.T) {
	a, _ := newTestAssociation(t)
	if _, err := a.Open(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("open from inactive: %v", err)
	}
	if a.State() != StateInactive {
		t.Errorf("state = %s", a.State())
	}
}

func TestOpenTransitionsToPending(t *testing.T) {
	a, _ := newTestAssociation(t)
	a.OnConnected()
	if a.State() != StateIdle {
		t.Fatalf("state after connect = %s", a.State())
	}
	aarq, err := a.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(aarq) == 0 || aarq[0] != 0x60 {
		t.Errorf("aarq = % 02x", aarq)
	}
	if a.State() != StateAssociationPending {
		t.Errorf("state = %s", a.State())
	}
	if _, err := a.Open(); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("second open: %v", err)
	}
}

func TestProcessAAREAccepted(t *testing.T) {
	a, rec := newTestAssociation(t)
	a.OnConnected()
	if _, err := a.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	ui := serverInitiateResponse(base.ConformanceBlockGet|base.ConformanceBlockSet|base.ConformanceBlockRead, 1024)
	res, err := a.ProcessAARE(serverAARE(t, base.AssociationResultAccepted, base.SourceDiagnosticNone, ui))
	if err != nil {
		t.Fatalf("process aare: %v", err)
	}
	if !res.Established {
		t.Fatalf("result = %+v", res)
	}
	if !a.IsActive() || a.State() != StateAssociated {
		t.Errorf("state = %s, active = %v", a.State(), a.IsActive())
	}
	// read was never proposed for the logical-name settings
	want := base.ConformanceBlockGet | base.ConformanceBlockSet
	if res.Conformance != want {
		t.Errorf("conformance = %s, want %s", res.Conformance, want)
	}
	if res.MaxPduSize != 1024 || res.Version != base.DlmsVersion {
		t.Errorf("result = %+v", res)
	}
	neg := a.Context().NegotiatedParameters()
	if neg == nil || neg.Conformance != want || neg.MaxPduSize != 1024 {
		t.Errorf("negotiated = %+v", neg)
	}
	if len(rec.events) != 1 {
		t.Fatalf("events = %+v", rec.events)
	}
	if ev, ok := rec.events[0].(Established); !ok || ev.Version != base.DlmsVersion {
		t.Errorf("event = %+v", rec.events[0])
	}
}

func TestProcessAARERejected(t *testing.T) {
	a, rec := newTestAssociation(t)
	a.OnConnected()
	if _, err := a.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	res, err := a.ProcessAARE(serverAARE(t, base.AssociationResultPermanentRejected, 1, nil))
	if err != nil {
		t.Fatalf("process aare: %v", err)
	}
	if res.Established || a.IsActive() {
		t.Errorf("result = %+v, state = %s", res, a.State())
	}
	if a.State() != StateIdle {
		t.Errorf("state = %s", a.State())
	}
	if res.Reason != RejectNotAuthorized {
		t.Errorf("reason = %s", res.Reason)
	}
	if len(rec.events) != 1 {
		t.Fatalf("events = %+v", rec.events)
	}
	ev, ok := rec.events[0].(EstablishmentFailed)
	if !ok || ev.Reason != RejectNotAuthorized || ev.Diagnostic != 1 {
		t.Errorf("event = %+v", rec.events[0])
	}
}

func TestProcessAAREAcceptedWithoutInitiateResponse(t *testing.T) {
	tests := []struct {
		name string
		ui   []byte
	}{
		{"missing", nil},
		{"undecodable", []byte{0x08, 0x00}},
		{"service-error", (&ConfirmedServiceError{Service: 1, ErrorClass: 6, ErrorValue: 0}).Encode()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, rec := newTestAssociation(t)
			a.OnConnected()
			if _, err := a.Open(); err != nil {
				t.Fatalf("open: %v", err)
			}
			res, err := a.ProcessAARE(serverAARE(t, base.AssociationResultAccepted, base.SourceDiagnosticNone, tt.ui))
			if err != nil {
				t.Fatalf("process aare: %v", err)
			}
			if res.Established || a.State() != StateIdle {
				t.Errorf("result = %+v, state = %s", res, a.State())
			}
			if len(rec.events) != 1 {
				t.Fatalf("events = %+v", rec.events)
			}
			if _, ok := rec.events[0].(EstablishmentFailed); !ok {
				t.Errorf("event = %+v", rec.events[0])
			}
		})
	}
}

func TestProcessAAREUndecodable(t *testing.T) {
	a, rec := newTestAssociation(t)
	a.OnConnected()
	if _, err := a.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err := a.ProcessAARE([]byte{0x61, 0x05, 0xa1})
	if err == nil {
		t.Fatal("expected error")
	}
	if a.State() != StateIdle {
		t.Errorf("state = %s", a.State())
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestProcessAAREWithoutPendingOpen(t *testing.T) {
	a, _ := newTestAssociation(t)
	if _, err := a.ProcessAARE([]byte{0x61, 0x00}); !errors.Is(err, ErrNoPendingAssociation) {
		t.Fatalf("process aare: %v", err)
	}
}

func establish(t *testing.T) (*Association, *recorder) {
	t.Helper()
	a, rec := newTestAssociation(t)
	a.OnConnected()
	if _, err := a.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	ui := serverInitiateResponse(lnConformance, 1024)
	if _, err := a.ProcessAARE(serverAARE(t, base.AssociationResultAccepted, base.SourceDiagnosticNone, ui)); err != nil {
		t.Fatalf("process aare: %v", err)
	}
	rec.events = nil
	return a, rec
}

func TestReleaseFlow(t *testing.T) {
	a, rec := establish(t)
	rlrq, err := a.Release()
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	// the logical-name presets ask for the empty release request
	if !reflect.DeepEqual(rlrq, []byte{0x62, 0x00}) {
		t.Errorf("rlrq = % 02x", rlrq)
	}
	if a.State() != StateReleasePending {
		t.Fatalf("state = %s", a.State())
	}
	rlre := &acse.RLRE{Reason: ptr.To(base.ReleaseResponseReasonNormal)}
	enc, err := rlre.Encode()
	if err != nil {
		t.Fatalf("rlre: %v", err)
	}
	res, err := a.ProcessRLRE(enc)
	if err != nil {
		t.Fatalf("process rlre: %v", err)
	}
	if res.Reason == nil || *res.Reason != base.ReleaseResponseReasonNormal {
		t.Errorf("result = %+v", res)
	}
	if a.State() != StateInactive {
		t.Errorf("state = %s", a.State())
	}
	if a.Context().NegotiatedParameters() != nil {
		t.Error("negotiated parameters survived the release")
	}
	if len(rec.events) != 1 {
		t.Fatalf("events = %+v", rec.events)
	}
	if _, ok := rec.events[0].(Released); !ok {
		t.Errorf("event = %+v", rec.events[0])
	}
}

func TestReleaseRequiresAssociation(t *testing.T) {
	a, _ := newTestAssociation(t)
	a.OnConnected()
	if _, err := a.Release(); !errors.Is(err, ErrNoAssociation) {
		t.Fatalf("release: %v", err)
	}
}

func TestProcessRLREUndecodable(t *testing.T) {
	a, rec := establish(t)
	if _, err := a.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	rec.events = nil
	if _, err := a.ProcessRLRE([]byte{0x63, 0x03, 0x80}); err == nil {
		t.Fatal("expected error")
	}
	if a.State() != StateInactive {
		t.Errorf("state = %s", a.State())
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestAbort(t *testing.T) {
	a, rec := establish(t)
	var stateDuringEvent AssociationState
	a.RegisterListener(ListenerFunc(func(e Event) {
		if _, ok := e.(Aborted); ok {
			stateDuringEvent = a.State()
		}
	}))
	a.Abort("frame timeout")
	if a.State() != StateInactive {
		t.Errorf("state = %s", a.State())
	}
	// Aborted is delivered before the transition
	if stateDuringEvent != StateAssociated {
		t.Errorf("state during event = %s", stateDuringEvent)
	}
	if len(rec.events) != 1 {
		t.Fatalf("events = %+v", rec.events)
	}
	if ev, ok := rec.events[0].(Aborted); !ok || ev.Reason != "frame timeout" {
		t.Errorf("event = %+v", rec.events[0])
	}
}

func TestOnConnectionLost(t *testing.T) {
	t.Run("associated", func(t *testing.T) {
		a, rec := establish(t)
		a.OnConnectionLost()
		if a.State() != StateInactive {
			t.Errorf("state = %s", a.State())
		}
		if len(rec.events) != 1 {
			t.Fatalf("events = %+v", rec.events)
		}
		if _, ok := rec.events[0].(ConnectionLost); !ok {
			t.Errorf("event = %+v", rec.events[0])
		}
	})
	t.Run("release-pending", func(t *testing.T) {
		a, rec := establish(t)
		if _, err := a.Release(); err != nil {
			t.Fatalf("release: %v", err)
		}
		rec.events = nil
		a.OnConnectionLost()
		if a.State() != StateInactive {
			t.Errorf("state = %s", a.State())
		}
		if len(rec.events) != 1 {
			t.Fatalf("events = %+v", rec.events)
		}
		if _, ok := rec.events[0].(ConnectionLost); !ok {
			t.Errorf("event = %+v", rec.events[0])
		}
	})
	t.Run("idle", func(t *testing.T) {
		a, rec := newTestAssociation(t)
		a.OnConnected()
		a.OnConnectionLost()
		if a.State() != StateInactive {
			t.Errorf("state = %s", a.State())
		}
		if len(rec.events) != 0 {
			t.Errorf("events = %+v", rec.events)
		}
	})
}

func TestOnAuthFailure(t *testing.T) {
	a, rec := newTestAssociation(t)
	a.OnConnected()
	if _, err := a.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := a.OnAuthFailure("bad challenge response"); err != nil {
		t.Fatalf("auth failure: %v", err)
	}
	if a.State() != StateIdle {
		t.Errorf("state = %s", a.State())
	}
	if len(rec.events) != 1 {
		t.Fatalf("events = %+v", rec.events)
	}
	if ev, ok := rec.events[0].(AuthenticationFailed); !ok || ev.Details != "bad challenge response" {
		t.Errorf("event = %+v", rec.events[0])
	}
	if err := a.OnAuthFailure("again"); !errors.Is(err, ErrNoPendingAssociation) {
		t.Errorf("auth failure outside pending: %v", err)
	}
}

func TestListenerOrder(t *testing.T) {
	a, _ := newTestAssociation(t)
	var order []int
	a.RegisterListener(ListenerFunc(func(Event) { order = append(order, 1) }))
	a.RegisterListener(ListenerFunc(func(Event) { order = append(order, 2) }))
	a.Abort("test")
	if !reflect.DeepEqual(order, []int{1, 2}) {
		t.Errorf("order = %v", order)
	}
}

func TestRejectReasonFromDiagnostic(t *testing.T) {
	tests := []struct {
		diag base.SourceDiagnostic
		want RejectReason
	}{
		{0, RejectNone},
		{1, RejectNotAuthorized},
		{2, RejectCalledApTitleNotRecognized},
		{3, RejectCalledApInvocationIdNotRecognized},
		{4, RejectNotAuthorizedToInvoke},
		{13, RejectOther},
		{200, RejectOther},
	}
	for _, tt := range tests {
		if got := RejectReasonFromDiagnostic(tt.diag); got != tt.want {
			t.Errorf("reason(%d) = %s, want %s", tt.diag, got, tt.want)
		}
	}
}

func TestBuildAARQApplicationContext(t *testing.T) {
	tests := []struct {
		name     string
		settings func() (*Settings, error)
		want     []uint32
	}{
		{"ln-default", NewSettingsWithNoAuthenticationLN, acse.DefaultApplicationContextLN},
		{"sn", NewSettingsWithNoAuthenticationSN, acse.ApplicationContextName(base.ApplicationContextSNNoCiphering)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := tt.settings()
			if err != nil {
				t.Fatalf("settings: %v", err)
			}
			a := New(settings)
			a.OnConnected()
			enc, err := a.Open()
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			p, _, err := acse.DecodeAARQ(enc)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !p.ApplicationContextName.Equal(tt.want) {
				t.Errorf("context = %v, want %v", p.ApplicationContextName, tt.want)
			}
		})
	}
}

func TestRejectOtherCarriesDiagnostic(t *testing.T) {
	a, rec := newTestAssociation(t)
	a.OnConnected()
	if _, err := a.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	res, err := a.ProcessAARE(serverAARE(t, base.AssociationResultPermanentRejected, base.SourceDiagnosticAuthenticationFailure, nil))
	if err != nil {
		t.Fatalf("process aare: %v", err)
	}
	if res.Reason != RejectOther || res.Diagnostic != base.SourceDiagnosticAuthenticationFailure {
		t.Errorf("result = %+v", res)
	}
	ev, ok := rec.events[0].(EstablishmentFailed)
	if !ok || ev.Reason != RejectOther || ev.Diagnostic != base.SourceDiagnosticAuthenticationFailure {
		t.Errorf("event = %+v", rec.events[0])
	}
}
