package dlmsal

import "github.com/metergrid/libcosem-go/base"

// AssociationState is the lifecycle state of one application association.
type AssociationState byte

const (
	// StateInactive means no physical connection is available.
	StateInactive AssociationState = iota
	// StateIdle means the physical connection is up, no association yet.
	StateIdle
	// StateAssociationPending means an AARQ is out, waiting for the AARE.
	StateAssociationPending
	// StateAssociated means the association is established.
	StateAssociated
	// StateReleasePending means an RLRQ is out, waiting for the RLRE.
	StateReleasePending
)

func (s AssociationState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateIdle:
		return "idle"
	case StateAssociationPending:
		return "association-pending"
	case StateAssociated:
		return "associated"
	case StateReleasePending:
		return "release-pending"
	default:
		return "unknown"
	}
}

// SapAddress is a service access point address, client or server side.
type SapAddress int16

// NegotiatedParameters are the values both peers settled on during
// association establishment.
type NegotiatedParameters struct {
	Version          byte
	Conformance      base.Conformance
	MaxPduSize       uint16
	QualityOfService byte
	VAAName          int16
}

// AssociationContext holds the mutable state of one association. It is owned
// by exactly one Association and changed only through its transition and
// update methods.
type AssociationContext struct {
	state       AssociationState
	clientSap   SapAddress
	serverSap   SapAddress
	negotiated  *NegotiatedParameters
	systemTitle []byte
}

// State returns the current lifecycle state.
func (c *AssociationContext) State() AssociationState {
	return c.state
}

// ClientSap returns the client service access point address.
func (c *AssociationContext) ClientSap() SapAddress {
	return c.clientSap
}

// ServerSap returns the server service access point address.
func (c *AssociationContext) ServerSap() SapAddress {
	return c.serverSap
}

// NegotiatedParameters returns the parameters of the current association,
// nil outside StateAssociated.
func (c *AssociationContext) NegotiatedParameters() *NegotiatedParameters {
	return c.negotiated
}

// SystemTitle returns the server system title learned from the AARE, nil
// when the server sent none.
func (c *AssociationContext) SystemTitle() []byte {
	return c.systemTitle
}

func (c *AssociationContext) setNegotiated(p *NegotiatedParameters) {
	c.negotiated = p
}

func (c *AssociationContext) setSystemTitle(t []byte) {
	c.systemTitle = t
}
