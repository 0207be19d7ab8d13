// Package dlmsal implements the COSEM application association layer: the
// client side state machine driving COSEM-OPEN, RELEASE and ABORT over the
// acse PDUs, the xDLMS InitiateRequest/InitiateResponse codec carried in
// their user information, and the compact short-name service PDUs.
//
// The Association itself performs no I/O; the surrounding transport sends
// the bytes the Build/Open/Release helpers produce and feeds received bytes
// into ProcessAARE/ProcessRLRE.
//
// Basic usage:
//
//	settings, _ := dlmsal.NewSettingsWithLowAuthenticationLN("password")
//	assoc := dlmsal.New(settings)
//	assoc.OnConnected()
//	aarq, _ := assoc.Open()
//	// send aarq, receive aare bytes through the transport
//	result, err := assoc.ProcessAARE(aare)
package dlmsal

import (
	"encoding/hex"
	"strings"

	"go.uber.org/zap"

	"github.com/metergrid/libcosem-go/acse"
	"github.com/metergrid/libcosem-go/base"
	"github.com/metergrid/libcosem-go/ber"
)

// Settings carries the association parameters the client proposes.
type Settings struct {
	ClientSap          SapAddress
	ServerSap          SapAddress
	Authentication     base.Authentication
	ApplicationContext ber.ObjectIdentifier
	ConformanceBlock   base.Conformance
	MaxPduRecvSize     uint16
	SystemTitle        []byte
	EmptyRLRQ          bool

	password []byte
}

const (
	// PublicClientSap is the always-available unauthenticated client address.
	PublicClientSap SapAddress = 0x10
	// ManagementClientSap is the usual management client address.
	ManagementClientSap SapAddress = 0x01
	// DefaultServerSap is the management logical device.
	DefaultServerSap SapAddress = 0x01
)

const defaultMaxPduRecvSize = 0xffff

const lnConformance = base.ConformanceBlockBlockTransferWithGetOrRead | base.ConformanceBlockBlockTransferWithSetOrWrite |
	base.ConformanceBlockBlockTransferWithAction | base.ConformanceBlockAction | base.ConformanceBlockGet | base.ConformanceBlockSet |
	base.ConformanceBlockSelectiveAccess | base.ConformanceBlockMultipleReferences | base.ConformanceBlockAttribute0SupportedWithGet

const snConformance = base.ConformanceBlockBlockTransferWithGetOrRead | base.ConformanceBlockBlockTransferWithSetOrWrite |
	base.ConformanceBlockRead | base.ConformanceBlockWrite | base.ConformanceBlockSelectiveAccess | base.ConformanceBlockMultipleReferences

// NewSettingsWithNoAuthenticationLN creates settings for logical-name
// referencing without authentication.
func NewSettingsWithNoAuthenticationLN() (*Settings, error) {
	return &Settings{
		ClientSap:        PublicClientSap,
		ServerSap:        DefaultServerSap,
		Authentication:   base.AuthenticationNone,
		ConformanceBlock: lnConformance,
		MaxPduRecvSize:   defaultMaxPduRecvSize,
		EmptyRLRQ:        true,
	}, nil
}

// NewSettingsWithLowAuthenticationLN creates settings for logical-name
// referencing with low-level (password) authentication.
func NewSettingsWithLowAuthenticationLN(password string) (*Settings, error) {
	s, err := NewSettingsWithNoAuthenticationLN()
	if err != nil {
		return nil, err
	}
	s.ClientSap = ManagementClientSap
	s.Authentication = base.AuthenticationLow
	s.password = []byte(password)
	return s, nil
}

// NewSettingsWithNoAuthenticationSN creates settings for short-name
// referencing without authentication.
func NewSettingsWithNoAuthenticationSN() (*Settings, error) {
	return &Settings{
		ClientSap:          PublicClientSap,
		ServerSap:          DefaultServerSap,
		Authentication:     base.AuthenticationNone,
		ApplicationContext: acse.ApplicationContextName(base.ApplicationContextSNNoCiphering),
		ConformanceBlock:   snConformance,
		MaxPduRecvSize:     defaultMaxPduRecvSize,
	}, nil
}

// NewSettingsWithLowAuthenticationSN creates settings for short-name
// referencing with low-level (password) authentication.
func NewSettingsWithLowAuthenticationSN(password string) (*Settings, error) {
	s, err := NewSettingsWithNoAuthenticationSN()
	if err != nil {
		return nil, err
	}
	s.ClientSap = ManagementClientSap
	s.Authentication = base.AuthenticationLow
	s.password = []byte(password)
	return s, nil
}

func (a *Association) logf(format string, v ...any) {
	if a.logger != nil {
		a.logger.Infof(format, v...)
	}
}

func (a *Association) dlogf(format string, v ...any) {
	if a.logger != nil {
		a.logger.Debugf(format, v...)
	}
}

// SetLogger installs the logger used for state transitions and PDU dumps.
func (a *Association) SetLogger(logger *zap.SugaredLogger) {
	a.logger = logger
}

func encodeHexString(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
