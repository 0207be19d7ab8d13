package dlmsal

import (
	"reflect"
	"testing"

	"k8s.io/utils/ptr"

	"github.com/metergrid/libcosem-go/base"
)

func TestInitiateRequestDefaultWire(t *testing.T) {
	s, err := NewSettingsWithNoAuthenticationLN()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	got := NewInitiateRequest(s).Encode()
	want := []byte{
		0x01, 0x00, 0x00, 0x00, 0x06,
		0x5f, 0x1f, 0x04, 0x00, 0x00, 0x3e, 0x1d,
		0xff, 0xff,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("encode = % 02x, want % 02x", got, want)
	}
}

func TestInitiateRequestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  InitiateRequest
	}{
		{"defaults", InitiateRequest{
			ResponseAllowed:         true,
			ProposedDlmsVersion:     base.DlmsVersion,
			ProposedConformance:     lnConformance,
			ClientMaxReceivePduSize: 0xffff,
		}},
		{"dedicated-key", InitiateRequest{
			DedicatedKey:            []byte{0x01, 0x02, 0x03, 0x04},
			ResponseAllowed:         true,
			ProposedDlmsVersion:     base.DlmsVersion,
			ProposedConformance:     snConformance,
			ClientMaxReceivePduSize: 1024,
		}},
		{"qos-no-response", InitiateRequest{
			ResponseAllowed:          false,
			ProposedQualityOfService: ptr.To[byte](0x02),
			ProposedDlmsVersion:      base.DlmsVersion,
			ProposedConformance:      lnConformance,
			ClientMaxReceivePduSize:  128,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := DecodeInitiateRequest(tt.req.Encode())
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(*dec, tt.req) {
				t.Errorf("decoded %+v, want %+v", *dec, tt.req)
			}
		})
	}
}

func TestDecodeInitiateRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{"empty", nil},
		{"wrong tag", []byte{0x08, 0x00, 0x00, 0x00}},
		{"truncated after key flag", []byte{0x01, 0x00}},
		{"truncated key", []byte{0x01, 0x01, 0x08, 0xaa}},
		{"truncated body", []byte{0x01, 0x00, 0x00, 0x00, 0x06, 0x5f, 0x1f}},
		{"bad conformance header", []byte{0x01, 0x00, 0x00, 0x00, 0x06, 0x5f, 0x20, 0x04, 0x00, 0x00, 0x3e, 0x1d, 0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeInitiateRequest(tt.src); !base.IsInvalidData(err) {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func TestInitiateResponseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		resp InitiateResponse
	}{
		{"ln", InitiateResponse{
			NegotiatedDlmsVersion:   base.DlmsVersion,
			NegotiatedConformance:   base.ConformanceBlockGet | base.ConformanceBlockSet | base.ConformanceBlockAction,
			ServerMaxReceivePduSize: 1024,
			VAAName:                 base.VAANameLN,
		}},
		{"qos", InitiateResponse{
			NegotiatedQualityOfService: ptr.To[byte](0x01),
			NegotiatedDlmsVersion:      base.DlmsVersion,
			NegotiatedConformance:      base.ConformanceBlockRead | base.ConformanceBlockWrite,
			ServerMaxReceivePduSize:    0x0200,
			VAAName:                    int16(-1536),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := DecodeInitiateResponse(tt.resp.Encode())
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(*dec, tt.resp) {
				t.Errorf("decoded %+v, want %+v", *dec, tt.resp)
			}
		})
	}
}

func TestDecodeInitiateResponseErrors(t *testing.T) {
	good := (&InitiateResponse{
		NegotiatedDlmsVersion:   base.DlmsVersion,
		NegotiatedConformance:   base.ConformanceBlockGet,
		ServerMaxReceivePduSize: 256,
		VAAName:                 base.VAANameLN,
	}).Encode()
	wrongVersion := append([]byte(nil), good...)
	wrongVersion[2] = 0x05

	tests := []struct {
		name string
		src  []byte
	}{
		{"empty", nil},
		{"wrong tag", []byte{0x01, 0x00}},
		{"truncated", good[:6]},
		{"wrong dlms version", wrongVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeInitiateResponse(tt.src); !base.IsInvalidData(err) {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func TestDecodeUserInformation(t *testing.T) {
	resp := &InitiateResponse{
		NegotiatedDlmsVersion:   base.DlmsVersion,
		NegotiatedConformance:   base.ConformanceBlockGet,
		ServerMaxReceivePduSize: 256,
		VAAName:                 base.VAANameLN,
	}
	ir, cse, err := DecodeUserInformation(resp.Encode())
	if err != nil || cse != nil {
		t.Fatalf("ir=%+v cse=%+v err=%v", ir, cse, err)
	}
	if !reflect.DeepEqual(ir, resp) {
		t.Errorf("decoded %+v, want %+v", ir, resp)
	}

	ir, cse, err = DecodeUserInformation([]byte{0x0e, 0x01, 0x06, 0x00})
	if err != nil || ir != nil {
		t.Fatalf("ir=%+v cse=%+v err=%v", ir, cse, err)
	}
	want := &ConfirmedServiceError{Service: 1, ErrorClass: 6, ErrorValue: 0}
	if !reflect.DeepEqual(cse, want) {
		t.Errorf("decoded %+v, want %+v", cse, want)
	}
	if cse.Error() == "" {
		t.Error("empty error string")
	}

	if _, _, err = DecodeUserInformation([]byte{0x21, 0x00}); !base.IsInvalidData(err) {
		t.Errorf("unexpected tag error = %v", err)
	}
	if _, _, err = DecodeUserInformation(nil); !base.IsInvalidData(err) {
		t.Errorf("empty error = %v", err)
	}
}
