package acse

import (
	"bytes"
	"reflect"
	"testing"

	"k8s.io/utils/ptr"

	"github.com/metergrid/libcosem-go/base"
)

func TestRLRQWire(t *testing.T) {
	tests := []struct {
		name string
		pdu  *RLRQ
		want []byte
	}{
		{"empty", &RLRQ{}, []byte{0x62, 0x00}},
		{"normal", &RLRQ{Reason: ptr.To(base.ReleaseRequestReasonNormal)}, []byte{0x62, 0x03, 0x80, 0x01, 0x00}},
		{"urgent", &RLRQ{Reason: ptr.To(base.ReleaseRequestReasonUrgent)}, []byte{0x62, 0x03, 0x80, 0x01, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := tt.pdu.Encode()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !bytes.Equal(enc, tt.want) {
				t.Fatalf("wire = % 02x, want % 02x", enc, tt.want)
			}
			dec, n, err := DecodeRLRQ(enc)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if n != len(enc) {
				t.Errorf("consumed %d of %d", n, len(enc))
			}
			if !reflect.DeepEqual(dec, tt.pdu) {
				t.Errorf("decoded %+v, want %+v", dec, tt.pdu)
			}
		})
	}
}

func TestRLRERoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pdu  *RLRE
	}{
		{"empty", &RLRE{}},
		{"normal", &RLRE{Reason: ptr.To(base.ReleaseResponseReasonNormal)}},
		{"not-finished", &RLRE{Reason: ptr.To(base.ReleaseResponseReasonNotFinished)}},
		{"with-user-information", &RLRE{
			Reason:          ptr.To(base.ReleaseResponseReasonNormal),
			UserInformation: []byte{0x28, 0x00},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := tt.pdu.Encode()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			dec, n, err := DecodeRLRE(enc)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if n != len(enc) {
				t.Errorf("consumed %d of %d", n, len(enc))
			}
			if !reflect.DeepEqual(dec, tt.pdu) {
				t.Errorf("decoded %+v, want %+v", dec, tt.pdu)
			}
		})
	}
}

func TestRLREDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{"empty", nil},
		{"rlrq-tag", []byte{0x62, 0x00}},
		{"bad-reason-length", []byte{0x63, 0x04, 0x80, 0x02, 0x00, 0x00}},
		{"truncated", []byte{0x63, 0x05, 0x80, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeRLRE(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !base.IsInvalidData(err) {
				t.Errorf("error kind: %v", err)
			}
		})
	}
}
