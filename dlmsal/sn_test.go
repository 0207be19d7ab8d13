package dlmsal

import (
	"reflect"
	"testing"

	"github.com/metergrid/libcosem-go/axdr"
	"github.com/metergrid/libcosem-go/base"
)

func TestReadRequestWire(t *testing.T) {
	p := ReadRequest{InvokeID: 0x12, ShortName: 0x1234}
	enc, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !reflect.DeepEqual(enc, []byte{0x01, 0x12, 0x12, 0x34}) {
		t.Fatalf("encode = % 02x", enc)
	}
	dec, n, err := DecodeSnPdu(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 4 || !reflect.DeepEqual(dec, p) {
		t.Errorf("decoded %+v (%d bytes)", dec, n)
	}
}

func TestSnPduRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pdu  SnPdu
	}{
		{"read-request", ReadRequest{InvokeID: 0x40, ShortName: 0xfa00}},
		{"write-request", WriteRequest{
			InvokeID:  0x41,
			ShortName: 0x2bc8,
			Data:      axdr.Data{Tag: axdr.TagDoubleLongUnsigned, Value: uint32(123456)},
		}},
		{"read-response-data", ReadResponse{
			InvokeID: 0x40,
			Data:     &axdr.Data{Tag: axdr.TagOctetString, Value: []byte{0x01, 0x02, 0x03}},
		}},
		{"read-response-error", ReadResponse{InvokeID: 0x40, Result: base.TagResultObjectUndefined}},
		{"write-response", WriteResponse{InvokeID: 0x41, Result: base.TagResultSuccess}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := tt.pdu.Encode()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			dec, n, err := DecodeSnPdu(enc)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if n != len(enc) {
				t.Errorf("consumed %d of %d bytes", n, len(enc))
			}
			if !reflect.DeepEqual(dec, tt.pdu) {
				t.Errorf("decoded %+v, want %+v", dec, tt.pdu)
			}
		})
	}
}

func TestSnPduTrailingBytes(t *testing.T) {
	enc, err := WriteResponse{InvokeID: 0x41, Result: base.TagResultSuccess}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, n, err := DecodeSnPdu(append(enc, 0xde, 0xad))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(enc) {
		t.Errorf("consumed %d bytes, want %d", n, len(enc))
	}
	if _, ok := dec.(WriteResponse); !ok {
		t.Errorf("decoded %+v", dec)
	}
}

func TestDecodeSnPduErrors(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{"empty", nil},
		{"single byte", []byte{0x01}},
		{"unknown tag", []byte{0x07, 0x12, 0x12, 0x34}},
		{"short read request", []byte{0x01, 0x12, 0x12}},
		{"short write request", []byte{0x02, 0x12, 0x12, 0x34}},
		{"short read response", []byte{0x03, 0x12, 0x00}},
		{"bad read response choice", []byte{0x03, 0x12, 0x02, 0x00}},
		{"short write response", []byte{0x04, 0x12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeSnPdu(tt.src); err == nil {
				t.Error("expected error")
			}
		})
	}
}
