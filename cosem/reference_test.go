package cosem

import (
	"bytes"
	"testing"

	"github.com/metergrid/libcosem-go/base"
)

func TestLogicalNameReference(t *testing.T) {
	obis := ObisCode{1, 0, 1, 8, 0, 255}
	ref, err := NewLogicalNameReference(3, obis, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	enc := ref.Encode()
	want := []byte{0x00, 0x03, 1, 0, 1, 8, 0, 255, 2}
	if !bytes.Equal(enc, want) {
		t.Fatalf("encode = % 02x, want % 02x", enc, want)
	}
	back, n, err := DecodeLogicalNameReference(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != LogicalNameReferenceSize || back != ref {
		t.Errorf("decode = %+v, consumed %d", back, n)
	}
}

func TestLogicalNameReferenceZeroID(t *testing.T) {
	if _, err := NewLogicalNameReference(3, ObisCode{}, 0); err == nil || !base.IsInvalidData(err) {
		t.Fatalf("zero id error = %v", err)
	}
	wire := []byte{0x00, 0x03, 1, 0, 1, 8, 0, 255, 0}
	if _, _, err := DecodeLogicalNameReference(wire); err == nil {
		t.Fatal("zero id decode did not fail")
	}
}

func TestLogicalNameReferenceTruncated(t *testing.T) {
	for l := 0; l < LogicalNameReferenceSize; l++ {
		if _, _, err := DecodeLogicalNameReference(make([]byte, l)); err == nil {
			t.Errorf("length %d did not fail", l)
		}
	}
}

func TestShortNameReference(t *testing.T) {
	ref, err := NewShortNameReference(0xfa00, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	enc := ref.Encode()
	if !bytes.Equal(enc, []byte{0xfa, 0x00, 8}) {
		t.Fatalf("encode = % 02x", enc)
	}
	back, n, err := DecodeShortNameReference(enc)
	if err != nil || n != ShortNameReferenceSize || back != ref {
		t.Errorf("decode = %+v, %d, %v", back, n, err)
	}
}

func TestShortNameReferenceZeroID(t *testing.T) {
	if _, err := NewShortNameReference(0x1234, 0); err == nil {
		t.Fatal("zero id did not fail")
	}
	if _, _, err := DecodeShortNameReference([]byte{0x12, 0x34, 0x00}); err == nil {
		t.Fatal("zero id decode did not fail")
	}
	if _, _, err := DecodeShortNameReference([]byte{0x12}); err == nil {
		t.Fatal("short buffer did not fail")
	}
}
