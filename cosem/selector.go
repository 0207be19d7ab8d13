package cosem

import (
	"bytes"

	"github.com/metergrid/libcosem-go/axdr"
	"github.com/metergrid/libcosem-go/base"
)

// Selective-access selector types.
const (
	SelectorEntryIndex byte = 0
	SelectorDateRange  byte = 1
	SelectorValueRange byte = 2
)

// AccessSelector narrows an attribute read. Implementations are EntryIndex,
// DateRange and ValueRange; a nil selector means unrestricted access.
type AccessSelector interface {
	// Descriptor converts the selector to its wire-level descriptor.
	Descriptor() (SelectiveAccessDescriptor, error)
}

// EntryIndex selects count entries starting at start_index (1-based,
// count 0 means all remaining).
type EntryIndex struct {
	StartIndex uint32
	Count      uint32
}

func (e EntryIndex) Descriptor() (SelectiveAccessDescriptor, error) {
	return SelectiveAccessDescriptor{
		SelectorType: SelectorEntryIndex,
		AccessParameters: axdr.Data{Tag: axdr.TagStructure, Value: []axdr.Data{
			{Tag: axdr.TagDoubleLongUnsigned, Value: e.StartIndex},
			{Tag: axdr.TagDoubleLongUnsigned, Value: e.Count},
		}},
	}, nil
}

// DateRange selects entries between two 12-byte date-times, inclusive.
type DateRange struct {
	From axdr.DateTime
	To   axdr.DateTime
}

func (d DateRange) Descriptor() (SelectiveAccessDescriptor, error) {
	return SelectiveAccessDescriptor{
		SelectorType: SelectorDateRange,
		AccessParameters: axdr.Data{Tag: axdr.TagStructure, Value: []axdr.Data{
			{Tag: axdr.TagOctetString, Value: d.From},
			{Tag: axdr.TagOctetString, Value: d.To},
		}},
	}, nil
}

// ValueRange selects entries between two arbitrary data values.
type ValueRange struct {
	From axdr.Data
	To   axdr.Data
}

func (v ValueRange) Descriptor() (SelectiveAccessDescriptor, error) {
	return SelectiveAccessDescriptor{
		SelectorType: SelectorValueRange,
		AccessParameters: axdr.Data{Tag: axdr.TagStructure, Value: []axdr.Data{v.From, v.To}},
	}, nil
}

// SelectiveAccessDescriptor is the wire pair of selector type and access
// parameters.
type SelectiveAccessDescriptor struct {
	SelectorType     byte
	AccessParameters axdr.Data
}

// Encode yields the selector byte followed by the tagged access parameters.
func (d SelectiveAccessDescriptor) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.EncodeTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d SelectiveAccessDescriptor) EncodeTo(dst *bytes.Buffer) error {
	dst.WriteByte(d.SelectorType)
	return axdr.EncodeTo(dst, &d.AccessParameters)
}

// DecodeSelectiveAccessDescriptor parses a descriptor from the start of src
// and returns the bytes consumed.
func DecodeSelectiveAccessDescriptor(src []byte) (SelectiveAccessDescriptor, int, error) {
	if len(src) == 0 {
		return SelectiveAccessDescriptor{}, 0, base.InvalidDataf("too short data for access descriptor")
	}
	params, n, err := axdr.DecodeSlice(src[1:])
	if err != nil {
		return SelectiveAccessDescriptor{}, 0, err
	}
	return SelectiveAccessDescriptor{SelectorType: src[0], AccessParameters: params}, n + 1, nil
}

// Selector maps the descriptor back to a typed selector using the explicit
// selector type. Prefer this over DecodeAccessSelector whenever the type is
// known.
func (d SelectiveAccessDescriptor) Selector() (AccessSelector, error) {
	elems, err := twoElements(d.AccessParameters)
	if err != nil {
		return nil, err
	}
	switch d.SelectorType {
	case SelectorEntryIndex:
		return entryIndexFrom(elems)
	case SelectorDateRange:
		return dateRangeFrom(elems)
	case SelectorValueRange:
		return ValueRange{From: elems[0], To: elems[1]}, nil
	default:
		return nil, base.InvalidDataf("unknown selector type %d", d.SelectorType)
	}
}

// DecodeAccessSelector guesses the selector kind from bare access
// parameters: first EntryIndex, then DateRange, then ValueRange. The guess
// can misclassify a two-element integer structure as EntryIndex, so the
// descriptor path stays authoritative when the selector type is known.
func DecodeAccessSelector(src []byte) (AccessSelector, error) {
	params, _, err := axdr.DecodeSlice(src)
	if err != nil {
		return nil, err
	}
	elems, err := twoElements(params)
	if err != nil {
		return nil, err
	}
	if sel, err := entryIndexFrom(elems); err == nil {
		return sel, nil
	}
	if sel, err := dateRangeFrom(elems); err == nil {
		return sel, nil
	}
	return ValueRange{From: elems[0], To: elems[1]}, nil
}

func twoElements(params axdr.Data) ([]axdr.Data, error) {
	if params.Tag != axdr.TagStructure {
		return nil, base.InvalidDataf("access parameters are not a structure")
	}
	elems, ok := params.Value.([]axdr.Data)
	if !ok || len(elems) != 2 {
		return nil, base.InvalidDataf("access parameters need exactly two elements")
	}
	return elems, nil
}

func entryIndexFrom(elems []axdr.Data) (AccessSelector, error) {
	start, ok := asUint32(elems[0])
	if !ok {
		return nil, base.InvalidDataf("entry index start is not an unsigned number")
	}
	count, ok := asUint32(elems[1])
	if !ok {
		return nil, base.InvalidDataf("entry index count is not an unsigned number")
	}
	return EntryIndex{StartIndex: start, Count: count}, nil
}

func dateRangeFrom(elems []axdr.Data) (AccessSelector, error) {
	from, err := asDateTime(elems[0])
	if err != nil {
		return nil, err
	}
	to, err := asDateTime(elems[1])
	if err != nil {
		return nil, err
	}
	return DateRange{From: from, To: to}, nil
}

func asDateTime(d axdr.Data) (axdr.DateTime, error) {
	switch v := d.Value.(type) {
	case axdr.DateTime:
		if d.Tag == axdr.TagOctetString || d.Tag == axdr.TagDateTime {
			return v, nil
		}
	case []byte:
		if d.Tag == axdr.TagOctetString && len(v) == axdr.DateTimeSize {
			return axdr.NewDateTimeFromSlice(v)
		}
	}
	return axdr.DateTime{}, base.InvalidDataf("not a 12 byte date-time")
}

func asUint32(d axdr.Data) (uint32, bool) {
	switch v := d.Value.(type) {
	case uint8:
		if d.Tag == axdr.TagUnsigned || d.Tag == axdr.TagEnum {
			return uint32(v), true
		}
	case uint16:
		return uint32(v), true
	case uint32:
		return v, true
	case int8:
		if v >= 0 {
			return uint32(v), true
		}
	case int16:
		if v >= 0 {
			return uint32(v), true
		}
	case int32:
		if v >= 0 {
			return uint32(v), true
		}
	}
	return 0, false
}

// CaptureObject builds the capture-object structure profile buffers key
// their columns with.
func CaptureObject(classID uint16, logical ObisCode, attribute int8, version uint16) axdr.Data {
	return axdr.Data{Tag: axdr.TagStructure, Value: []axdr.Data{
		{Tag: axdr.TagLongUnsigned, Value: classID},
		{Tag: axdr.TagOctetString, Value: logical.Bytes()},
		{Tag: axdr.TagInteger, Value: attribute},
		{Tag: axdr.TagLongUnsigned, Value: version},
	}}
}
