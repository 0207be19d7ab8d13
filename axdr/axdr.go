// Package axdr implements the adjusted external data representation used by
// DLMS/COSEM application PDUs: tagged data values with count-prefixed arrays
// and structures, fixed-width big-endian scalars and length-prefixed octet
// strings.
package axdr

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"time"
	"unicode/utf8"

	"github.com/metergrid/libcosem-go/base"
)

type DataTag uint16

const (
	TagNull               DataTag = 0
	TagArray              DataTag = 1
	TagStructure          DataTag = 2
	TagBoolean            DataTag = 3
	TagBitString          DataTag = 4
	TagDoubleLong         DataTag = 5
	TagDoubleLongUnsigned DataTag = 6
	TagFloatingPoint      DataTag = 7
	TagOctetString        DataTag = 9
	TagVisibleString      DataTag = 10
	TagUTF8String         DataTag = 12
	TagBCD                DataTag = 13
	TagInteger            DataTag = 15
	TagLong               DataTag = 16
	TagUnsigned           DataTag = 17
	TagLongUnsigned       DataTag = 18
	TagCompactArray       DataTag = 19
	TagLong64             DataTag = 20
	TagLong64Unsigned     DataTag = 21
	TagEnum               DataTag = 22
	TagFloat32            DataTag = 23
	TagFloat64            DataTag = 24
	TagDateTime           DataTag = 25
	TagDate               DataTag = 26
	TagTime               DataTag = 27
	TagError              DataTag = 0x1000 // artifical tag outside of dlms standard but not interfering with it
)

type tmpbuffer [128]byte

// Data is a single self-describing A-XDR value.
type Data struct {
	Value interface{}
	Tag   DataTag
}

// DataError carries a data-access result inside a TagError value.
type DataError struct {
	Result base.AccessResult
}

func NewDataError(result base.AccessResult) Data {
	return Data{Tag: TagError, Value: DataError{Result: result}}
}

// CompactArray holds items of a single element type; for structure elements
// the per-member types are listed once up front instead of per item.
type CompactArray struct {
	tag   DataTag
	tags  []DataTag
	items []Data
}

// NewCompactArray builds a compact array of items tagged elem; structTags
// describes the member types when elem is TagStructure.
func NewCompactArray(elem DataTag, structTags []DataTag, items []Data) CompactArray {
	return CompactArray{tag: elem, tags: structTags, items: items}
}

// Items returns the decoded or stored elements.
func (ca CompactArray) Items() []Data {
	return ca.items
}

// Decode reads one tagged value from src and returns it together with the
// number of bytes consumed. All failures, including short reads, surface as
// typed invalid-data errors.
func Decode(src io.Reader) (Data, int, error) {
	var tmp tmpbuffer
	d, n, err := decodeDataTag(src, &tmp)
	if err != nil && !base.IsInvalidData(err) {
		err = base.InvalidDataf("too short data, %v", err)
	}
	return d, n, err
}

// DecodeSlice decodes one tagged value from the start of src.
func DecodeSlice(src []byte) (Data, int, error) {
	return Decode(bytes.NewReader(src))
}

func decodeDataTag(src io.Reader, tmp *tmpbuffer) (data Data, c int, err error) {
	_, err = io.ReadFull(src, tmp[:1])
	if err != nil {
		return
	}
	t := DataTag(tmp[0])
	data, c, err = decodeData(src, t, tmp)
	return data, c + 1, err
}

func decodeDataArray(src io.Reader, tag DataTag, tmp *tmpbuffer) (data Data, c int, err error) {
	var ii int
	l, c, err := decodelength(src, tmp)
	if err != nil {
		return data, 0, err
	}
	// the announced element count is not trusted for the allocation; a
	// forged count runs into a short read instead
	d := make([]Data, 0, min(l, 16))
	for i := uint(0); i < l; i++ {
		var e Data
		e, ii, err = decodeDataTag(src, tmp)
		if err != nil {
			return data, 0, err
		}
		d = append(d, e)
		c += ii
	}
	return Data{Tag: tag, Value: d}, c, nil
}

func readfull(src io.Reader, dst []byte, what string) error {
	if _, err := io.ReadFull(src, dst); err != nil {
		return base.InvalidDataf("too short data for %s, %v", what, err)
	}
	return nil
}

const readchunk = 4096

// readvalue reads an announced number of content bytes in bounded chunks,
// so a forged length fails with a short read before any large allocation.
func readvalue(src io.Reader, l uint, what string) ([]byte, error) {
	v := make([]byte, 0, min(l, readchunk))
	var chunk [readchunk]byte
	for uint(len(v)) < l {
		n := min(l-uint(len(v)), readchunk)
		if err := readfull(src, chunk[:n], what); err != nil {
			return nil, err
		}
		v = append(v, chunk[:n]...)
	}
	return v, nil
}

func decodeData(src io.Reader, tag DataTag, tmp *tmpbuffer) (data Data, c int, err error) {
	switch tag {
	case TagNull:
		return Data{Tag: tag}, 0, nil
	case TagArray, TagStructure:
		return decodeDataArray(src, tag, tmp)
	case TagBoolean:
		if err = readfull(src, tmp[:1], "boolean"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: tmp[0] != 0}, 1, nil
	case TagBitString:
		return decodeBitstring(src, tag, tmp)
	case TagDoubleLong:
		if err = readfull(src, tmp[:4], "double long"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: int32(binary.BigEndian.Uint32(tmp[:4]))}, 4, nil
	case TagDoubleLongUnsigned:
		if err = readfull(src, tmp[:4], "double long unsigned"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: binary.BigEndian.Uint32(tmp[:4])}, 4, nil
	case TagFloatingPoint, TagFloat32:
		if err = readfull(src, tmp[:4], "float32"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: math.Float32frombits(binary.BigEndian.Uint32(tmp[:4]))}, 4, nil
	case TagOctetString:
		l, c, err := decodelength(src, tmp)
		if err != nil {
			return data, 0, err
		}
		v, err := readvalue(src, l, "octet string")
		if err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: v}, c + int(l), nil
	case TagVisibleString:
		l, c, err := decodelength(src, tmp)
		if err != nil {
			return data, 0, err
		}
		v, err := readvalue(src, l, "visible string")
		if err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: string(v)}, c + int(l), nil
	case TagUTF8String:
		l, c, err := decodelength(src, tmp)
		if err != nil {
			return data, 0, err
		}
		v, err := readvalue(src, l, "utf-8 string")
		if err != nil {
			return data, 0, err
		}
		if !utf8.Valid(v) {
			return data, 0, base.InvalidDataf("byte slice contain invalid UTF-8 runes")
		}
		return Data{Tag: tag, Value: string(v)}, c + int(l), nil
	case TagBCD:
		if err = readfull(src, tmp[:1], "bcd"); err != nil {
			return data, 0, err
		}
		v := int(tmp[0]&0xf) + 10*(int(tmp[0]>>4)&7)
		if tmp[0]&0x80 != 0 {
			v = -v
		}
		return Data{Tag: tag, Value: int8(v)}, 1, nil
	case TagInteger:
		if err = readfull(src, tmp[:1], "integer"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: int8(tmp[0])}, 1, nil
	case TagLong:
		if err = readfull(src, tmp[:2], "long"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: int16(binary.BigEndian.Uint16(tmp[:2]))}, 2, nil
	case TagUnsigned:
		if err = readfull(src, tmp[:1], "unsigned"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: tmp[0]}, 1, nil
	case TagLongUnsigned:
		if err = readfull(src, tmp[:2], "long unsigned"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: binary.BigEndian.Uint16(tmp[:2])}, 2, nil
	case TagCompactArray:
		return decodeCompactArray(src, tag, tmp)
	case TagLong64:
		if err = readfull(src, tmp[:8], "long64"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: int64(binary.BigEndian.Uint64(tmp[:8]))}, 8, nil
	case TagLong64Unsigned:
		if err = readfull(src, tmp[:8], "long64 unsigned"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: binary.BigEndian.Uint64(tmp[:8])}, 8, nil
	case TagEnum:
		if err = readfull(src, tmp[:1], "enum"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: tmp[0]}, 1, nil
	case TagFloat64:
		if err = readfull(src, tmp[:8], "float64"); err != nil {
			return data, 0, err
		}
		return Data{Tag: tag, Value: math.Float64frombits(binary.BigEndian.Uint64(tmp[:8]))}, 8, nil
	case TagDateTime:
		if err = readfull(src, tmp[:12], "datetime"); err != nil {
			return data, 0, err
		}
		v, _ := NewDateTimeFromSlice(tmp[:12])
		return Data{Tag: tag, Value: v}, 12, nil
	case TagDate:
		if err = readfull(src, tmp[:5], "date"); err != nil {
			return data, 0, err
		}
		v := Date{Year: binary.BigEndian.Uint16(tmp[:2]), Month: tmp[2], Day: tmp[3], DayOfWeek: tmp[4]}
		return Data{Tag: tag, Value: v}, 5, nil
	case TagTime:
		if err = readfull(src, tmp[:4], "time"); err != nil {
			return data, 0, err
		}
		v := Time{Hour: tmp[0], Minute: tmp[1], Second: tmp[2], Hundredths: tmp[3]}
		return Data{Tag: tag, Value: v}, 4, nil
	}
	return data, 0, base.InvalidDataf("unknown tag %d", tag)
}

func decodeBitstring(src io.Reader, tag DataTag, tmp *tmpbuffer) (data Data, c int, err error) {
	l, c, err := decodelength(src, tmp)
	if err != nil {
		return data, 0, err
	}
	blen := (l + 7) >> 3
	var raw []byte
	if blen > uint(len(tmp)) {
		if raw, err = readvalue(src, blen, "bitstring"); err != nil {
			return data, 0, err
		}
	} else {
		raw = tmp[:blen]
		if err = readfull(src, raw, "bitstring"); err != nil {
			return data, 0, err
		}
	}
	// bounded by the bytes actually read
	val := make([]bool, l)
	for i := range val {
		val[i] = raw[i>>3]&(0x80>>uint(i&7)) != 0
	}
	return Data{Tag: tag, Value: val}, c + int(blen), nil
}

func decodeCompactArray(src io.Reader, tag DataTag, tmp *tmpbuffer) (data Data, n int, err error) {
	if err = readfull(src, tmp[:1], "compact array"); err != nil {
		return data, 0, err
	}
	n = 1
	ctag := DataTag(tmp[0])
	var types []DataTag
	if ctag == TagStructure { // member types listed once up front
		l, c, err := decodelength(src, tmp)
		if err != nil {
			return data, 0, err
		}
		n += c
		var raw []byte
		if l > uint(len(tmp)) {
			if raw, err = readvalue(src, l, "compact array (number of structure items)"); err != nil {
				return data, 0, err
			}
		} else {
			raw = tmp[:l]
			if err = readfull(src, raw, "compact array (number of structure items)"); err != nil {
				return data, 0, err
			}
		}
		types = make([]DataTag, l)
		for i := range types {
			types[i] = DataTag(raw[i])
		}
		n += int(l)
	} else {
		if ctag == TagNull {
			return data, 0, base.InvalidDataf("unable to decode compact array with null tag")
		}
		types = []DataTag{ctag}
	}

	// content length in bytes, traverse till nothing is left
	l, c, err := decodelength(src, tmp)
	if err != nil {
		return data, 0, err
	}
	n += c

	if l != 0 {
		allnull := true
		for _, ty := range types {
			if ty != TagNull {
				allnull = false
			}
		}
		if allnull {
			return data, 0, base.InvalidDataf("unable to decode compact array with all null types")
		}
	}

	content := io.LimitReader(src, int64(l))
	rem := int(l)
	n += rem
	items := make([]Data, 0, 16)
	for rem > 0 {
		if ctag == TagStructure {
			str := make([]Data, len(types))
			for i := range types {
				if rem <= 0 {
					return data, 0, base.InvalidDataf("there are no bytes left for another structure item")
				}
				str[i], c, err = decodeData(content, types[i], tmp)
				if err != nil {
					return data, 0, err
				}
				rem -= c
			}
			items = append(items, Data{Tag: TagStructure, Value: str})
		} else {
			item, c, err := decodeData(content, ctag, tmp)
			if err != nil {
				return data, 0, err
			}
			rem -= c
			items = append(items, item)
		}
	}
	out := CompactArray{tag: ctag, items: items}
	if ctag == TagStructure {
		out.tags = types
	}
	return Data{Tag: tag, Value: out}, n, nil
}

// Encode yields the tagged wire form of d.
func Encode(d Data) ([]byte, error) {
	var out bytes.Buffer
	err := EncodeTo(&out, &d)
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// EncodeTo appends the tagged wire form of d to out.
func EncodeTo(out *bytes.Buffer, d *Data) error {
	if d == nil {
		return base.InvalidDataf("nil data") // no panic here
	}
	out.WriteByte(byte(d.Tag))
	return encodeNoTag(out, d)
}

func encodeNoTag(out *bytes.Buffer, d *Data) error {
	switch d.Tag {
	case TagNull:
	case TagArray, TagStructure:
		return encodeArrayStructure(out, d)
	case TagBoolean:
		return encodeNumber(out, d, 1)
	case TagBitString:
		return encodeBitstring(out, d)
	case TagDoubleLong, TagDoubleLongUnsigned:
		return encodeNumber(out, d, 4)
	case TagFloatingPoint, TagFloat32:
		return encodeFloat(out, d, 4)
	case TagOctetString:
		return encodeOctetString(out, d)
	case TagVisibleString, TagUTF8String:
		return encodeString(out, d)
	case TagBCD:
		return encodeBCD(out, d)
	case TagInteger, TagUnsigned, TagEnum:
		return encodeNumber(out, d, 1)
	case TagLong, TagLongUnsigned:
		return encodeNumber(out, d, 2)
	case TagCompactArray:
		return encodeCompactArray(out, d)
	case TagLong64, TagLong64Unsigned:
		return encodeNumber(out, d, 8)
	case TagFloat64:
		return encodeFloat(out, d, 8)
	case TagDateTime:
		return encodeDateTime(out, d)
	case TagDate:
		return encodeDate(out, d)
	case TagTime:
		return encodeTime(out, d)
	default:
		return base.InvalidDataf("unsupported data tag: %v", d.Tag)
	}
	return nil
}

func encodeDateTime(out *bytes.Buffer, d *Data) error {
	switch t := d.Value.(type) {
	case time.Time:
		dt := NewDateTimeFromTime(t)
		dt.encodeTo(out)
	case DateTime:
		t.encodeTo(out)
	case *DateTime:
		t.encodeTo(out)
	default:
		return base.InvalidDataf("unsupported data type for date time: %T", d.Value)
	}
	return nil
}

func encodeDate(out *bytes.Buffer, d *Data) error {
	switch t := d.Value.(type) {
	case Date:
		t.encodeTo(out)
	case *Date:
		t.encodeTo(out)
	default:
		return base.InvalidDataf("unsupported data type for date: %T", d.Value)
	}
	return nil
}

func encodeTime(out *bytes.Buffer, d *Data) error {
	switch t := d.Value.(type) {
	case Time:
		t.encodeTo(out)
	case *Time:
		t.encodeTo(out)
	default:
		return base.InvalidDataf("unsupported data type for time: %T", d.Value)
	}
	return nil
}

func encodeCompactArray(out *bytes.Buffer, d *Data) (err error) {
	var input *CompactArray
	switch t := d.Value.(type) {
	case CompactArray:
		input = &t
	case *CompactArray:
		input = t
	default:
		return base.InvalidDataf("unsupported data type for compact array: %T", d.Value)
	}
	if input.tag == TagNull {
		return base.InvalidDataf("unable to encode compact array with null tag")
	}
	if input.tag == TagStructure {
		if len(input.tags) == 0 {
			return base.InvalidDataf("no structure tags provided")
		}
		allnull := true
		for _, ty := range input.tags {
			if ty != TagNull {
				allnull = false
			}
		}
		if allnull {
			return base.InvalidDataf("unable to encode compact array with all null types")
		}
	}
	for _, t := range input.items {
		if t.Tag != input.tag {
			return base.InvalidDataf("data tag differs, unable to perform encoding compact array")
		}
		if input.tag != TagStructure {
			continue
		}
		mt, err := structureTypes(&t)
		if err != nil {
			return err
		}
		if len(mt) != len(input.tags) {
			return base.InvalidDataf("inner structure differs")
		}
		for i, tt := range mt {
			if tt != input.tags[i] {
				return base.InvalidDataf("inner structure differs")
			}
		}
	}

	out.WriteByte(byte(input.tag))
	if input.tag == TagStructure {
		encodelengthto(out, uint(len(input.tags)))
		for _, tt := range input.tags {
			out.WriteByte(byte(tt))
		}
	}
	var content bytes.Buffer
	for i := range input.items {
		if input.tag == TagStructure {
			err = encodeStructureWithoutTags(&content, &input.items[i])
		} else {
			err = encodeNoTag(&content, &input.items[i])
		}
		if err != nil {
			return err
		}
	}
	encodelengthto(out, uint(content.Len()))
	out.Write(content.Bytes())
	return nil
}

func encodeStructureWithoutTags(out *bytes.Buffer, d *Data) error {
	switch t := d.Value.(type) {
	case []*Data:
		for _, dd := range t {
			if err := encodeNoTag(out, dd); err != nil {
				return err
			}
		}
	case []Data:
		for i := range t {
			if err := encodeNoTag(out, &t[i]); err != nil {
				return err
			}
		}
	default:
		return base.InvalidDataf("invalid inner structure data")
	}
	return nil
}

func structureTypes(d *Data) ([]DataTag, error) {
	if d.Tag != TagStructure {
		return nil, base.InvalidDataf("data are not a structure")
	}
	switch t := d.Value.(type) {
	case []*Data:
		r := make([]DataTag, len(t))
		for i, dt := range t {
			r[i] = dt.Tag
		}
		return r, nil
	case []Data:
		r := make([]DataTag, len(t))
		for i, dt := range t {
			r[i] = dt.Tag
		}
		return r, nil
	default:
		return nil, base.InvalidDataf("invalid inner structure data")
	}
}

func encodeBCD(out *bytes.Buffer, d *Data) error {
	var lr int64
	switch t := d.Value.(type) {
	case int:
		lr = int64(t)
	case int8:
		lr = int64(t)
	case int16:
		lr = int64(t)
	case int32:
		lr = int64(t)
	case int64:
		lr = t
	default:
		return base.InvalidDataf("unsupported data type for BCD: %T", d.Value)
	}
	b := byte(((lr/10)%10)<<4) | byte(lr%10)
	if lr < 0 {
		b |= 0x80
	}
	out.WriteByte(b)
	return nil
}

func encodeString(out *bytes.Buffer, d *Data) error {
	switch t := d.Value.(type) {
	case string:
		encodelengthto(out, uint(len(t)))
		out.WriteString(t)
	case []byte:
		encodelengthto(out, uint(len(t)))
		out.Write(t)
	default:
		return base.InvalidDataf("unsupported data type for string: %T", d.Value)
	}
	return nil
}

func encodeOctetString(out *bytes.Buffer, d *Data) error {
	switch t := d.Value.(type) {
	case []byte:
		encodelengthto(out, uint(len(t)))
		out.Write(t)
	case DateTime:
		encodelengthto(out, 12)
		t.encodeTo(out)
	case *DateTime:
		encodelengthto(out, 12)
		t.encodeTo(out)
	case time.Time:
		dt := NewDateTimeFromTime(t)
		encodelengthto(out, 12)
		dt.encodeTo(out)
	default:
		return base.InvalidDataf("unsupported data type for octet string: %T", d.Value)
	}
	return nil
}

func encodeFloat(out *bytes.Buffer, d *Data, size int) error {
	switch size {
	case 4, 8:
	default:
		return base.InvalidDataf("strange target float length: %v", size)
	}
	switch t := d.Value.(type) {
	case float32:
		if size == 8 {
			_ = binary.Write(out, binary.BigEndian, float64(t))
		} else {
			_ = binary.Write(out, binary.BigEndian, t)
		}
	case float64:
		if size == 4 {
			_ = binary.Write(out, binary.BigEndian, float32(t))
		} else {
			_ = binary.Write(out, binary.BigEndian, t)
		}
	default:
		return base.InvalidDataf("unsupported data type for float: %T", d.Value)
	}
	return nil
}

func encodeBitstring(out *bytes.Buffer, d *Data) error {
	var bits []bool
	switch t := d.Value.(type) {
	case string:
		bits = make([]bool, len(t))
		for i, c := range []byte(t) {
			switch c {
			case '0':
			case '1':
				bits[i] = true
			default:
				return base.InvalidDataf("invalid character in bitstring: %c", c)
			}
		}
	case []bool:
		bits = t
	default:
		return base.InvalidDataf("unsupported data type for bitstring: %T", d.Value)
	}
	res := make([]byte, (len(bits)+7)>>3)
	for i, set := range bits {
		if set {
			res[i>>3] |= 0x80 >> uint(i&7)
		}
	}
	encodelengthto(out, uint(len(bits)))
	out.Write(res)
	return nil
}

func encodeNumber(out *bytes.Buffer, d *Data, size int) error {
	var lr uint64
	switch t := d.Value.(type) {
	case bool:
		if t {
			lr = 1
		}
	case uint:
		lr = uint64(t)
	case uint8:
		lr = uint64(t)
	case uint16:
		lr = uint64(t)
	case uint32:
		lr = uint64(t)
	case uint64:
		lr = t
	case int:
		lr = uint64(int64(t)) // sign bits expand on purpose
	case int8:
		lr = uint64(int64(t))
	case int16:
		lr = uint64(int64(t))
	case int32:
		lr = uint64(int64(t))
	case int64:
		lr = uint64(t)
	default:
		return base.InvalidDataf("unsupported data type for number: %T", d.Value)
	}
	switch size {
	case 1:
		out.WriteByte(byte(lr))
	case 2:
		out.WriteByte(byte(lr >> 8))
		out.WriteByte(byte(lr))
	case 4:
		out.WriteByte(byte(lr >> 24))
		out.WriteByte(byte(lr >> 16))
		out.WriteByte(byte(lr >> 8))
		out.WriteByte(byte(lr))
	case 8:
		out.WriteByte(byte(lr >> 56))
		out.WriteByte(byte(lr >> 48))
		out.WriteByte(byte(lr >> 40))
		out.WriteByte(byte(lr >> 32))
		out.WriteByte(byte(lr >> 24))
		out.WriteByte(byte(lr >> 16))
		out.WriteByte(byte(lr >> 8))
		out.WriteByte(byte(lr))
	default:
		return base.InvalidDataf("strange target number length: %v", size)
	}
	return nil
}

func encodeArrayStructure(out *bytes.Buffer, d *Data) error {
	if d.Value == nil {
		encodelengthto(out, 0)
		return nil
	}
	switch t := d.Value.(type) {
	case []*Data:
		encodelengthto(out, uint(len(t)))
		for _, v := range t {
			if err := EncodeTo(out, v); err != nil {
				return err
			}
		}
	case []Data:
		encodelengthto(out, uint(len(t)))
		for i := range t {
			if err := EncodeTo(out, &t[i]); err != nil {
				return err
			}
		}
	default:
		return base.InvalidDataf("unsupported data type for array/structure: %T", d.Value)
	}
	return nil
}
