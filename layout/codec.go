package layout

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Encode writes the fields present in doc into record and leaves every other
// byte untouched, so it serves both full inserts and patches. Nothing is
// written unless every given field is valid.
func (l *Layout) Encode(record []byte, doc map[string]any) error {
	if len(record) < l.size {
		return fmt.Errorf("%w: %d < %d", ErrShortRecord, len(record), l.size)
	}

	scratch := make([]byte, l.size)
	copy(scratch, record)

	for name, value := range doc {
		f, ok := l.Field(name)
		if !ok {
			return fmt.Errorf("%w '%s'", ErrUnknownField, name)
		}
		if err := encodeField(f, scratch[f.Offset:f.Offset+f.Size], value); err != nil {
			return err
		}
	}

	copy(record, scratch)
	return nil
}

// Decode reads every field of record.
func (l *Layout) Decode(record []byte) (map[string]any, error) {
	if len(record) < l.size {
		return nil, fmt.Errorf("%w: %d < %d", ErrShortRecord, len(record), l.size)
	}

	doc := make(map[string]any, len(l.fields))
	for _, f := range l.fields {
		doc[f.Name] = decodeField(f, record[f.Offset:f.Offset+f.Size])
	}
	return doc, nil
}

// DecodeField reads a single field. Indexes use it to extract their key.
func (l *Layout) DecodeField(record []byte, name string) (any, error) {
	f, ok := l.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownField, name)
	}
	if len(record) < f.Offset+f.Size {
		return nil, fmt.Errorf("%w: %d < %d", ErrShortRecord, len(record), f.Offset+f.Size)
	}
	return decodeField(f, record[f.Offset:f.Offset+f.Size]), nil
}

func encodeField(f Field, dst []byte, value any) error {

	if f.Type == Bytes {
		var src []byte
		switch v := value.(type) {
		case string:
			src = []byte(v)
		case []byte:
			src = v
		default:
			return fmt.Errorf("%w: field '%s' expects a string, got %T", ErrFieldType, f.Name, value)
		}
		if len(src) > len(dst) {
			return fmt.Errorf("%w: field '%s' holds %d bytes, got %d", ErrFieldType, f.Name, len(dst), len(src))
		}
		n := copy(dst, src)
		clear(dst[n:])
		return nil
	}

	width := widths[f.Type]

	if f.scalar() {
		return encodeNumber(f, dst[:width], value)
	}

	list, ok := value.([]any)
	if !ok {
		return fmt.Errorf("%w: field '%s' expects a list of %d %s, got %T", ErrFieldType, f.Name, f.elements(), f.Type, value)
	}
	if len(list) != f.elements() {
		return fmt.Errorf("%w: field '%s' expects %d elements, got %d", ErrFieldType, f.Name, f.elements(), len(list))
	}
	for i, item := range list {
		if err := encodeNumber(f, dst[i*width:(i+1)*width], item); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	}
	f, ok := toFloat(value)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toUint(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint:
		return uint64(v), true
	case uint64:
		return v, true
	case json.Number:
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u, true
		}
	}
	i, ok := toInt(value)
	if !ok || i < 0 {
		return 0, false
	}
	return uint64(i), true
}

func encodeNumber(f Field, dst []byte, value any) error {

	wrong := func() error {
		return fmt.Errorf("%w: field '%s' expects %s, got %v", ErrFieldType, f.Name, f.Type, value)
	}

	switch f.Type {
	case Float32:
		v, ok := toFloat(value)
		if !ok {
			return wrong()
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case Float64:
		v, ok := toFloat(value)
		if !ok {
			return wrong()
		}
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	case Int8, Int16, Int32, Int64:
		v, ok := toInt(value)
		if !ok {
			return wrong()
		}
		bits := uint(8 * len(dst))
		if bits < 64 && (v < -(1<<(bits-1)) || v >= 1<<(bits-1)) {
			return wrong()
		}
		putUint(dst, uint64(v))
	case Uint8, Uint16, Uint32, Uint64:
		v, ok := toUint(value)
		if !ok {
			return wrong()
		}
		bits := uint(8 * len(dst))
		if bits < 64 && v >= 1<<bits {
			return wrong()
		}
		putUint(dst, v)
	default:
		return wrong()
	}
	return nil
}

func putUint(dst []byte, v uint64) {
	switch len(dst) {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(dst, v)
	}
}

func decodeField(f Field, src []byte) any {

	if f.Type == Bytes {
		return strings.TrimRight(string(src), "\x00")
	}

	width := widths[f.Type]
	if f.scalar() {
		return decodeNumber(f.Type, src[:width])
	}

	list := make([]any, f.elements())
	for i := range list {
		list[i] = decodeNumber(f.Type, src[i*width:(i+1)*width])
	}
	return list
}

func decodeNumber(t Type, src []byte) any {
	switch t {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(src)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(src))
	case Int8:
		return int64(int8(src[0]))
	case Int16:
		return int64(int16(binary.LittleEndian.Uint16(src)))
	case Int32:
		return int64(int32(binary.LittleEndian.Uint32(src)))
	case Int64:
		return int64(binary.LittleEndian.Uint64(src))
	case Uint8:
		return uint64(src[0])
	case Uint16:
		return uint64(binary.LittleEndian.Uint16(src))
	case Uint32:
		return uint64(binary.LittleEndian.Uint32(src))
	case Uint64:
		return binary.LittleEndian.Uint64(src)
	}
	return nil
}

// Normalize returns value the way Decode would return it after storing it in
// the named field, e.g. 0.1 as float32 precision. Lookups use it to build keys
// comparable with stored records.
func (l *Layout) Normalize(name string, value any) (any, error) {
	f, ok := l.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownField, name)
	}
	buf := make([]byte, f.Size)
	if err := encodeField(f, buf, value); err != nil {
		return nil, err
	}
	return decodeField(f, buf), nil
}
