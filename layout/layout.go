// Package layout describes the byte layout of one fixed-size record: an
// ordered list of typed, fixed-width fields packed little-endian with no
// padding. It converts between records and JSON-like documents.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrFieldType    = errors.New("wrong field type")
	ErrInvalid      = errors.New("invalid layout")
	ErrShortRecord  = errors.New("record shorter than layout")
)

type Type string

const (
	Float32 Type = "float32"
	Float64 Type = "float64"
	Int8    Type = "int8"
	Int16   Type = "int16"
	Int32   Type = "int32"
	Int64   Type = "int64"
	Uint8   Type = "uint8"
	Uint16  Type = "uint16"
	Uint32  Type = "uint32"
	Uint64  Type = "uint64"
	Bytes   Type = "bytes"
)

var widths = map[Type]int{
	Float32: 4,
	Float64: 8,
	Int8:    1,
	Int16:   2,
	Int32:   4,
	Int64:   8,
	Uint8:   1,
	Uint16:  2,
	Uint32:  4,
	Uint64:  8,
	Bytes:   1,
}

// Field is one named slot of a record. Count > 1 makes it a fixed array; for
// Bytes it is the byte length.
type Field struct {
	Name   string `json:"name"`
	Type   Type   `json:"type"`
	Count  int    `json:"count,omitempty"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
}

func (f Field) elements() int {
	if f.Count <= 0 {
		return 1
	}
	return f.Count
}

// scalar fields decode to a single value, the rest to a list (or a string
// for Bytes).
func (f Field) scalar() bool {
	return f.Count <= 1 && f.Type != Bytes
}

type Layout struct {
	fields []Field
	byName map[string]int
	size   int
}

// New computes offsets for fields in the given order.
func New(fields []Field) (*Layout, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalid)
	}

	l := &Layout{
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}

	for _, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field without name", ErrInvalid)
		}
		if _, exists := l.byName[f.Name]; exists {
			return nil, fmt.Errorf("%w: field '%s' declared twice", ErrInvalid, f.Name)
		}
		width, ok := widths[f.Type]
		if !ok {
			return nil, fmt.Errorf("%w: field '%s' has unknown type '%s'", ErrInvalid, f.Name, f.Type)
		}
		if f.Count < 0 {
			return nil, fmt.Errorf("%w: field '%s' has negative count", ErrInvalid, f.Name)
		}

		f.Offset = l.size
		f.Size = width * f.elements()
		l.size += f.Size

		l.byName[f.Name] = len(l.fields)
		l.fields = append(l.fields, f)
	}

	return l, nil
}

// Size is the record width in bytes.
func (l *Layout) Size() int {
	return l.size
}

func (l *Layout) Fields() []Field {
	return append([]Field(nil), l.fields...)
}

func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

func (l *Layout) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Fields []Field `json:"fields"`
		Size   int     `json:"size"`
	}{
		Fields: l.fields,
		Size:   l.size,
	})
}
