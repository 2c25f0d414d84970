package layout

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l, err := New([]Field{
		{Name: "id", Type: Uint32},
		{Name: "position", Type: Float64, Count: 3},
		{Name: "label", Type: Bytes, Count: 6},
		{Name: "flag", Type: Int8},
	})
	require.NoError(t, err)

	assert.Equal(t, 4+24+6+1, l.Size())

	f, ok := l.Field("label")
	require.True(t, ok)
	assert.Equal(t, 28, f.Offset)
	assert.Equal(t, 6, f.Size)

	_, ok = l.Field("missing")
	assert.False(t, ok)
}

func TestNew_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		fields []Field
	}{
		{"empty", nil},
		{"no name", []Field{{Type: Int8}}},
		{"duplicated", []Field{{Name: "a", Type: Int8}, {Name: "a", Type: Int16}}},
		{"unknown type", []Field{{Name: "a", Type: "complex128"}}},
		{"negative count", []Field{{Name: "a", Type: Int8, Count: -2}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(c.fields)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestSprite(t *testing.T) {
	l := Sprite()

	assert.Equal(t, 60, l.Size())

	offsets := map[string]int{}
	for _, f := range l.Fields() {
		offsets[f.Name] = f.Offset
	}
	assert.Equal(t, map[string]int{
		"com_position": 0,
		"offset":       8,
		"angle":        16,
		"size":         20,
		"tint":         28,
		"texcoords":    44,
		"texsize":      52,
	}, offsets)

	p, err := Preset("sprite")
	require.NoError(t, err)
	assert.Equal(t, l.Fields(), p.Fields())

	_, err = Preset("teapot")
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Equal(t, []string{"sprite"}, Presets())
}

func TestEncodeDecode(t *testing.T) {
	l := Sprite()
	record := make([]byte, l.Size())

	doc := map[string]any{
		"com_position": []any{1.5, -2.0},
		"offset":       []any{0.0, 0.0},
		"angle":        0.25,
		"size":         []any{32.0, 16.0},
		"tint":         []any{1.0, 0.5, 0.25, 1.0},
		"texcoords":    []any{0.0, 0.5},
		"texsize":      []any{0.5, 0.5},
	}
	require.NoError(t, l.Encode(record, doc))

	decoded, err := l.Decode(record)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestEncode_Partial(t *testing.T) {
	l, err := New([]Field{
		{Name: "a", Type: Int16},
		{Name: "b", Type: Uint8},
		{Name: "name", Type: Bytes, Count: 4},
	})
	require.NoError(t, err)

	record := []byte{1, 0, 2, 'a', 'b', 'c', 'd'}
	require.NoError(t, l.Encode(record, map[string]any{"b": 200}))
	assert.Equal(t, []byte{1, 0, 200, 'a', 'b', 'c', 'd'}, record)

	require.NoError(t, l.Encode(record, map[string]any{"a": -2.0, "name": "xy"}))
	assert.Equal(t, []byte{0xfe, 0xff, 200, 'x', 'y', 0, 0}, record)

	doc, err := l.Decode(record)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(-2), "b": uint64(200), "name": "xy"}, doc)

	v, err := l.DecodeField(record, "b")
	require.NoError(t, err)
	assert.Equal(t, uint64(200), v)
}

func TestEncode_Errors(t *testing.T) {
	l, err := New([]Field{
		{Name: "i8", Type: Int8},
		{Name: "u16", Type: Uint16},
		{Name: "pair", Type: Float32, Count: 2},
		{Name: "tag", Type: Bytes, Count: 2},
	})
	require.NoError(t, err)

	cases := []struct {
		name string
		doc  map[string]any
		want error
	}{
		{"unknown field", map[string]any{"nope": 1}, ErrUnknownField},
		{"int overflow", map[string]any{"i8": 128}, ErrFieldType},
		{"fraction into int", map[string]any{"i8": 1.5}, ErrFieldType},
		{"negative uint", map[string]any{"u16": -1}, ErrFieldType},
		{"uint overflow", map[string]any{"u16": 70000.0}, ErrFieldType},
		{"scalar into list", map[string]any{"pair": 1.0}, ErrFieldType},
		{"short list", map[string]any{"pair": []any{1.0}}, ErrFieldType},
		{"string into number", map[string]any{"i8": "one"}, ErrFieldType},
		{"long bytes", map[string]any{"tag": "abc"}, ErrFieldType},
		{"number into bytes", map[string]any{"tag": 3}, ErrFieldType},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			record := make([]byte, l.Size())
			err := l.Encode(record, c.doc)
			assert.True(t, errors.Is(err, c.want), "got %v", err)
			assert.Equal(t, make([]byte, l.Size()), record)
		})
	}
}

func TestEncode_FailureWritesNothing(t *testing.T) {
	l, err := New([]Field{
		{Name: "a", Type: Uint8},
		{Name: "b", Type: Uint8},
	})
	require.NoError(t, err)

	record := []byte{7, 7}
	err = l.Encode(record, map[string]any{"a": 1, "b": 300})
	assert.True(t, errors.Is(err, ErrFieldType))
	assert.Equal(t, []byte{7, 7}, record)
}

func TestEncode_ShortRecord(t *testing.T) {
	l := Sprite()

	err := l.Encode(make([]byte, 10), map[string]any{})
	assert.True(t, errors.Is(err, ErrShortRecord))

	_, err = l.Decode(make([]byte, 10))
	assert.True(t, errors.Is(err, ErrShortRecord))
}

func TestEncode_JSONNumbers(t *testing.T) {
	l, err := New([]Field{
		{Name: "big", Type: Uint64},
		{Name: "neg", Type: Int64},
	})
	require.NoError(t, err)

	record := make([]byte, l.Size())
	require.NoError(t, l.Encode(record, map[string]any{
		"big": json.Number("18446744073709551615"),
		"neg": json.Number("-9223372036854775808"),
	}))

	doc, err := l.Decode(record)
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), doc["big"])
	assert.Equal(t, int64(-9223372036854775808), doc["neg"])
}

func TestMarshalJSON(t *testing.T) {
	l, err := New([]Field{{Name: "x", Type: Float32, Count: 2}})
	require.NoError(t, err)

	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[{"name":"x","type":"float32","count":2,"offset":0,"size":8}],"size":8}`, string(b))
}

func TestNormalize(t *testing.T) {
	l, err := New([]Field{
		{Name: "f", Type: Float32},
		{Name: "u", Type: Uint16},
	})
	require.NoError(t, err)

	v, err := l.Normalize("f", 0.1)
	require.NoError(t, err)
	assert.Equal(t, float64(float32(0.1)), v)

	v, err = l.Normalize("u", 7.0)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	_, err = l.Normalize("u", -7)
	assert.True(t, errors.Is(err, ErrFieldType))

	_, err = l.Normalize("nope", 1)
	assert.True(t, errors.Is(err, ErrUnknownField))
}
