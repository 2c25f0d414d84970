package layout

import (
	"fmt"

	"github.com/fulldump/slotdb/utils"
)

// Sprite is the vertex record of a 2D sprite batch: 15 float32 values,
// 60 bytes.
func Sprite() *Layout {
	l, err := New([]Field{
		{Name: "com_position", Type: Float32, Count: 2},
		{Name: "offset", Type: Float32, Count: 2},
		{Name: "angle", Type: Float32},
		{Name: "size", Type: Float32, Count: 2},
		{Name: "tint", Type: Float32, Count: 4},
		{Name: "texcoords", Type: Float32, Count: 2},
		{Name: "texsize", Type: Float32, Count: 2},
	})
	if err != nil {
		panic(err)
	}
	return l
}

var presets = map[string]func() *Layout{
	"sprite": Sprite,
}

func Preset(name string) (*Layout, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset '%s', must be one of %v", ErrInvalid, name, Presets())
	}
	return p(), nil
}

func Presets() []string {
	return utils.GetKeys(presets)
}
