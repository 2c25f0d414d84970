package densearray

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// dirtySlots remembers which real slots changed since the bulk consumer last
// drained them. A nil *dirtySlots tracks nothing.
type dirtySlots struct {
	bitmap *roaring.Bitmap
}

func newDirtySlots() *dirtySlots {
	return &dirtySlots{bitmap: roaring.New()}
}

func (d *dirtySlots) mark(real int) {
	if d == nil {
		return
	}
	d.bitmap.Add(uint32(real))
}

// take hands over the current set clipped to [0, live).
func (d *dirtySlots) take(live int) *roaring.Bitmap {
	if d == nil {
		return roaring.New()
	}
	taken := d.bitmap
	d.bitmap = roaring.New()
	taken.RemoveRange(uint64(live), math.MaxUint32+1)
	return taken
}

func (d *dirtySlots) reset() {
	if d == nil {
		return
	}
	d.bitmap.Clear()
}
