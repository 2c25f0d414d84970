package densearray

import "fmt"

// Validate walks the whole structure and reports the first broken invariant.
// It is O(capacity) and meant for tests and debugging.
func (a *DenseArray) Validate() error {

	if len(a.data) != a.capacity*a.elementSize {
		return fmt.Errorf("buffer holds %d bytes, want %d", len(a.data), a.capacity*a.elementSize)
	}
	if a.live < 0 || a.live > a.capacity {
		return fmt.Errorf("live count %d outside [0, %d]", a.live, a.capacity)
	}
	if len(a.virtualToReal) != a.capacity || len(a.realToVirtual) != a.capacity {
		return fmt.Errorf("maps hold %d/%d entries, want %d", len(a.virtualToReal), len(a.realToVirtual), a.capacity)
	}

	seen := make([]bool, a.capacity)

	for r := 0; r < a.live; r++ {
		h := a.realToVirtual[r]
		if h < 0 || h >= a.capacity {
			return fmt.Errorf("slot %d maps to handle %d out of range", r, h)
		}
		if a.virtualToReal[h] != r {
			return fmt.Errorf("handle %d resolves to slot %d, but slot %d names it", h, a.virtualToReal[h], r)
		}
		if seen[h] {
			return fmt.Errorf("handle %d is live twice", h)
		}
		seen[h] = true
	}

	free := 0
	expected := a.live
	for n := a.free.top; n != nil; n = n.next {
		if n.real != expected {
			return fmt.Errorf("free entry %d carries slot %d, want %d", free, n.real, expected)
		}
		if n.virtual < 0 || n.virtual >= a.capacity {
			return fmt.Errorf("free handle %d out of range", n.virtual)
		}
		if seen[n.virtual] {
			return fmt.Errorf("free handle %d is also live or listed twice", n.virtual)
		}
		seen[n.virtual] = true
		expected++
		free++
	}
	if expected != a.capacity {
		return fmt.Errorf("free list covers slots up to %d, want %d", expected, a.capacity)
	}

	spare := 0
	for n := a.spare.top; n != nil; n = n.next {
		if n.virtual != -1 || n.real != -1 {
			return fmt.Errorf("spare node carries (%d, %d)", n.virtual, n.real)
		}
		spare++
	}

	if free != a.free.len || spare != a.spare.len {
		return fmt.Errorf("list lengths %d/%d, counted %d/%d", a.free.len, a.spare.len, free, spare)
	}
	if free+spare != a.capacity {
		return fmt.Errorf("%d free + %d spare nodes, want %d", free, spare, a.capacity)
	}
	if spare != a.live {
		return fmt.Errorf("%d spare nodes for %d live records", spare, a.live)
	}

	return nil
}
