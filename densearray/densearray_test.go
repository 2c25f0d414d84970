package densearray

import (
	"errors"
	"math"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/slotdb/memory"
)

func mustNew(elementSize int, options ...Option) *DenseArray {
	a, err := New(elementSize, options...)
	if err != nil {
		panic(err)
	}
	return a
}

func addString(a *DenseArray, s string) Handle {
	h, err := a.AddAndFill([]byte(s))
	if err != nil {
		panic(err)
	}
	return h
}

func getString(a *DenseArray, h Handle) string {
	b, err := a.Peek(h)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

func TestDenseArray_Scenarios(t *testing.T) {

	Alternative("Four records of five bytes", func(a *A) {

		d := mustNew(5)

		AssertEqual(addString(d, "ABCD\x00"), Handle(0))
		AssertEqual(addString(d, "YESX\x00"), Handle(1))
		AssertEqual(addString(d, "HMMX\x00"), Handle(2))
		AssertEqual(addString(d, "TEST\x00"), Handle(3))
		AssertEqual(d.Len(), 4)
		AssertEqual(d.Cap(), 4)
		AssertNil(d.Validate())

		a.Alternative("Remove handle 0", func(a *A) {

			AssertNil(d.Remove(0))
			AssertEqual(d.Len(), 3)
			AssertEqual(string(d.Bytes()[0:5]), "TEST\x00")
			AssertEqual(getString(d, 3), "TEST\x00")
			r, _ := d.RealIndex(3)
			AssertEqual(r, 0)
			AssertNil(d.Validate())

			a.Alternative("Add reuses the freed handle", func(a *A) {

				AssertEqual(addString(d, "YAYX\x00"), Handle(0))
				AssertEqual(d.Len(), 4)
				AssertEqual(d.Cap(), 4)
				AssertNil(d.Validate())

				a.Alternative("Remove handles 2 and 3", func(a *A) {

					AssertNil(d.Remove(2))
					AssertNil(d.Remove(3))
					AssertEqual(d.Len(), 2)
					AssertEqual(getString(d, 0), "YAYX\x00")
					AssertEqual(getString(d, 1), "YESX\x00")
					AssertEqual(string(d.Bytes()), "YAYX\x00YESX\x00")
					AssertNil(d.Validate())

					a.Alternative("Handles come back in stack order", func(a *A) {

						AssertEqual(addString(d, "HAHA\x00"), Handle(3))
						AssertEqual(addString(d, "HEHE\x00"), Handle(2))
						AssertEqual(d.Cap(), 4)
						AssertEqual(string(d.Bytes()), "YAYX\x00YESX\x00HAHA\x00HEHE\x00")

						AssertEqual(addString(d, "NEXT\x00"), Handle(4))
						AssertEqual(d.Cap(), 8)
						AssertNil(d.Validate())
					})
				})
			})
		})

		a.Alternative("Remove every record", func(a *A) {
			for _, h := range []Handle{1, 3, 0, 2} {
				AssertNil(d.Remove(h))
				AssertNil(d.Validate())
			}
			AssertEqual(d.Len(), 0)
			AssertEqual(len(d.Bytes()), 0)
			AssertEqual(d.Cap(), 4)
		})
	})

	Alternative("Reserve then destroy releases everything", func(a *A) {

		budget := memory.NewBudget(0)
		d := mustNew(5, WithAcquirer(budget))

		AssertNil(d.Reserve(100))
		AssertEqual(d.Cap(), 100)
		AssertEqual(d.Pages(), 1)
		AssertTrue(budget.Used() > 0)
		AssertEqual(budget.Used(), d.Accounted())

		d.Destroy()
		AssertEqual(budget.Used(), int64(0))
		AssertEqual(d.Pages(), 0)
		AssertEqual(d.Cap(), 0)

		a.Alternative("Destroy twice", func(a *A) {
			d.Destroy()
			AssertEqual(budget.Used(), int64(0))
			AssertEqual(budget.Stats().Releases, int64(1))
		})

		a.Alternative("Operations after destroy", func(a *A) {
			_, err := d.Add()
			AssertTrue(errors.Is(err, ErrDestroyed))
			AssertTrue(errors.Is(d.Reserve(10), ErrDestroyed))
			AssertTrue(errors.Is(d.Remove(0), ErrDestroyed))
			_, err = d.Get(0)
			AssertTrue(errors.Is(err, ErrInvalidHandle))
			AssertEqual(d.Len(), 0)
		})
	})
}

func TestNew_InvalidElementSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		d, err := New(size)
		AssertNil(d)
		AssertTrue(errors.Is(err, ErrInvalidElementSize))
	}
}

func TestNew_InitialCapacity(t *testing.T) {
	d := mustNew(8, WithInitialCapacity(16))

	AssertEqual(d.Cap(), 16)
	AssertEqual(d.Len(), 0)
	AssertEqual(len(d.Bytes()), 0)
	AssertNil(d.Validate())

	h, _ := d.Add()
	AssertEqual(h, Handle(0))
	AssertEqual(d.Cap(), 16)
}

func TestNew_InitialCapacityOverBudget(t *testing.T) {
	d, err := New(8, WithInitialCapacity(1000), WithAcquirer(memory.NewBudget(100)))
	AssertNil(d)
	AssertTrue(errors.Is(err, ErrAllocationFailure))
}

func TestReserve(t *testing.T) {

	Alternative("Reserve", func(a *A) {

		d := mustNew(4)

		a.Alternative("Doubles on implicit growth", func(a *A) {
			caps := []int{}
			for i := 0; i < 9; i++ {
				d.Add()
				caps = append(caps, d.Cap())
			}
			AssertEqual(caps, []int{1, 2, 4, 4, 8, 8, 8, 8, 16})
			AssertEqual(d.Pages(), 5)
			AssertNil(d.Validate())
		})

		a.Alternative("No-op when already large enough", func(a *A) {
			AssertNil(d.Reserve(10))
			version := d.Version()
			AssertNil(d.Reserve(10))
			AssertNil(d.Reserve(3))
			AssertNil(d.Reserve(0))
			AssertEqual(d.Cap(), 10)
			AssertEqual(d.Pages(), 1)
			AssertEqual(d.Version(), version)
		})

		a.Alternative("Grows to at least twice", func(a *A) {
			AssertNil(d.Reserve(10))
			AssertNil(d.Reserve(11))
			AssertEqual(d.Cap(), 20)
		})

		a.Alternative("New bytes are zero", func(a *A) {
			AssertNil(d.Reserve(4))
			for i := 0; i < 4; i++ {
				h, _ := d.Add()
				b, _ := d.Get(h)
				AssertEqual(b, []byte{0, 0, 0, 0})
			}
		})

		a.Alternative("Explicit reserve while free entries exist keeps packing", func(a *A) {
			h0 := addString(d, "aaaa")
			h1 := addString(d, "bbbb")
			addString(d, "cccc")
			AssertNil(d.Remove(h0))
			AssertNil(d.Remove(h1))
			AssertEqual(d.Len(), 1)
			AssertEqual(d.Cap(), 4)

			AssertNil(d.Reserve(32))
			AssertNil(d.Validate())

			AssertEqual(addString(d, "dddd"), h1)
			AssertEqual(addString(d, "eeee"), h0)
			AssertEqual(addString(d, "ffff"), Handle(3))
			AssertEqual(addString(d, "gggg"), Handle(4))
			AssertEqual(string(d.Bytes()), "ccccddddeeeeffffgggg")
			AssertNil(d.Validate())
		})
	})
}

func TestAllocationFailure(t *testing.T) {

	budget := memory.NewBudget(growthCost(5, 1) + growthCost(5, 1) + growthCost(5, 2))
	d := mustNew(5, WithAcquirer(budget))

	handles := []Handle{}
	for _, s := range []string{"ABCD\x00", "YESX\x00", "HMMX\x00", "TEST\x00"} {
		handles = append(handles, addString(d, s))
	}
	AssertEqual(d.Cap(), 4)
	used := budget.Used()
	version := d.Version()

	h, err := d.AddAndFill([]byte("FAIL\x00"))
	AssertEqual(h, Handle(-1))
	AssertTrue(errors.Is(err, ErrAllocationFailure))
	AssertTrue(errors.Is(err, memory.ErrLimitExceeded))

	AssertTrue(errors.Is(d.Reserve(100), ErrAllocationFailure))

	AssertEqual(d.Cap(), 4)
	AssertEqual(d.Len(), 4)
	AssertEqual(d.Version(), version)
	AssertEqual(budget.Used(), used)
	AssertEqual(getString(d, handles[0]), "ABCD\x00")
	AssertEqual(getString(d, handles[3]), "TEST\x00")
	AssertNil(d.Validate())

	// Removing makes room again without growing.
	AssertNil(d.Remove(handles[1]))
	AssertEqual(addString(d, "OKAY\x00"), handles[1])
	AssertNil(d.Validate())
}

func TestReserve_Limits(t *testing.T) {

	d := mustNew(4)
	addString(d, "ABCD")
	version := d.Version()

	// dirty slots are tracked as uint32
	err := d.Reserve(math.MaxUint32 + 1)
	AssertTrue(errors.Is(err, ErrAllocationFailure))
	AssertEqual(d.Cap(), 1)
	AssertEqual(d.Len(), 1)
	AssertEqual(d.Version(), version)
	AssertEqual(d.Accounted(), growthCost(4, 1))

	wide := mustNew(1<<20, WithoutDirtyTracking())
	err = wide.Reserve(math.MaxInt / (1 << 20))
	AssertTrue(errors.Is(err, ErrAllocationFailure))
	AssertEqual(wide.Cap(), 0)
	AssertEqual(wide.Accounted(), int64(0))
	AssertNil(wide.Validate())

	_, err = New(1<<20, WithoutDirtyTracking(), WithInitialCapacity(math.MaxInt/8))
	AssertTrue(errors.Is(err, ErrAllocationFailure))
}

func TestInvalidHandles(t *testing.T) {

	Alternative("Invalid handles", func(a *A) {

		d := mustNew(2)
		h := addString(d, "xx")
		addString(d, "yy")

		for _, bad := range []Handle{-1, 2, 100} {
			AssertFalse(d.Live(bad))
			_, err := d.Get(bad)
			AssertTrue(errors.Is(err, ErrInvalidHandle))
			_, err = d.Peek(bad)
			AssertTrue(errors.Is(err, ErrInvalidHandle))
			AssertTrue(errors.Is(d.Remove(bad), ErrInvalidHandle))
			AssertTrue(errors.Is(d.Fill(bad, []byte("zz")), ErrInvalidHandle))
			AssertTrue(errors.Is(d.Touch(bad), ErrInvalidHandle))
			_, err = d.RealIndex(bad)
			AssertTrue(errors.Is(err, ErrInvalidHandle))
		}

		a.Alternative("Removed handle is dead", func(a *A) {
			AssertNil(d.Remove(h))
			AssertFalse(d.Live(h))
			AssertTrue(errors.Is(d.Remove(h), ErrInvalidHandle))
			_, err := d.Get(h)
			AssertTrue(errors.Is(err, ErrInvalidHandle))
			AssertEqual(d.Len(), 1)
			AssertNil(d.Validate())
		})

		a.Alternative("Last record removed is dead", func(a *A) {
			AssertNil(d.Remove(1))
			AssertNil(d.Remove(h))
			AssertFalse(d.Live(h))
			AssertFalse(d.Live(1))
			AssertEqual(d.Len(), 0)
			AssertNil(d.Validate())
		})
	})
}

func TestRemove_SingleRecordIsZeroed(t *testing.T) {
	d := mustNew(3)
	h := addString(d, "abc")

	AssertNil(d.Remove(h))

	h, _ = d.Add()
	b, _ := d.Peek(h)
	AssertEqual(b, []byte{0, 0, 0})
}

func TestFillAndGet(t *testing.T) {
	d := mustNew(4)
	h := addString(d, "abcd")

	AssertNil(d.Fill(h, []byte("xy")))
	AssertEqual(getString(d, h), "xycd")

	AssertNil(d.Fill(h, []byte("123456")))
	AssertEqual(getString(d, h), "1234")

	b, _ := d.Get(h)
	AssertEqual(cap(b), 4)
	b[0] = 'z'
	AssertEqual(getString(d, h), "z234")
}

func TestEachAndView(t *testing.T) {
	d := mustNew(1)
	for _, s := range []string{"a", "b", "c", "d"} {
		addString(d, s)
	}
	d.Remove(1)

	seen := map[Handle]string{}
	order := ""
	d.Each(func(h Handle, record []byte) bool {
		seen[h] = string(record)
		order += string(record)
		return true
	})
	AssertEqual(order, "adc")
	AssertEqual(seen, map[Handle]string{0: "a", 2: "c", 3: "d"})

	count := 0
	d.Each(func(h Handle, record []byte) bool {
		count++
		return false
	})
	AssertEqual(count, 1)

	v := d.View()
	AssertEqual(v.Count, 3)
	AssertEqual(v.ElementSize, 1)
	AssertEqual(string(v.Data), "adc")
}

func TestTakeDirty(t *testing.T) {

	Alternative("Dirty slots", func(a *A) {

		d := mustNew(2)
		h0 := addString(d, "aa")
		h1 := addString(d, "bb")
		h2 := addString(d, "cc")

		AssertEqual(d.TakeDirty().ToArray(), []uint32{0, 1, 2})
		AssertTrue(d.TakeDirty().IsEmpty())

		a.Alternative("Peek does not mark", func(a *A) {
			d.Peek(h1)
			AssertTrue(d.TakeDirty().IsEmpty())
		})

		a.Alternative("Get, Fill and Touch mark", func(a *A) {
			d.Get(h2)
			d.Fill(h0, []byte("zz"))
			AssertEqual(d.TakeDirty().ToArray(), []uint32{0, 2})
			d.Touch(h1)
			AssertEqual(d.TakeDirty().ToArray(), []uint32{1})
		})

		a.Alternative("Remove marks the filled hole only", func(a *A) {
			d.Remove(h0)
			AssertEqual(d.TakeDirty().ToArray(), []uint32{0})
		})

		a.Alternative("Retired slots are clipped", func(a *A) {
			d.Get(h2)
			d.Remove(h1)
			d.Remove(h2)
			AssertTrue(d.TakeDirty().IsEmpty())
		})

		a.Alternative("Disabled tracking", func(a *A) {
			d := mustNew(2, WithoutDirtyTracking())
			addString(d, "aa")
			AssertTrue(d.TakeDirty().IsEmpty())
		})
	})
}

func TestVersion(t *testing.T) {
	d := mustNew(2)

	v0 := d.Version()
	h := addString(d, "aa")
	v1 := d.Version()
	AssertTrue(v1 > v0)

	d.Peek(h)
	AssertEqual(d.Version(), v1)

	d.Remove(h)
	AssertTrue(d.Version() > v1)
}
