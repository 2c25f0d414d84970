// Package densearray implements a fixed-record dense array with stable handles.
//
// Records are equal-size byte slots kept packed in one contiguous buffer: a
// removal moves the last live record into the hole, so the region
// [0, Len()*ElementSize()) always holds exactly the live records and can be
// handed to a bulk consumer as is. Callers address records through handles
// (virtual indexes) that two translation maps resolve to the current slot, so
// a handle never changes while its record moves around.
//
// A DenseArray is not safe for concurrent use.
package densearray

import (
	"fmt"
	"math"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
)

const intBytes = strconv.IntSize / 8

// Handle identifies one record from Add until the matching Remove.
type Handle int

// Acquirer accounts the memory an array grows into. A refusal makes the growth
// step fail with ErrAllocationFailure.
type Acquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// View is the packed region as seen by a bulk consumer. Data aliases the
// array buffer and is only valid until the next mutation.
type View struct {
	Data        []byte
	Count       int
	ElementSize int
}

type DenseArray struct {
	elementSize int
	capacity    int
	live        int

	data          []byte
	virtualToReal []int
	realToVirtual []int
	scratch       []byte

	free  stack
	spare stack
	pages pages

	acquirer  Acquirer
	accounted int64

	dirty     *dirtySlots
	version   uint64
	destroyed bool

	initialCapacity int
}

type Option func(*DenseArray)

// WithAcquirer makes every growth step acquire its bytes from acquirer first.
func WithAcquirer(acquirer Acquirer) Option {
	return func(a *DenseArray) {
		a.acquirer = acquirer
	}
}

// WithoutDirtyTracking disables the per-slot dirty set; TakeDirty then always
// returns an empty bitmap.
func WithoutDirtyTracking() Option {
	return func(a *DenseArray) {
		a.dirty = nil
	}
}

// WithInitialCapacity reserves n records at construction.
func WithInitialCapacity(n int) Option {
	return func(a *DenseArray) {
		a.initialCapacity = n
	}
}

func New(elementSize int, options ...Option) (*DenseArray, error) {
	if elementSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidElementSize, elementSize)
	}

	a := &DenseArray{
		elementSize: elementSize,
		scratch:     make([]byte, elementSize),
		dirty:       newDirtySlots(),
	}
	for _, option := range options {
		option(a)
	}

	if a.initialCapacity > 0 {
		if err := a.Reserve(a.initialCapacity); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *DenseArray) ElementSize() int { return a.elementSize }
func (a *DenseArray) Cap() int         { return a.capacity }
func (a *DenseArray) Len() int         { return a.live }

// Version increases on every operation that may have changed the packed
// region.
func (a *DenseArray) Version() uint64 { return a.version }

// Pages returns how many node pages the array owns, one per growth step.
func (a *DenseArray) Pages() int { return a.pages.count }

// Accounted returns the bytes currently acquired for buffer, maps and pages.
func (a *DenseArray) Accounted() int64 { return a.accounted }

func growthCost(elementSize, n int) int64 {
	return int64(n)*int64(elementSize) + 2*int64(n)*intBytes + pageCost(n)
}

// maxRecords is the largest capacity whose buffer and maps have a size that
// fits in an int. Dirty tracking keys slots by uint32.
func (a *DenseArray) maxRecords() int {
	limit := math.MaxInt / (a.elementSize + 2*intBytes)
	if a.dirty != nil && limit > math.MaxUint32 {
		limit = math.MaxUint32
	}
	return limit
}

// Reserve makes room for at least n records. Capacity grows to
// max(n, 2*Cap()) so repeated single-record growth stays amortized O(1).
func (a *DenseArray) Reserve(n int) error {
	if a.destroyed {
		return ErrDestroyed
	}
	if a.capacity >= n {
		return nil
	}

	limit := a.maxRecords()
	if n > limit {
		return fmt.Errorf("reserve %d records: %w: at most %d records of %d bytes", n, ErrAllocationFailure, limit, a.elementSize)
	}

	target := n
	if 2*a.capacity > target {
		target = min(2*a.capacity, limit)
	}
	grow := target - a.capacity

	cost := growthCost(a.elementSize, grow)
	if a.acquirer != nil {
		if err := a.acquirer.AcquireMemory(cost); err != nil {
			return fmt.Errorf("reserve %d records: %w (%w)", target, ErrAllocationFailure, err)
		}
	}
	a.accounted += cost

	// make zero-fills, so bytes [old size, new size) start out as zero.
	data := make([]byte, target*a.elementSize)
	copy(data, a.data)

	virtualToReal := make([]int, target)
	copy(virtualToReal, a.virtualToReal)
	realToVirtual := make([]int, target)
	copy(realToVirtual, a.realToVirtual)

	nodes := a.pages.allocate(grow)
	for i := range nodes {
		nodes[i].virtual = target - 1 - i
		nodes[i].real = target - 1 - i
	}
	// nodes[grow-1] carries the lowest new index and must be handed out first.
	for i := grow - 1; i > 0; i-- {
		nodes[i].next = &nodes[i-1]
	}
	a.free.appendChain(&nodes[grow-1], &nodes[0], grow)

	a.data = data
	a.virtualToReal = virtualToReal
	a.realToVirtual = realToVirtual
	a.capacity = target

	return nil
}

// Add takes a handle from the free list, growing first when it is empty. The
// new record keeps whatever bytes its slot held: zero right after a growth,
// stale bytes of a removed record otherwise.
func (a *DenseArray) Add() (Handle, error) {
	if a.destroyed {
		return -1, ErrDestroyed
	}

	if a.free.top == nil {
		if err := a.Reserve(a.live + 1); err != nil {
			return -1, err
		}
	}

	n := a.free.pop()
	h := n.virtual
	a.virtualToReal[h] = n.real
	a.realToVirtual[n.real] = h

	n.virtual, n.real = -1, -1
	a.spare.push(n)

	a.live++
	a.touch(a.virtualToReal[h])

	return Handle(h), nil
}

// AddAndFill adds a record and copies min(len(payload), ElementSize()) bytes
// into it. Bytes past the payload are left as the slot had them.
func (a *DenseArray) AddAndFill(payload []byte) (Handle, error) {
	h, err := a.Add()
	if err != nil {
		return h, err
	}
	copy(a.record(a.virtualToReal[h]), payload)
	return h, nil
}

// Remove frees h. The last live record is swapped into the vacated slot and
// keeps its own handle.
func (a *DenseArray) Remove(h Handle) error {
	if a.destroyed {
		return ErrDestroyed
	}
	if !a.Live(h) {
		return fmt.Errorf("remove %d: %w", h, ErrInvalidHandle)
	}

	n := a.spare.pop()

	removed := a.virtualToReal[h]
	last := a.live - 1

	if a.live > 1 {
		a.swap(removed, last)
		moved := a.realToVirtual[last]
		a.realToVirtual[removed] = moved
		a.virtualToReal[moved] = removed
		n.real = last
		a.touch(removed)
	} else {
		clear(a.record(removed))
		n.real = removed
		a.version++
	}

	n.virtual = int(h)
	a.free.push(n)
	a.live--

	return nil
}

// Live reports whether h currently names a record.
func (a *DenseArray) Live(h Handle) bool {
	if h < 0 || int(h) >= a.capacity {
		return false
	}
	r := a.virtualToReal[h]
	return r < a.live && a.realToVirtual[r] == int(h)
}

// RealIndex returns the slot currently holding h.
func (a *DenseArray) RealIndex(h Handle) (int, error) {
	if !a.Live(h) {
		return -1, fmt.Errorf("real index of %d: %w", h, ErrInvalidHandle)
	}
	return a.virtualToReal[h], nil
}

// Get returns the record bytes of h for reading and writing. The slot is
// marked dirty. The slice must not be kept across Add, Remove or Reserve.
func (a *DenseArray) Get(h Handle) ([]byte, error) {
	if !a.Live(h) {
		return nil, fmt.Errorf("get %d: %w", h, ErrInvalidHandle)
	}
	r := a.virtualToReal[h]
	a.touch(r)
	return a.record(r), nil
}

// Peek is Get for readers: the slot is not marked dirty.
func (a *DenseArray) Peek(h Handle) ([]byte, error) {
	if !a.Live(h) {
		return nil, fmt.Errorf("peek %d: %w", h, ErrInvalidHandle)
	}
	return a.record(a.virtualToReal[h]), nil
}

// Fill copies min(len(payload), ElementSize()) bytes into the record of h.
func (a *DenseArray) Fill(h Handle, payload []byte) error {
	b, err := a.Get(h)
	if err != nil {
		return err
	}
	copy(b, payload)
	return nil
}

// Touch marks the record of h dirty after a write made through a slice
// obtained with Peek.
func (a *DenseArray) Touch(h Handle) error {
	if !a.Live(h) {
		return fmt.Errorf("touch %d: %w", h, ErrInvalidHandle)
	}
	a.touch(a.virtualToReal[h])
	return nil
}

// Each calls f for every live record in slot order until f returns false.
func (a *DenseArray) Each(f func(h Handle, record []byte) bool) {
	for r := 0; r < a.live; r++ {
		if !f(Handle(a.realToVirtual[r]), a.record(r)) {
			return
		}
	}
}

// Bytes returns the packed region holding the live records.
func (a *DenseArray) Bytes() []byte {
	return a.data[:a.live*a.elementSize]
}

func (a *DenseArray) View() View {
	return View{
		Data:        a.Bytes(),
		Count:       a.live,
		ElementSize: a.elementSize,
	}
}

// TakeDirty returns the live slots touched since the previous call and starts
// a new dirty set.
func (a *DenseArray) TakeDirty() *roaring.Bitmap {
	return a.dirty.take(a.live)
}

// Destroy releases the buffer, the maps and every node page. It is safe to
// call more than once; afterwards all other operations fail with ErrDestroyed.
func (a *DenseArray) Destroy() {
	if a.destroyed {
		return
	}

	a.pages.release()
	a.free.reset()
	a.spare.reset()

	a.data = nil
	a.virtualToReal = nil
	a.realToVirtual = nil
	a.scratch = nil
	a.capacity = 0
	a.live = 0
	a.dirty.reset()

	if a.acquirer != nil && a.accounted > 0 {
		a.acquirer.ReleaseMemory(a.accounted)
	}
	a.accounted = 0
	a.destroyed = true
	a.version++
}

func (a *DenseArray) record(real int) []byte {
	offset := real * a.elementSize
	end := offset + a.elementSize
	return a.data[offset:end:end]
}

func (a *DenseArray) swap(i, j int) {
	if i == j {
		return
	}
	x, y := a.record(i), a.record(j)
	copy(a.scratch, x)
	copy(x, y)
	copy(y, a.scratch)
}

func (a *DenseArray) touch(real int) {
	a.version++
	a.dirty.mark(real)
}
