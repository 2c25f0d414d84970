// Package memory accounts the bytes dense arrays grow into and enforces an
// optional hard limit shared by all of them.
package memory

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrLimitExceeded is returned when an acquisition would cross the limit.
var ErrLimitExceeded = errors.New("memory limit exceeded")

// Budget is safe for concurrent use. A zero limit only tracks usage.
type Budget struct {
	limit int64
	sem   *semaphore.Weighted // nil if unlimited

	used     atomic.Int64
	peak     atomic.Int64
	acquires atomic.Int64
	releases atomic.Int64
	refused  atomic.Int64
}

func NewBudget(limit int64) *Budget {
	b := &Budget{
		limit: limit,
	}
	if limit > 0 {
		b.sem = semaphore.NewWeighted(limit)
	}
	return b
}

// AcquireMemory reserves bytes without blocking.
func (b *Budget) AcquireMemory(bytes int64) error {
	if b == nil || bytes <= 0 {
		return nil
	}

	if b.sem != nil && !b.sem.TryAcquire(bytes) {
		b.refused.Add(1)
		return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrLimitExceeded, bytes, b.used.Load(), b.limit)
	}

	used := b.used.Add(bytes)
	b.acquires.Add(1)
	for {
		peak := b.peak.Load()
		if used <= peak || b.peak.CompareAndSwap(peak, used) {
			break
		}
	}
	return nil
}

func (b *Budget) ReleaseMemory(bytes int64) {
	if b == nil || bytes <= 0 {
		return
	}
	if b.sem != nil {
		b.sem.Release(bytes)
	}
	b.used.Add(-bytes)
	b.releases.Add(1)
}

type Stats struct {
	Limit    int64 `json:"limit"`
	Used     int64 `json:"used"`
	Peak     int64 `json:"peak"`
	Acquires int64 `json:"acquires"`
	Releases int64 `json:"releases"`
	Refused  int64 `json:"refused"`
}

func (b *Budget) Stats() Stats {
	if b == nil {
		return Stats{}
	}
	return Stats{
		Limit:    b.limit,
		Used:     b.used.Load(),
		Peak:     b.peak.Load(),
		Acquires: b.acquires.Load(),
		Releases: b.releases.Load(),
		Refused:  b.refused.Load(),
	}
}

func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used.Load()
}

func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}
