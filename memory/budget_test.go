package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_Unlimited(t *testing.T) {
	b := NewBudget(0)

	require.NoError(t, b.AcquireMemory(1<<40))
	assert.Equal(t, int64(1<<40), b.Used())

	b.ReleaseMemory(1 << 40)
	assert.Equal(t, int64(0), b.Used())
	assert.Equal(t, int64(1<<40), b.Stats().Peak)
}

func TestBudget_Limit(t *testing.T) {
	b := NewBudget(100)

	require.NoError(t, b.AcquireMemory(60))

	err := b.AcquireMemory(50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.Equal(t, int64(60), b.Used())

	b.ReleaseMemory(60)
	require.NoError(t, b.AcquireMemory(100))

	stats := b.Stats()
	assert.Equal(t, int64(100), stats.Limit)
	assert.Equal(t, int64(100), stats.Used)
	assert.Equal(t, int64(2), stats.Acquires)
	assert.Equal(t, int64(1), stats.Releases)
	assert.Equal(t, int64(1), stats.Refused)
}

func TestBudget_IgnoresNonPositive(t *testing.T) {
	b := NewBudget(10)

	assert.NoError(t, b.AcquireMemory(0))
	assert.NoError(t, b.AcquireMemory(-5))
	b.ReleaseMemory(-5)

	assert.Equal(t, int64(0), b.Used())
	assert.Equal(t, int64(0), b.Stats().Acquires)
}

func TestBudget_Nil(t *testing.T) {
	var b *Budget

	assert.NoError(t, b.AcquireMemory(10))
	b.ReleaseMemory(10)
	assert.Equal(t, int64(0), b.Used())
	assert.Equal(t, Stats{}, b.Stats())
}

func TestBudget_Concurrent(t *testing.T) {
	b := NewBudget(1000)

	wg := &sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if b.AcquireMemory(10) == nil {
					b.ReleaseMemory(10)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(0), b.Used())
	assert.LessOrEqual(t, b.Stats().Peak, int64(1000))
}
