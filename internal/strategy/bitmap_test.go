package strategy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmapSetAndClear(t *testing.T) {
	bm := NewBitmap(10)
	assert.False(t, bm.IsSet(3))

	bm.SetBit(3)
	assert.True(t, bm.IsSet(3))
	assert.False(t, bm.IsSet(4))

	bm.SetRange(5, 8)
	assert.True(t, bm.IsSet(5))
	assert.True(t, bm.IsSet(6))
	assert.True(t, bm.IsSet(7))
	assert.False(t, bm.IsSet(8))

	clear := bm.ClearBits()
	assert.Equal(t, []uint64{0, 1, 2, 4, 8, 9}, clear)
}

// TestBitmapConcurrentSetBitIdempotent mirrors spec §5's claim that
// concurrent SetBit races are tolerated because setting a bit twice is
// idempotent.
func TestBitmapConcurrentSetBitIdempotent(t *testing.T) {
	bm := NewBitmap(64)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bm.SetBit(42)
		}()
	}
	wg.Wait()
	assert.True(t, bm.IsSet(42))
}
