package canvas

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pingxelflut/pingxelflut/internal/wire"
)

func TestSetPixelOutOfBoundsDropped(t *testing.T) {
	c := New(1920, 1080)
	c.SetPixel(65535, 65535, wire.Color{R: 1, G: 2, B: 3, A: 0xFF})
	c.FlushQueueIntoFrame()

	frame, release := c.FramebufferReadHandle()
	defer release()
	for _, b := range frame {
		assert.Zero(t, b)
	}
}

func TestSetPixelZeroAlphaDropped(t *testing.T) {
	c := New(4, 4)
	c.SetPixel(0, 0, wire.Color{R: 0xAA, G: 0xBB, B: 0xCC, A: 0})
	c.FlushQueueIntoFrame()

	frame, release := c.FramebufferReadHandle()
	defer release()
	assert.Equal(t, []byte{0, 0, 0, 0}, frame[0:4])
}

// TestScenarioS2PixelOffset matches spec §8 scenario S2: x=16, y=32, red,
// on a 1920x1080 canvas, lands at byte offset 245824.
func TestScenarioS2PixelOffset(t *testing.T) {
	c := New(1920, 1080)
	c.SetPixel(16, 32, wire.Color{R: 0xFF, G: 0, B: 0, A: 0xFF})
	c.FlushQueueIntoFrame()

	frame, release := c.FramebufferReadHandle()
	defer release()
	offset := (32*1920 + 16) * 4
	assert.Equal(t, 245824, offset)
	assert.Equal(t, []byte{0xFF, 0x00, 0x00, 0xFF}, frame[offset:offset+4])
}

// TestScenarioS6LastWriteWins matches spec §8 scenario S6: two writes to
// the same coordinate, flushed once, leaves the later color.
func TestScenarioS6LastWriteWins(t *testing.T) {
	c := New(10, 10)
	red := wire.Color{R: 0xFF, A: 0xFF}
	blue := wire.Color{B: 0xFF, A: 0xFF}

	c.SetPixel(5, 5, red)
	c.SetPixel(5, 5, blue)
	c.FlushQueueIntoFrame()

	frame, release := c.FramebufferReadHandle()
	defer release()
	offset := (5*10 + 5) * 4
	assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0xFF}, frame[offset:offset+4])
}

func TestFlushIsIdempotentOnEmptyQueue(t *testing.T) {
	c := New(2, 2)
	c.FlushQueueIntoFrame()
	c.FlushQueueIntoFrame()
	frame, release := c.FramebufferReadHandle()
	defer release()
	assert.Len(t, frame, 16)
}

// TestConcurrentProducersAndFlush exercises the concurrency invariant:
// many producers can call SetPixel concurrently with each other and with
// a concurrent flush, without data races or panics.
func TestConcurrentProducersAndFlush(t *testing.T) {
	c := New(100, 100)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			x := uint16(n % 100)
			y := uint16(n / 2 % 100)
			c.SetPixel(x, y, wire.Color{R: uint8(n), A: 0xFF})
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.FlushQueueIntoFrame()
	}()

	wg.Wait()
	c.FlushQueueIntoFrame()

	frame, release := c.FramebufferReadHandle()
	defer release()
	assert.Len(t, frame, 100*100*4)
}
