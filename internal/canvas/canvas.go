// Package canvas implements the shared RGBA framebuffer and the
// multi-producer/single-consumer pixel queue that feeds it. See spec §4.4.
package canvas

import (
	"sync"

	"github.com/pingxelflut/pingxelflut/internal/wire"
)

type pendingPixel struct {
	offset int
	color  wire.Color
}

// Canvas is a fixed-size RGBA framebuffer, row-major, 4 bytes per pixel,
// owned for the lifetime of the process that creates it.
type Canvas struct {
	width, height uint16

	frameMu     sync.RWMutex
	framebuffer []byte

	queueMu sync.Mutex
	queue   []pendingPixel
}

// New allocates a Canvas of the given dimensions, zero-initialized
// (fully transparent black).
func New(width, height uint16) *Canvas {
	return &Canvas{
		width:       width,
		height:      height,
		framebuffer: make([]byte, int(width)*int(height)*4),
	}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() uint16 { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() uint16 { return c.height }

// SetPixel enqueues a pixel write without blocking. Fully transparent
// colors and out-of-bounds coordinates are dropped silently — this is the
// entire alpha policy; there is no blending (spec §4.4).
func (c *Canvas) SetPixel(x, y uint16, color wire.Color) {
	if color.Transparent() {
		return
	}
	if x >= c.width || y >= c.height {
		return
	}

	offset := (int(y)*int(c.width) + int(x)) * 4
	c.queueMu.Lock()
	c.queue = append(c.queue, pendingPixel{offset: offset, color: color})
	c.queueMu.Unlock()
}

// FlushQueueIntoFrame drains the pending-pixel queue into the framebuffer.
// It must be called exclusively by the render consumer: it acquires the
// framebuffer write lock once for the whole drain, so later writes to the
// same offset overwrite earlier ones in dequeue order (spec §4.4).
func (c *Canvas) FlushQueueIntoFrame() {
	c.queueMu.Lock()
	pending := c.queue
	c.queue = nil
	c.queueMu.Unlock()

	if len(pending) == 0 {
		return
	}

	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	for _, px := range pending {
		c.framebuffer[px.offset] = px.color.R
		c.framebuffer[px.offset+1] = px.color.G
		c.framebuffer[px.offset+2] = px.color.B
		c.framebuffer[px.offset+3] = px.color.A
	}
}

// FramebufferReadHandle returns the current framebuffer under a read lock
// and a release function the caller must invoke when done inspecting it.
// Any number of readers may hold this concurrently with each other; they
// are mutually exclusive only with FlushQueueIntoFrame (spec §4.4, §5).
func (c *Canvas) FramebufferReadHandle() (frame []byte, release func()) {
	c.frameMu.RLock()
	return c.framebuffer, c.frameMu.RUnlock
}
