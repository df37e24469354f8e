// Package present implements the minimal, non-GUI framebuffer observer
// described in SPEC_FULL.md: a periodic snapshot writer standing in for
// the original implementation's interactive window (out of scope per
// spec §1).
package present

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/pingxelflut/pingxelflut/internal/canvas"
)

// Snapshotter periodically flushes a canvas's pixel queue into its
// framebuffer and writes the framebuffer out as a PNG file.
type Snapshotter struct {
	Canvas   *canvas.Canvas
	Path     string
	Interval time.Duration
	Logger   *slog.Logger
}

// Tick drains the canvas's pending pixel queue into its framebuffer. It
// is exposed separately from Present so callers can flush at a different
// cadence than they snapshot, if desired.
func (s *Snapshotter) Tick() {
	s.Canvas.FlushQueueIntoFrame()
}

// Present encodes the canvas's current framebuffer as a PNG and writes it
// to Path, replacing any previous file there.
func (s *Snapshotter) Present() error {
	frame, release := s.Canvas.FramebufferReadHandle()
	defer release()

	img := image.NewRGBA(image.Rect(0, 0, int(s.Canvas.Width()), int(s.Canvas.Height())))
	copy(img.Pix, frame)

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("present: create snapshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("present: encode snapshot png: %w", err)
	}
	return nil
}

// Run ticks and presents on Interval until ctx is canceled, logging
// (rather than failing) any individual Present error so a transient
// filesystem problem doesn't take down the snapshotter goroutine.
func (s *Snapshotter) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
			if err := s.Present(); err != nil && s.Logger != nil {
				s.Logger.Warn("present: snapshot failed", "err", err)
			}
		}
	}
}
