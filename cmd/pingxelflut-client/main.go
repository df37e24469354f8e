// pingxelflut-client — floods a Pingxelflut server with an image,
// repeatedly, until interrupted.
//
// Usage:
//
//	pingxelflut-client --target <address> --image <path> [flags]
//
// Flags:
//
//	--target string          server hostname or IP address (required)
//	--image string            path to the image to flood (required)
//	--offset-x, --offset-y   draw offset in pixels (default 0,0)
//	--no-query-size           skip the size query; requires --width/--height
//	--width, --height         canvas dimension override for --no-query-size
//	--query-timeout dur      size-query timeout (default 2s)
//	--workers int            pixel-send worker pool size (default 256)
//	--verbose                 verbose debug logging
package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/alitto/pond/v2"

	"github.com/pingxelflut/pingxelflut/internal/client"
	"github.com/pingxelflut/pingxelflut/internal/config"
	"github.com/pingxelflut/pingxelflut/internal/logging"
	"github.com/pingxelflut/pingxelflut/internal/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.ParseClientFlags(os.Args[1:])
	if err != nil {
		return err
	}
	log := logging.New(cfg.Verbose)

	ips, err := net.LookupIP(cfg.Target)
	if err != nil || len(ips) == 0 {
		return fmt.Errorf("resolve target %q: %w", cfg.Target, err)
	}
	target := ips[0]

	f, err := os.Open(cfg.Image)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	img, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	log.Info("image loaded", "format", format, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	width, height := cfg.Width, cfg.Height
	if !cfg.NoQuerySize {
		width, height, err = client.GetSize(target, cfg.QueryTimeout)
		if err != nil {
			return fmt.Errorf("query canvas size: %w", err)
		}
		log.Info("server canvas size", "width", width, "height", height)
	}

	bounds := img.Bounds()
	maxX := min(bounds.Dx(), int(width))
	maxY := min(bounds.Dy(), int(height))
	hasAlpha := imageHasTransparency(img)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := pond.NewPool(cfg.Workers)
	defer pool.StopAndWait()

	log.Info("flooding started", "target", target, "columns", maxX, "rows", maxY)
	for pass := 0; ; pass++ {
		select {
		case <-ctx.Done():
			log.Info("flooding stopped", "passes", pass)
			return nil
		default:
		}

		group := pool.NewGroup()
		for x := 0; x < maxX; x++ {
			x := x
			group.Submit(func() {
				for y := 0; y < maxY; y++ {
					color := pixelColor(img, x, y, hasAlpha)
					if err := client.SetPixel(target, uint16(x)+cfg.OffsetX, uint16(y)+cfg.OffsetY, color); err != nil {
						log.Debug("set pixel failed", "x", x, "y", y, "err", err)
					}
				}
			})
		}
		group.Wait()
	}
}

// imageHasTransparency mirrors the original client's check: any decoded
// image whose concrete pixel type carries an alpha channel is treated as
// potentially transparent, so per-pixel alpha is forwarded instead of
// assumed opaque. color.Model values wrap functions and are not safe to
// compare with ==, so this switches on the image's concrete type instead.
func imageHasTransparency(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Alpha, *image.Alpha16:
		return true
	default:
		return false
	}
}

func pixelColor(img image.Image, x, y int, hasAlpha bool) wire.Color {
	r, g, b, a := img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y).RGBA()
	c := wire.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
	if hasAlpha {
		c.A = uint8(a >> 8)
	} else {
		c.A = 0xFF
	}
	return c
}
