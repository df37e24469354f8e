package server

import (
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pingxelflut/pingxelflut/internal/demux"
	"github.com/pingxelflut/pingxelflut/internal/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleSetPixelWritesToCanvasQueue(t *testing.T) {
	s := New(Config{Width: 10, Height: 10}, discardLogger())

	event := demux.Event{
		Packet: wire.SetPixelPacket(2, 3, wire.Color{R: 1, G: 2, B: 3, A: 0xFF}),
		Source: net.ParseIP("192.0.2.1"),
	}
	s.dispatchDecoded(event)

	s.canvas.FlushQueueIntoFrame()
	frame, release := s.canvas.FramebufferReadHandle()
	defer release()
	offset := (3*10 + 2) * 4
	assert.Equal(t, []byte{1, 2, 3, 0xFF}, frame[offset:offset+4])
}

func TestHandleSizeResponseIsIgnored(t *testing.T) {
	s := New(Config{Width: 10, Height: 10}, discardLogger())
	event := demux.Event{
		Packet: wire.SizeResponsePacket(10, 10),
		Source: net.ParseIP("192.0.2.1"),
	}
	assert.NotPanics(t, func() { s.dispatchDecoded(event) })
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(Config{Width: 10, Height: 10}, discardLogger())
	assert.Equal(t, 64, s.cfg.DispatchWorkers)
	assert.Equal(t, 4096, s.cfg.ListenerBacklog)
}
