// Package server wires the ICMP engine, demultiplexer, and canvas
// together: one listener per address family, one dispatcher per listener,
// and the SizeRequest/SetPixel/SizeResponse handling of spec §4.5.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/alitto/pond/v2"

	"github.com/pingxelflut/pingxelflut/internal/canvas"
	"github.com/pingxelflut/pingxelflut/internal/demux"
	"github.com/pingxelflut/pingxelflut/internal/icmpnet"
	"github.com/pingxelflut/pingxelflut/internal/wire"
)

// Config holds the process-constant canvas dimensions and dispatch tuning
// (spec §6's "configuration" bullet).
type Config struct {
	Width, Height uint16

	// DispatchWorkers bounds the pool of goroutines that decode and
	// handle inbound datagrams. Defaults to 64 if zero.
	DispatchWorkers int

	// ListenerBacklog bounds each listener's inbound channel. Defaults
	// to 4096 if zero.
	ListenerBacklog int
}

// Server owns the canvas and the per-family listener/dispatcher pairs.
type Server struct {
	cfg       Config
	canvas    *canvas.Canvas
	logger    *slog.Logger
	listeners []*icmpnet.Listener
	pool      pond.Pool
}

// New constructs a Server. It does not start listening until Run is
// called.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.DispatchWorkers <= 0 {
		cfg.DispatchWorkers = 64
	}
	if cfg.ListenerBacklog <= 0 {
		cfg.ListenerBacklog = 4096
	}
	return &Server{
		cfg:    cfg,
		canvas: canvas.New(cfg.Width, cfg.Height),
		logger: logger,
		pool:   pond.NewPool(cfg.DispatchWorkers),
	}
}

// Canvas returns the server's canvas, for the presenter to read and flush.
func (s *Server) Canvas() *canvas.Canvas { return s.canvas }

// Run spawns one listener and one dispatcher per address family and
// blocks until ctx is canceled. An IPv4 listener failing to start is
// fatal (raw-socket privilege is assumed available); an IPv6 listener
// failing to start is logged and the server continues IPv4-only, since
// dual-stack availability varies by host (spec §7: SocketAcquireFailed is
// a fatal startup error, but spec §2 only requires "a listener per
// address family" where that family is usable).
func (s *Server) Run(ctx context.Context) error {
	v4, err := icmpnet.NewListener(true, s.cfg.ListenerBacklog, s.logger)
	if err != nil {
		return fmt.Errorf("server: start ipv4 listener: %w", err)
	}
	s.listeners = append(s.listeners, v4)
	go v4.Run()
	go s.dispatch(v4)

	v6, err := icmpnet.NewListener(false, s.cfg.ListenerBacklog, s.logger)
	if err != nil {
		s.logger.Warn("server: ipv6 listener unavailable, continuing ipv4-only", "err", err)
	} else {
		s.listeners = append(s.listeners, v6)
		go v6.Run()
		go s.dispatch(v6)
	}

	<-ctx.Done()

	for _, l := range s.listeners {
		_ = l.Close()
	}
	s.pool.StopAndWait()
	return nil
}

func (s *Server) dispatch(l *icmpnet.Listener) {
	for d := range l.Datagrams() {
		d := d
		s.pool.Submit(func() {
			s.handle(d)
		})
	}
}

func (s *Server) handle(d icmpnet.Datagram) {
	event, ok := demux.Decode(d, s.logger)
	if !ok {
		return
	}
	s.dispatchDecoded(event)
}

func (s *Server) dispatchDecoded(event demux.Event) {
	switch event.Packet.Tag {
	case wire.TagSetPixel:
		s.canvas.SetPixel(event.Packet.X, event.Packet.Y, event.Packet.Color)

	case wire.TagSizeRequest:
		s.replySize(event.Source)

	case wire.TagSizeResponse:
		// The server is not a client; ignore (spec §4.5).
	}
}

// replySize sends a SizeResponse Echo Reply to target with identifier 0,
// per spec §4.5 and §9(b). Send errors are logged at warn and swallowed.
func (s *Server) replySize(target net.IP) {
	payload := make([]byte, wire.MaxEncodedSize)
	n, err := wire.Encode(wire.SizeResponsePacket(s.cfg.Width, s.cfg.Height), payload)
	if err != nil {
		s.logger.Warn("server: encode size response", "err", err)
		return
	}

	frame := icmpnet.NewFrame(target, 0, icmpnet.Reply)
	frame.SetPayload(payload[:n])

	conn, err := frame.Send()
	if err != nil {
		s.logger.Warn("server: size response send failed", "target", target, "err", err)
		return
	}
	_ = conn.Close()
}
