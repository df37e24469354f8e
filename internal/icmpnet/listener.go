package icmpnet

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"golang.org/x/net/icmp"
)

// Datagram is one raw inbound ICMP datagram handed from a Listener to the
// demultiplexer, tagged with the address family it arrived on (needed to
// parse it with the ICMP or the ICMPv6 message-type table; neither family's
// read carries an IP header).
type Datagram struct {
	Bytes  []byte
	Source net.Addr
	IsIPv4 bool
}

// Listener runs a blocking recv loop for one address family and pumps
// inbound datagrams into a bounded channel, bridging the raw socket's
// blocking reads into the cooperative scheduler (spec §4.2, §9). There is
// no portable non-blocking raw-socket primitive, so Run is meant to be
// called on its own goroutine: the blocking syscall parks that goroutine's
// underlying OS thread without stalling anything else.
type Listener struct {
	conn   *icmp.PacketConn
	isIPv4 bool
	out    chan Datagram
	logger *slog.Logger
}

// NewListener acquires a raw ICMP socket for the given address family and
// prepares a channel of capacity bufSize for inbound datagrams.
func NewListener(isIPv4 bool, bufSize int, logger *slog.Logger) (*Listener, error) {
	conn, err := icmp.ListenPacket(network(isIPv4), listenAddr(isIPv4))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSocketAcquireFailed, err)
	}
	return &Listener{
		conn:   conn,
		isIPv4: isIPv4,
		out:    make(chan Datagram, bufSize),
		logger: logger,
	}, nil
}

// Datagrams returns the channel inbound datagrams are delivered on. It is
// closed when Run returns.
func (l *Listener) Datagrams() <-chan Datagram { return l.out }

// Close closes the underlying socket, which unblocks Run's pending read
// with a closed-connection error.
func (l *Listener) Close() error { return l.conn.Close() }

// Run blocks, reading datagrams until a fatal error (broken pipe,
// unexpected EOF, or the socket being closed) ends the loop. Transient
// errors (would-block, ENOBUFS, and similar) are logged and the loop
// continues, per spec §7's ReadFatal/ReadTransient split. The channel
// drops the newest datagram (rather than blocking the read loop) when
// full.
func (l *Listener) Run() {
	defer close(l.out)

	buf := make([]byte, 2048)
	for {
		n, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			if isFatalReadError(err) {
				return
			}
			if l.logger != nil {
				l.logger.Debug("icmpnet: transient read error, continuing", "err", err)
			}
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		select {
		case l.out <- Datagram{Bytes: datagram, Source: addr, IsIPv4: l.isIPv4}:
		default:
			if l.logger != nil {
				l.logger.Warn("icmpnet: listener channel full, dropping datagram")
			}
		}
	}
}

func isFatalReadError(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}
