// Package client implements the two wire operations a Pingxelflut
// collaborator issues against a server: querying its canvas size and
// setting pixels. See spec §6 and the identifier convention documented in
// SPEC_FULL.md's Supplemented Features.
package client

import (
	"errors"
	"net"
	"time"

	"golang.org/x/net/icmp"

	"github.com/pingxelflut/pingxelflut/internal/icmpnet"
	"github.com/pingxelflut/pingxelflut/internal/wire"
)

// Identifier values reserved by convention: 0 marks a size query/response
// exchange, 1 marks a set-pixel fire-and-forget datagram. Servers don't
// interpret these; only this client package and its original Rust
// counterpart do.
const (
	sizeQueryIdentifier = 0
	setPixelIdentifier  = 1
	readBufferSize      = 1500
)

// ErrSizeQueryTimeout is returned by GetSize when no SizeResponse arrives
// before the deadline.
var ErrSizeQueryTimeout = errors.New("client: size query timed out")

// GetSize sends a SizeRequest to target and waits up to timeout for a
// matching SizeResponse, returning the server's advertised canvas
// dimensions.
func GetSize(target net.IP, timeout time.Duration) (width, height uint16, err error) {
	payload := make([]byte, wire.MaxEncodedSize)
	n, err := wire.Encode(wire.SizeRequestPacket(), payload)
	if err != nil {
		return 0, 0, err
	}

	frame := icmpnet.NewFrame(target, sizeQueryIdentifier, icmpnet.Request)
	frame.SetPayload(payload[:n])

	conn, err := frame.Send()
	if err != nil {
		return 0, 0, err
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	buf := make([]byte, readBufferSize)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return 0, 0, err
		}
		nRead, _, err := conn.ReadFrom(buf)
		if err != nil {
			return 0, 0, ErrSizeQueryTimeout
		}

		packet, ok := extractPacket(target.To4() != nil, buf[:nRead])
		if !ok {
			continue
		}
		if packet.Tag != wire.TagSizeResponse {
			continue
		}
		return packet.Width, packet.Height, nil
	}
}

// SetPixel fires a single SetPixel datagram at target. It is
// fire-and-forget: the wire protocol defines no acknowledgement for this
// operation (spec §6).
func SetPixel(target net.IP, x, y uint16, color wire.Color) error {
	payload := make([]byte, wire.MaxEncodedSize)
	n, err := wire.Encode(wire.SetPixelPacket(x, y, color), payload)
	if err != nil {
		return err
	}

	frame := icmpnet.NewFrame(target, setPixelIdentifier, icmpnet.Request)
	frame.SetPayload(payload[:n])

	conn, err := frame.Send()
	if err != nil {
		return err
	}
	return conn.Close()
}

// extractPacket pulls a wire.Packet out of a raw read from an
// icmp.PacketConn. icmp.PacketConn already strips the IP header for IPv4
// reads and delivers the ICMPv6 message directly for IPv6 reads, so, as in
// the server-side demultiplexer, the address family only selects which
// ICMP message-type table to parse with.
func extractPacket(isIPv4 bool, raw []byte) (wire.Packet, bool) {
	proto := icmpnet.ProtocolICMP
	if !isIPv4 {
		proto = icmpnet.ProtocolICMPv6
	}

	msg, err := icmp.ParseMessage(proto, raw)
	if err != nil {
		return wire.Packet{}, false
	}

	echo, ok := msg.Body.(*icmp.Echo)
	if !ok {
		return wire.Packet{}, false
	}

	packet, err := wire.Decode(echo.Data)
	if err != nil {
		return wire.Packet{}, false
	}
	return packet, true
}
