// Package demux demultiplexes raw inbound ICMP datagrams into decoded
// Pingxelflut events. See spec §4.3.
package demux

import (
	"log/slog"
	"net"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/pingxelflut/pingxelflut/internal/icmpnet"
	"github.com/pingxelflut/pingxelflut/internal/wire"
)

// Event is a decoded Pingxelflut packet paired with the address it
// arrived from. Source is taken from the socket-level address: the
// PacketConn read never includes an IP header to parse one out of, on
// either address family (spec §4.3).
type Event struct {
	Packet wire.Packet
	Source net.IP
}

// Decode demultiplexes one raw datagram. ok is false for anything that
// isn't a decodable Pingxelflut Echo Request: callers must silently drop
// those, per spec §4.3's failure policy — any parse error, non-Request
// ICMP type, or malformed payload is not logged above debug level.
func Decode(d icmpnet.Datagram, logger *slog.Logger) (Event, bool) {
	msg, err := icmp.ParseMessage(protocolFor(d.IsIPv4), d.Bytes)
	if err != nil {
		return Event{}, false
	}

	if d.IsIPv4 {
		if msg.Type != ipv4.ICMPTypeEcho {
			return Event{}, false
		}
	} else {
		if msg.Type != ipv6.ICMPTypeEchoRequest {
			return Event{}, false
		}
	}

	echo, ok := msg.Body.(*icmp.Echo)
	if !ok {
		if logger != nil {
			logger.Warn("demux: echo message with unexpected body type")
		}
		return Event{}, false
	}

	packet, err := wire.Decode(echo.Data)
	if err != nil {
		return Event{}, false
	}

	return Event{Packet: packet, Source: sourceIP(d.Source)}, true
}

// protocolFor returns the IP protocol number icmp.ParseMessage needs to
// pick the right message-type table. icmp.ListenPacket's PacketConn
// already delivers the bare ICMP message with no IP header on both
// address families (confirmed by the teacher's SendPing and by
// client.go's extractPacket, which parse the same API's reads with no
// stripping) — there is no header to strip here.
func protocolFor(isIPv4 bool) int {
	if isIPv4 {
		return icmpnet.ProtocolICMP
	}
	return icmpnet.ProtocolICMPv6
}

func sourceIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	default:
		return nil
	}
}
