package icmpnet

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/net/icmp"
)

// ErrSocketAcquireFailed wraps any error from raw-socket creation (spec
// §7's SocketAcquireFailed). Acquiring a raw ICMP socket needs elevated
// privilege on every mainstream OS; failure here at startup is fatal,
// while failure on a per-send basis is logged and skipped (§7).
var ErrSocketAcquireFailed = errors.New("icmpnet: raw socket acquisition failed")

// ErrSendFailed wraps any sendto error (spec §7's SendFailed).
var ErrSendFailed = errors.New("icmpnet: send failed")

// lowPriorityDSCP is the DSCP/traffic-class value outbound flood packets
// are tagged with, per spec §6, so routers deprioritize them relative to
// ordinary ICMP traffic.
const lowPriorityDSCP = 8 << 2

func network(isIPv4 bool) string {
	if isIPv4 {
		return "ip4:icmp"
	}
	return "ip6:ipv6-icmp"
}

func listenAddr(isIPv4 bool) string {
	if isIPv4 {
		return "0.0.0.0"
	}
	return "::"
}

// Send acquires a raw ICMP socket matching the frame's target address
// family, marks the packet DSCP low-priority, sends the encoded frame
// exactly once, and increments the frame's sequence number (wrapping at
// 65535). The caller owns the returned socket: read replies from it, or
// close it immediately for fire-and-forget sends (spec §4.2).
func (f *Frame) Send() (*icmp.PacketConn, error) {
	isIPv4 := f.IsIPv4()

	conn, err := icmp.ListenPacket(network(isIPv4), listenAddr(isIPv4))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSocketAcquireFailed, err)
	}

	if isIPv4 {
		_ = conn.IPv4PacketConn().SetTOS(lowPriorityDSCP)
	} else {
		_ = conn.IPv6PacketConn().SetTrafficClass(lowPriorityDSCP)
	}

	data := f.Encode()
	dst := &net.IPAddr{IP: f.Target}
	if _, err := conn.WriteTo(data, dst); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	f.Sequence++
	return conn, nil
}
