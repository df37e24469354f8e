package demux

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/pingxelflut/pingxelflut/internal/icmpnet"
	"github.com/pingxelflut/pingxelflut/internal/wire"
)

// buildEchoRequest marshals a bare ICMP Echo Request, matching what
// icmp.ListenPacket's PacketConn actually hands the listener on both
// address families (no IP header to strip).
func buildEchoRequest(t *testing.T, icmpType icmp.Type, payload []byte) []byte {
	t.Helper()

	msg := icmp.Message{
		Type: icmpType,
		Code: 0,
		Body: &icmp.Echo{ID: 1, Seq: 1, Data: payload},
	}
	raw, err := msg.Marshal(nil)
	require.NoError(t, err)
	return raw
}

func TestDecodeIPv4BareMessage(t *testing.T) {
	payload := make([]byte, wire.MaxEncodedSize)
	n, err := wire.Encode(wire.SizeRequestPacket(), payload)
	require.NoError(t, err)

	raw := buildEchoRequest(t, ipv4.ICMPTypeEcho, payload[:n])

	d := icmpnet.Datagram{
		Bytes:  raw,
		Source: &net.IPAddr{IP: net.ParseIP("192.0.2.10")},
		IsIPv4: true,
	}

	event, ok := Decode(d, nil)
	require.True(t, ok)
	assert.Equal(t, wire.SizeRequestPacket(), event.Packet)
	assert.True(t, event.Source.Equal(net.ParseIP("192.0.2.10")))
}

func TestDecodeIPv6NoIPHeaderStripped(t *testing.T) {
	payload := make([]byte, wire.MaxEncodedSize)
	n, err := wire.Encode(wire.SetPixelPacket(5, 5, wire.Color{R: 1, G: 2, B: 3, A: 0xFF}), payload)
	require.NoError(t, err)

	raw := buildEchoRequest(t, ipv6.ICMPTypeEchoRequest, payload[:n])

	d := icmpnet.Datagram{
		Bytes:  raw,
		Source: &net.IPAddr{IP: net.ParseIP("2001:db8::10")},
		IsIPv4: false,
	}

	event, ok := Decode(d, nil)
	require.True(t, ok)
	assert.Equal(t, wire.SetPixelPacket(5, 5, wire.Color{R: 1, G: 2, B: 3, A: 0xFF}), event.Packet)
}

func TestDecodeDropsEchoReply(t *testing.T) {
	raw := buildEchoRequest(t, ipv4.ICMPTypeEchoReply, []byte{0xAA})

	d := icmpnet.Datagram{Bytes: raw, Source: &net.IPAddr{IP: net.ParseIP("192.0.2.10")}, IsIPv4: true}
	_, ok := Decode(d, nil)
	assert.False(t, ok)
}

func TestDecodeDropsMalformedPayload(t *testing.T) {
	raw := buildEchoRequest(t, ipv4.ICMPTypeEcho, []byte{0xDE, 0xAD})
	d := icmpnet.Datagram{Bytes: raw, Source: &net.IPAddr{IP: net.ParseIP("192.0.2.10")}, IsIPv4: true}
	_, ok := Decode(d, nil)
	assert.False(t, ok)
}
