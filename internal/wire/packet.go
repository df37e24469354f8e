// Package wire implements the Pingxelflut packet codec: pure functions
// mapping bytes to Packet values and back. See spec §3 and §4.1 for the
// wire layout.
package wire

import (
	"errors"
	"fmt"
)

// Tag identifies which Packet variant a byte sequence encodes.
type Tag byte

const (
	TagSizeRequest  Tag = 0xAA
	TagSizeResponse Tag = 0xBB
	TagSetPixel     Tag = 0xCC
)

// MaxEncodedSize is the largest number of bytes any Packet can encode to.
const MaxEncodedSize = 9

// ErrMalformedPacket is returned by Decode for any unknown tag, short
// buffer, or malformed color.
var ErrMalformedPacket = errors.New("pingxelflut: malformed packet")

// ErrBufferTooSmall is returned by Encode when the destination buffer
// cannot hold the encoded packet.
var ErrBufferTooSmall = errors.New("pingxelflut: buffer too small")

// Color is an RGBA color. Alpha 0xFF is the wire-implied default for the
// 3-byte RGB form.
type Color struct {
	R, G, B, A uint8
}

// Opaque reports whether the color's alpha channel is fully opaque.
func (c Color) Opaque() bool { return c.A == 0xFF }

// Transparent reports whether the color is fully transparent, the only
// alpha value canvas.SetPixel treats specially (see spec §4.4).
func (c Color) Transparent() bool { return c.A == 0 }

// Packet is a tagged union over the three Pingxelflut message variants.
// Exactly one of the Size*/Pixel fields is meaningful, selected by Tag.
type Packet struct {
	Tag Tag

	// SizeResponse fields.
	Width, Height uint16

	// SetPixel fields.
	X, Y  uint16
	Color Color
}

// SizeRequestPacket builds a SizeRequest packet.
func SizeRequestPacket() Packet {
	return Packet{Tag: TagSizeRequest}
}

// SizeResponsePacket builds a SizeResponse packet.
func SizeResponsePacket(width, height uint16) Packet {
	return Packet{Tag: TagSizeResponse, Width: width, Height: height}
}

// SetPixelPacket builds a SetPixel packet.
func SetPixelPacket(x, y uint16, color Color) Packet {
	return Packet{Tag: TagSetPixel, X: x, Y: y, Color: color}
}

// Encode writes p into buf and returns the number of bytes written.
// Returns ErrBufferTooSmall if buf cannot hold the encoded form.
//
// SetPixel packets with an opaque color are emitted in the compact 3-byte
// RGB form, per spec §4.1's recommendation.
func Encode(p Packet, buf []byte) (int, error) {
	switch p.Tag {
	case TagSizeRequest:
		if len(buf) < 1 {
			return 0, ErrBufferTooSmall
		}
		buf[0] = byte(TagSizeRequest)
		return 1, nil

	case TagSizeResponse:
		if len(buf) < 5 {
			return 0, ErrBufferTooSmall
		}
		buf[0] = byte(TagSizeResponse)
		putUint16(buf[1:3], p.Width)
		putUint16(buf[3:5], p.Height)
		return 5, nil

	case TagSetPixel:
		if p.Color.Opaque() {
			if len(buf) < 8 {
				return 0, ErrBufferTooSmall
			}
			buf[0] = byte(TagSetPixel)
			putUint16(buf[1:3], p.X)
			putUint16(buf[3:5], p.Y)
			buf[5] = p.Color.R
			buf[6] = p.Color.G
			buf[7] = p.Color.B
			return 8, nil
		}
		if len(buf) < 9 {
			return 0, ErrBufferTooSmall
		}
		buf[0] = byte(TagSetPixel)
		putUint16(buf[1:3], p.X)
		putUint16(buf[3:5], p.Y)
		buf[5] = p.Color.R
		buf[6] = p.Color.G
		buf[7] = p.Color.B
		buf[8] = p.Color.A
		return 9, nil

	default:
		return 0, fmt.Errorf("wire: unknown tag %#x: %w", p.Tag, ErrMalformedPacket)
	}
}

// Decode parses a Packet from the start of b. Decode is total and
// allocation-free: it never panics and never retains b.
func Decode(b []byte) (Packet, error) {
	if len(b) < 1 {
		return Packet{}, ErrMalformedPacket
	}

	switch Tag(b[0]) {
	case TagSizeRequest:
		return SizeRequestPacket(), nil

	case TagSizeResponse:
		if len(b) < 5 {
			return Packet{}, ErrMalformedPacket
		}
		width := getUint16(b[1:3])
		height := getUint16(b[3:5])
		return SizeResponsePacket(width, height), nil

	case TagSetPixel:
		if len(b) < 8 {
			return Packet{}, ErrMalformedPacket
		}
		x := getUint16(b[1:3])
		y := getUint16(b[3:5])
		tail := b[5:]
		color, err := decodeColor(tail)
		if err != nil {
			return Packet{}, err
		}
		return SetPixelPacket(x, y, color), nil

	default:
		return Packet{}, ErrMalformedPacket
	}
}

// decodeColor parses the trailing color bytes of a SetPixel packet. A
// 4-byte tail is RGBA; a 3-byte tail is RGB with alpha defaulted to 0xFF.
// Any other length is malformed.
func decodeColor(tail []byte) (Color, error) {
	switch len(tail) {
	case 4:
		return Color{R: tail[0], G: tail[1], B: tail[2], A: tail[3]}, nil
	case 3:
		return Color{R: tail[0], G: tail[1], B: tail[2], A: 0xFF}, nil
	default:
		return Color{}, ErrMalformedPacket
	}
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func getUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
