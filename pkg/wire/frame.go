// ABOUTME: Frame envelope parsing and encoding
// ABOUTME: The fixed 26-byte Base header plus typed-payload dispatch
package wire

import (
	"encoding/binary"
	"fmt"
)

// MessageType identifies the payload carried by a frame.
type MessageType uint16

// Message type tags, per the wire protocol.
const (
	TypeBase           MessageType = 0
	TypeCodecHeader    MessageType = 1
	TypeWireChunk      MessageType = 2
	TypeServerSettings MessageType = 3
	TypeTime           MessageType = 4
	TypeHello          MessageType = 5
	TypeStreamTags     MessageType = 6
	TypeClientInfo     MessageType = 7
)

// HeaderSize is the fixed size, in bytes, of the Base frame header.
const HeaderSize = 26

// MaxPayloadSize is the hard cap on a single frame's declared payload_size.
// Frames larger than this are rejected with ErrOversizedFrame before the
// reader allocates a buffer for them.
const MaxPayloadSize = 1 << 20 // 1 MiB

// Base is the fixed frame header preceding every message's payload.
type Base struct {
	Type        MessageType
	ID          uint16
	RefersTo    uint16
	Sent        TimeVal
	Received    TimeVal
	PayloadSize uint32
}

// ParseBase decodes the 26-byte fixed header. It does not read the
// payload; callers use PayloadSize to know how many more bytes to read.
func ParseBase(header []byte) (Base, error) {
	if len(header) < HeaderSize {
		return Base{}, fmt.Errorf("%w: header is %d bytes, want %d", ErrMalformedFrame, len(header), HeaderSize)
	}

	typ := MessageType(binary.LittleEndian.Uint16(header[0:2]))
	if typ > TypeClientInfo {
		return Base{}, fmt.Errorf("%w: type tag %d out of range", ErrMalformedFrame, typ)
	}

	b := Base{
		Type:     typ,
		ID:       binary.LittleEndian.Uint16(header[2:4]),
		RefersTo: binary.LittleEndian.Uint16(header[4:6]),
		Sent:     decodeTimeVal(header[6:14]),
		Received: decodeTimeVal(header[14:22]),
	}
	b.PayloadSize = binary.LittleEndian.Uint32(header[22:26])

	if b.PayloadSize > MaxPayloadSize {
		return Base{}, fmt.Errorf("%w: declared size %d exceeds cap %d", ErrOversizedFrame, b.PayloadSize, MaxPayloadSize)
	}

	return b, nil
}

// EncodeBase writes the 26-byte header for b into a freshly allocated
// slice. payloadSize overrides b.PayloadSize so callers can build the
// header before the payload bytes exist (e.g. compute payload length once
// and pass it in).
func EncodeBase(b Base, payloadSize uint32) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(b.Type))
	binary.LittleEndian.PutUint16(buf[2:4], b.ID)
	binary.LittleEndian.PutUint16(buf[4:6], b.RefersTo)
	encodeTimeVal(buf[6:14], b.Sent)
	encodeTimeVal(buf[14:22], b.Received)
	binary.LittleEndian.PutUint32(buf[22:26], payloadSize)
	return buf
}
