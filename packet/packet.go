// Package packet implements the fixed-size binary record exchanged between
// cliplink peers.
//
// Every wire message, plaintext during the handshake and encrypted afterwards,
// is exactly PacketSize bytes. The layout uses little-endian length fields:
//
//	offset  size  field
//	0       2     type length (u16)
//	2       24    type, zero-padded
//	26      2     payload length (u16)
//	28      2020  payload, zero-padded
//
// Length fields are validated against their section capacity before any byte
// is sliced, so a malformed or adversarial buffer produces an error instead of
// a panic.
package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// PacketSize is the total size of every wire packet. Both peers must agree on
// this value; a frame of any other length is rejected.
const PacketSize = 2048

const (
	typeLenOffset    = 0
	typeOffset       = 2
	payloadLenOffset = 26
	payloadOffset    = 28

	// TypeSize is the capacity of the type section.
	TypeSize = 24

	// PayloadSize is the capacity of the payload section.
	PayloadSize = PacketSize - payloadOffset
)

// Handshake type tags.
const (
	TypeHandshake     = "sshsyn"
	TypeHandshakeAck  = "sshsynack"
	TypeHandshakeDeny = "sshsyndeny"
)

// Session type tags.
const (
	TypeCopy     = "copy"
	TypeCopyAck  = "copyack"
	TypePaste    = "paste"
	TypePasteAck = "pasteack"
	TypeTerm     = "term"
)

var (
	// ErrSectionOverflow indicates a type longer than TypeSize, either
	// supplied by the caller or declared by an incoming length field.
	ErrSectionOverflow = errors.New("packet section overflow")

	// ErrBufferOverflow indicates a payload larger than PayloadSize, either
	// supplied by the caller or declared by an incoming length field.
	ErrBufferOverflow = errors.New("packet buffer overflow")

	// ErrShortBuffer indicates an input buffer that is not exactly
	// PacketSize bytes long.
	ErrShortBuffer = errors.New("packet buffer is not PacketSize bytes")
)

// Packet is one cliplink wire message. Type identifies the message kind and
// Payload carries its body. Both are raw byte sequences; interpreting them as
// text is the caller's concern. A Packet is immutable once constructed.
type Packet struct {
	Type    []byte
	Payload []byte
}

// New builds a packet with the given type tag and payload. The payload slice
// is not copied; callers must not mutate it afterwards.
func New(typeTag string, payload []byte) *Packet {
	return &Packet{
		Type:    []byte(typeTag),
		Payload: payload,
	}
}

// IsType reports whether the packet carries the given type tag.
func (p *Packet) IsType(typeTag string) bool {
	return bytes.Equal(p.Type, []byte(typeTag))
}

// TypeString returns the type tag as a string.
func (p *Packet) TypeString() string {
	return string(p.Type)
}

// Serialize converts the packet to its PacketSize-byte wire form. Unused
// section bytes are zero so the encoding of a given packet is deterministic.
func (p *Packet) Serialize() ([]byte, error) {
	if len(p.Type) > TypeSize {
		return nil, ErrSectionOverflow
	}
	if len(p.Payload) > PayloadSize {
		return nil, ErrBufferOverflow
	}

	buf := make([]byte, PacketSize)
	binary.LittleEndian.PutUint16(buf[typeLenOffset:], uint16(len(p.Type)))
	copy(buf[typeOffset:typeOffset+TypeSize], p.Type)
	binary.LittleEndian.PutUint16(buf[payloadLenOffset:], uint16(len(p.Payload)))
	copy(buf[payloadOffset:], p.Payload)

	return buf, nil
}

// ParsePacket decodes a PacketSize-byte buffer into a Packet. Both length
// fields are checked against their section capacity before slicing. The
// returned packet owns copies of the type and payload bytes.
func ParsePacket(buf []byte) (*Packet, error) {
	if len(buf) != PacketSize {
		return nil, ErrShortBuffer
	}

	typeLen := int(binary.LittleEndian.Uint16(buf[typeLenOffset:]))
	if typeLen > TypeSize {
		return nil, ErrSectionOverflow
	}

	payloadLen := int(binary.LittleEndian.Uint16(buf[payloadLenOffset:]))
	if payloadLen > PayloadSize {
		return nil, ErrBufferOverflow
	}

	p := &Packet{
		Type:    make([]byte, typeLen),
		Payload: make([]byte, payloadLen),
	}
	copy(p.Type, buf[typeOffset:typeOffset+typeLen])
	copy(p.Payload, buf[payloadOffset:payloadOffset+payloadLen])

	return p, nil
}
