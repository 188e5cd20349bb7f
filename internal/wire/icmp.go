package wire

import (
	"encoding/binary"

	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// ICMPv4 message types this core recognises (RFC 792).
const (
	ICMPTypeEchoReply           = 0
	ICMPTypeEchoRequest         = 8
	ICMPTypeDestUnreach         = 3
	ICMPTypeTimeExceeded        = 11
	ICMPCodeTTLExceededInTransit = 0
	ICMPCodeFragReassemblyTimeExceeded = 1
)

// ICMPHeaderLen is the fixed 8-byte ICMP header: type(1) + code(1) +
// checksum(2) + rest-of-header(4). Echo messages use the rest-of-header as
// identifier(2)+sequence(2); TimeExceeded/DestinationUnreachable use it as
// an "unused"/next-hop-MTU field plus, per RFC 4884, an optional length
// sub-field at byte offset 1.
const ICMPHeaderLen = 8

// ICMPPacket is a zero-copy view/builder over an ICMPv4 message.
type ICMPPacket []byte

// NewICMP wraps buf for building; fails if buf is smaller than the fixed
// ICMP header.
func NewICMP(buf []byte) (ICMPPacket, error) {
	if len(buf) < ICMPHeaderLen {
		return nil, probe.ErrPacketTooSmall
	}
	return ICMPPacket(buf), nil
}

// NewICMPView wraps buf for parsing.
func NewICMPView(buf []byte) (ICMPPacket, error) {
	return NewICMP(buf)
}

func (p ICMPPacket) Type() uint8     { return p[0] }
func (p ICMPPacket) SetType(v uint8) { p[0] = v }

func (p ICMPPacket) Code() uint8     { return p[1] }
func (p ICMPPacket) SetCode(v uint8) { p[1] = v }

func (p ICMPPacket) Checksum() uint16     { return binary.BigEndian.Uint16(p[2:4]) }
func (p ICMPPacket) SetChecksum(v uint16) { binary.BigEndian.PutUint16(p[2:4], v) }

// RestOfHeader returns the 4 bytes at offset 4, interpretation depending
// on Type (identifier+sequence for Echo, unused+length+unused for
// TimeExceeded/DestinationUnreachable, unused+next-hop-MTU for
// Fragmentation Needed).
func (p ICMPPacket) RestOfHeader() [4]byte {
	var b [4]byte
	copy(b[:], p[4:8])
	return b
}

// Identifier is valid for Echo Request/Reply messages.
func (p ICMPPacket) Identifier() uint16 { return binary.BigEndian.Uint16(p[4:6]) }
func (p ICMPPacket) SetIdentifier(v uint16) { binary.BigEndian.PutUint16(p[4:6], v) }

// Sequence is valid for Echo Request/Reply messages.
func (p ICMPPacket) Sequence() uint16     { return binary.BigEndian.Uint16(p[6:8]) }
func (p ICMPPacket) SetSequence(v uint16) { binary.BigEndian.PutUint16(p[6:8], v) }

// ExtensionLengthField is the RFC 4884 "length" sub-field (byte offset 1
// of the rest-of-header), counted in 4-octet units of the original
// datagram portion. Zero means "not populated"; the receiver falls back
// to the 128-byte heuristic in that case (see internal/wire/ext.go).
func (p ICMPPacket) ExtensionLengthField() uint8 { return p[5] }
func (p ICMPPacket) SetExtensionLengthField(v uint8) { p[5] = v }

// NextHopMTU is valid for Destination Unreachable, code 4 (Fragmentation
// Needed and DF was set).
func (p ICMPPacket) NextHopMTU() uint16 { return binary.BigEndian.Uint16(p[6:8]) }

// Packet returns the full on-wire bytes backing this view.
func (p ICMPPacket) Packet() []byte { return p }

// Payload returns the bytes after the fixed 8-byte header: for Echo this
// is the arbitrary pattern payload; for TimeExceeded/DestinationUnreachable
// this is the embedded original IP datagram, optionally followed by RFC
// 4884 extension data.
func (p ICMPPacket) Payload() []byte { return p[ICMPHeaderLen:] }

// ComputeChecksum returns the ICMPv4 checksum over the full message
// (header+payload) per RFC 792. The caller must have already zeroed the
// checksum field (bytes 2:4), the way every ICMPPacket builder here calls
// SetChecksum(0) before computing it.
func ComputeICMPChecksum(msg []byte) uint16 {
	return InternetChecksum(msg)
}
