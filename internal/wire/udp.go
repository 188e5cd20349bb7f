package wire

import (
	"encoding/binary"

	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// UDPHeaderLen is the fixed 8-byte UDP header (RFC 768).
const UDPHeaderLen = 8

// UDPPacket is a zero-copy view/builder over a UDP header plus payload.
type UDPPacket []byte

// NewUDP wraps buf for building; fails if buf is smaller than the fixed
// UDP header.
func NewUDP(buf []byte) (UDPPacket, error) {
	if len(buf) < UDPHeaderLen {
		return nil, probe.ErrPacketTooSmall
	}
	return UDPPacket(buf), nil
}

// NewUDPView wraps buf for parsing.
func NewUDPView(buf []byte) (UDPPacket, error) {
	return NewUDP(buf)
}

func (p UDPPacket) SrcPort() uint16     { return binary.BigEndian.Uint16(p[0:2]) }
func (p UDPPacket) SetSrcPort(v uint16) { binary.BigEndian.PutUint16(p[0:2], v) }

func (p UDPPacket) DestPort() uint16     { return binary.BigEndian.Uint16(p[2:4]) }
func (p UDPPacket) SetDestPort(v uint16) { binary.BigEndian.PutUint16(p[2:4], v) }

func (p UDPPacket) Length() uint16     { return binary.BigEndian.Uint16(p[4:6]) }
func (p UDPPacket) SetLength(v uint16) { binary.BigEndian.PutUint16(p[4:6], v) }

func (p UDPPacket) Checksum() uint16     { return binary.BigEndian.Uint16(p[6:8]) }
func (p UDPPacket) SetChecksum(v uint16) { binary.BigEndian.PutUint16(p[6:8], v) }

// Packet returns the full on-wire bytes backing this view.
func (p UDPPacket) Packet() []byte { return p }

// Payload returns the bytes after the fixed 8-byte header.
func (p UDPPacket) Payload() []byte { return p[UDPHeaderLen:] }
