package wire

import (
	"encoding/binary"
	"net"

	"github.com/hervehildenbrand/tracecore/internal/platform"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// Protocol numbers used in the IPv4 Protocol field.
const (
	ProtocolICMP = 1
	ProtocolTCP  = 6
	ProtocolUDP  = 17
)

// IPv4HeaderLen is the fixed (no-options) IPv4 header length.
const IPv4HeaderLen = 20

const (
	flagDF = 1 << 14 // Don't Fragment
	flagMF = 1 << 13 // More Fragments
)

// IPv4Packet is a zero-copy view/builder over an IPv4 header (no options)
// plus payload, per RFC 791. It is an ownership-inert wrapper: the caller
// owns the backing array, typically a stack-local buffer sized to
// MaxPacketSize.
//
// All fields are network byte order except TotalLength and
// FlagsFragOffset, whose on-wire order is governed by the platform
// adapter when IP_HDRINCL is in effect — see SetTotalLength/TotalLength
// and SetFlagsFragOffset/FlagsFragOffset.
type IPv4Packet []byte

// NewIPv4 wraps buf for building. It fails if buf is smaller than the
// fixed IPv4 header.
func NewIPv4(buf []byte) (IPv4Packet, error) {
	if len(buf) < IPv4HeaderLen {
		return nil, probe.ErrPacketTooSmall
	}
	return IPv4Packet(buf), nil
}

// NewIPv4View wraps buf for parsing. Identical size check to NewIPv4; the
// distinction exists to mirror the spec's new/new_view naming even though
// Go slices make the mutability difference a caller convention, not a
// type-level one.
func NewIPv4View(buf []byte) (IPv4Packet, error) {
	return NewIPv4(buf)
}

// Initialize zeroes the header and sets Version=4, IHL=5 (20-byte header,
// no options).
func (p IPv4Packet) Initialize() {
	for i := range p[:IPv4HeaderLen] {
		p[i] = 0
	}
	p[0] = 0x45
}

func (p IPv4Packet) VersionIHL() uint8 { return p[0] }
func (p IPv4Packet) TOS() uint8        { return p[1] }
func (p IPv4Packet) SetTOS(v uint8)    { p[1] = v }

// TotalLength returns the packet's total length in host order, undoing
// whatever platform byte-order transform was applied on the wire.
func (p IPv4Packet) TotalLength(order platform.Ipv4ByteOrder) uint16 {
	raw := binary.BigEndian.Uint16(p[2:4])
	return platform.AdjustLength(order, raw)
}

// SetTotalLength writes v (a host-order value) at the platform-appropriate
// byte order.
func (p IPv4Packet) SetTotalLength(order platform.Ipv4ByteOrder, v uint16) {
	binary.BigEndian.PutUint16(p[2:4], platform.AdjustLength(order, v))
}

func (p IPv4Packet) Identification() uint16     { return binary.BigEndian.Uint16(p[4:6]) }
func (p IPv4Packet) SetIdentification(v uint16) { binary.BigEndian.PutUint16(p[4:6], v) }

// FlagsFragOffset decodes the combined flags+fragment-offset field,
// applying the platform byte-order transform first.
func (p IPv4Packet) FlagsFragOffset(order platform.Ipv4ByteOrder) (df, mf bool, fragOffset uint16) {
	raw := binary.BigEndian.Uint16(p[6:8])
	v := platform.AdjustLength(order, raw)
	return v&flagDF != 0, v&flagMF != 0, v & 0x1fff
}

// SetFlagsFragOffset writes the combined flags+fragment-offset field at
// the platform-appropriate byte order. The core always sets DF and never
// fragments (spec §3 invariant), so callers pass df=true, mf=false,
// fragOffset=0 in every dispatch path.
func (p IPv4Packet) SetFlagsFragOffset(order platform.Ipv4ByteOrder, df, mf bool, fragOffset uint16) {
	var v uint16
	if df {
		v |= flagDF
	}
	if mf {
		v |= flagMF
	}
	v |= fragOffset & 0x1fff
	binary.BigEndian.PutUint16(p[6:8], platform.AdjustLength(order, v))
}

func (p IPv4Packet) TTL() uint8     { return p[8] }
func (p IPv4Packet) SetTTL(v uint8) { p[8] = v }

func (p IPv4Packet) Protocol() uint8     { return p[9] }
func (p IPv4Packet) SetProtocol(v uint8) { p[9] = v }

func (p IPv4Packet) Checksum() uint16     { return binary.BigEndian.Uint16(p[10:12]) }
func (p IPv4Packet) SetChecksum(v uint16) { binary.BigEndian.PutUint16(p[10:12], v) }

// ComputeChecksum returns the RFC 791 header checksum of the current
// header bytes (the checksum field must be zeroed first by the caller).
// Dispatch paths that submit packets over an IP_HDRINCL raw socket leave
// the field at zero instead of calling this: Linux's raw_send_check()
// computes it for the caller when it finds a zero checksum, which is the
// convention this implementation follows (see internal/dispatch).
func (p IPv4Packet) ComputeChecksum() uint16 {
	return InternetChecksum(p[:IPv4HeaderLen])
}

func (p IPv4Packet) SrcAddr() net.IP { return net.IP(p[12:16]) }
func (p IPv4Packet) SetSrcAddr(ip net.IP) {
	copy(p[12:16], ip.To4())
}

func (p IPv4Packet) DstAddr() net.IP { return net.IP(p[16:20]) }
func (p IPv4Packet) SetDstAddr(ip net.IP) {
	copy(p[16:20], ip.To4())
}

// Packet returns the full on-wire bytes backing this view (header +
// payload, assuming the caller sized the backing buffer and wrote the
// payload through the slice Payload returns).
func (p IPv4Packet) Packet() []byte { return p }

// Payload returns the bytes after the fixed header.
func (p IPv4Packet) Payload() []byte { return p[IPv4HeaderLen:] }
