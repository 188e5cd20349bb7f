package wire

import "encoding/binary"

// TCPHeaderLen is the fixed (no-options) TCP header length (RFC 793).
const TCPHeaderLen = 20

// TCPPacket is a zero-copy view over a TCP header. Only the two port
// fields are used by this core: per spec §4.5/§9, a router is only
// guaranteed by RFC 792 to echo 8 bytes past the embedded IP header, which
// covers source port, destination port, and 4 bytes of the sequence
// number — not enough to trust anything past the ports.
type TCPPacket []byte

// SrcPort reads bytes 0:2. The caller is responsible for ensuring buf is
// at least 2 bytes (zero-padded if the echoed TCP header was truncated);
// see internal/recv.ExtractProbeRespSeq.
func (p TCPPacket) SrcPort() uint16 { return binary.BigEndian.Uint16(p[0:2]) }

// DestPort reads bytes 2:4.
func (p TCPPacket) DestPort() uint16 { return binary.BigEndian.Uint16(p[2:4]) }
