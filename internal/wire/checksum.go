package wire

import "encoding/binary"

// InternetChecksum computes the RFC 791 §3.1 one's-complement checksum
// over b. The caller must zero the checksum field within b before calling,
// since the checksum is computed over the whole message including that
// (zeroed) field.
func InternetChecksum(b []byte) uint16 {
	var sum uint32
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if n%2 == 1 {
		sum += uint32(b[n-1]) << 8
	}
	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return ^uint16(sum)
}

// udpPseudoHeaderLen is the size of the IPv4/UDP pseudo-header: src(4) +
// dst(4) + zero(1) + protocol(1) + udp length(2).
const udpPseudoHeaderLen = 12

// UDPChecksumIPv4 computes the UDP/IPv4 checksum per RFC 768: the
// pseudo-header {src, dst, zero, protocol=17, udp length} concatenated
// with the UDP message (the 8-byte UDP header plus payload, checksum
// field zeroed), zero-padded to an even total length.
//
// udpMessage must have its checksum field (bytes 6:8) already zeroed.
func UDPChecksumIPv4(src, dst [4]byte, udpMessage []byte) uint16 {
	buf := make([]byte, udpPseudoHeaderLen+len(udpMessage))
	n := 0
	n += copy(buf[n:], src[:])
	n += copy(buf[n:], dst[:])
	buf[n] = 0
	n++
	buf[n] = ProtocolUDP
	n++
	binary.BigEndian.PutUint16(buf[n:], uint16(len(udpMessage)))
	n += 2
	n += copy(buf[n:], udpMessage)

	sum := InternetChecksum(buf[:n])
	if sum == 0 {
		// RFC 768: an all-zero computed checksum is transmitted as all ones;
		// all-zero on the wire instead means "no checksum was computed".
		return 0xffff
	}
	return sum
}
