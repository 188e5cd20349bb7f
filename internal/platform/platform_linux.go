//go:build linux

package platform

// Linux's raw IP_HDRINCL path expects total_length and
// flags_and_fragment_offset in host byte order; the kernel is little-endian
// on every architecture Go targets in practice for this purpose, so Host
// here means "little-endian on the wire".
func currentByteOrder() Ipv4ByteOrder {
	return Host
}
