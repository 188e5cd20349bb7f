//go:build darwin

package platform

// Darwin (and the rest of the BSD family) expects total_length and
// flags_and_fragment_offset in ordinary network byte order even under
// IP_HDRINCL.
func currentByteOrder() Ipv4ByteOrder {
	return Network
}
