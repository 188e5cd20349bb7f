//go:build !linux && !darwin && !windows

package platform

// The rest of the BSD family (FreeBSD, OpenBSD, NetBSD) follows Darwin's
// network-byte-order convention.
func currentByteOrder() Ipv4ByteOrder {
	return Network
}
