//go:build windows

package platform

// Windows' raw socket path expects both fields in host byte order, same
// as Linux.
func currentByteOrder() Ipv4ByteOrder {
	return Host
}
