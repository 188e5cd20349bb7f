// Package platform isolates the one OS-dependent wire quirk the core must
// know about: on some kernels, when IP_HDRINCL is in effect, the IPv4
// total_length and flags_and_fragment_offset fields must be handed to the
// kernel in host byte order, not network byte order (the kernel converts
// them before transmission, and delivers inbound raw-socket reads in the
// same host-order shape). Every other multi-byte IPv4 field is always
// network byte order.
package platform

import "encoding/binary"

// Ipv4ByteOrder names which order the kernel expects total_length and
// flags_and_fragment_offset to be written in, given the platform's
// IP_HDRINCL behavior.
type Ipv4ByteOrder int

const (
	// Network means the kernel wants these two fields in ordinary network
	// (big-endian) byte order, like every other IPv4 field.
	Network Ipv4ByteOrder = iota

	// Host means the kernel wants these two fields in host byte order; the
	// adapter byte-swaps them before the normal big-endian write.
	Host
)

// Current is the byte-order policy for the running platform. It is
// resolved once at package init from the per-OS table in
// platform_<os>.go; implementations may instead probe the kernel at
// startup, but hard-coding by OS is the documented fallback and what this
// package does.
var Current = currentByteOrder()

// AdjustLength converts a host-order 16-bit value into the form that must
// be written, in ordinary big-endian, at the wire position of
// total_length or flags_and_fragment_offset. On Network platforms this is
// the identity; on Host platforms it byte-swaps so that a subsequent
// big-endian write produces the host-order bytes the kernel expects.
// AdjustLength is its own inverse, so the same call decodes a value read
// from the wire back into host order.
func AdjustLength(order Ipv4ByteOrder, hostOrderValue uint16) uint16 {
	if order == Host {
		return swapBytes16(hostOrderValue)
	}
	return hostOrderValue
}

func swapBytes16(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.LittleEndian.Uint16(b[:])
}
