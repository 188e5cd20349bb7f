// Package probe defines the data model shared by the dispatcher and the
// receiver: the outbound Probe record, the inbound Response variants, the
// ResponseSeq correlation key reconstructed from wire bytes, and the ICMP
// extension objects (RFC 4884 / RFC 4950 MPLS label stacks).
package probe

import "time"

// Flags is a bit set of per-probe dispatch options.
type Flags uint8

const (
	// FlagParisChecksum requests the Paris traceroute UDP checksum/payload
	// swap so the flow's 4-tuple (and ECMP hash) stays stable across TTLs.
	FlagParisChecksum Flags = 1 << iota

	// FlagDublinIPv6PayloadLength marks the IPv6 variant that encodes the
	// probe sequence in the UDP payload length. It has no effect on IPv4
	// dispatch; IPv4 always encodes the Dublin identifier in the IP
	// identification field regardless of this flag.
	FlagDublinIPv6PayloadLength
)

// Has reports whether f is set in the flag set.
func (fs Flags) Has(f Flags) bool {
	return fs&f != 0
}

// Probe is an immutable description of one outbound traceroute probe.
// It is constructed by the external round scheduler and consumed exactly
// once by the dispatcher.
type Probe struct {
	Sequence   uint16
	Identifier uint16
	SrcPort    uint16
	DestPort   uint16
	TTL        uint8
	RoundID    uint32
	SentAt     time.Time
	Flags      Flags
}

// TracingProtocol identifies which L4 probe protocol a trace is running,
// the value the receiver matches an embedded datagram's protocol against
// (see ExtractProbeRespSeq).
type TracingProtocol uint8

const (
	TracingICMP TracingProtocol = iota
	TracingUDP
	TracingTCP
)
