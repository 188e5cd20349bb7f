// Package dispatch builds and sends IPv4 probes, grounded on the per-probe
// construction described by spec §4.4: ICMP Echo, privileged/unprivileged
// UDP (including the Paris checksum swap and Dublin-IPv4 identification
// trick), and TCP SYN dispatch.
package dispatch

import (
	"net"

	"github.com/hervehildenbrand/tracecore/internal/wire"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// Size bounds shared across dispatch paths.
const (
	MinPacketSizeICMP = wire.IPv4HeaderLen + wire.ICMPHeaderLen
	MinPacketSizeUDP  = wire.IPv4HeaderLen + wire.UDPHeaderLen
	MaxPacketSize     = 1024
)

func validateSize(packetSize, min int) error {
	if packetSize < min || packetSize > MaxPacketSize {
		return &probe.InvalidPacketSizeError{Requested: packetSize, Min: min, Max: MaxPacketSize}
	}
	return nil
}

func fillPattern(b []byte, pattern byte) {
	for i := range b {
		b[i] = pattern
	}
}

func to4Array(ip net.IP) [4]byte {
	var a [4]byte
	copy(a[:], ip.To4())
	return a
}
