package dispatch

import (
	"net"

	"github.com/hervehildenbrand/tracecore/internal/platform"
	"github.com/hervehildenbrand/tracecore/internal/socket"
	"github.com/hervehildenbrand/tracecore/internal/wire"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// DispatchICMP builds and sends an ICMP Echo Request probe over sock, an
// IP_HDRINCL raw socket obtained from socket.NewICMPSendSocketIPv4. Packet
// bytes are assembled in a fixed array sized to MaxPacketSize; because its
// bytes are passed to SendTo through the Socket interface, the array
// escapes to the heap, so each call makes one MaxPacketSize allocation.
func DispatchICMP(sock socket.Socket, p probe.Probe, src, dest net.IP, packetSize int, pattern byte, order platform.Ipv4ByteOrder) error {
	if err := validateSize(packetSize, MinPacketSizeICMP); err != nil {
		return err
	}

	var arr [MaxPacketSize]byte
	buf := arr[:packetSize]

	ip, err := wire.NewIPv4(buf)
	if err != nil {
		return err
	}
	ip.Initialize()
	ip.SetTotalLength(order, uint16(packetSize))
	ip.SetFlagsFragOffset(order, true, false, 0)
	ip.SetIdentification(0)
	ip.SetTTL(p.TTL)
	ip.SetProtocol(wire.ProtocolICMP)
	ip.SetSrcAddr(src)
	ip.SetDstAddr(dest)

	icmp, err := wire.NewICMP(ip.Payload())
	if err != nil {
		return err
	}
	icmp.SetType(wire.ICMPTypeEchoRequest)
	icmp.SetCode(0)
	icmp.SetIdentifier(p.Identifier)
	icmp.SetSequence(p.Sequence)
	fillPattern(icmp.Payload(), pattern)
	icmp.SetChecksum(0)
	icmp.SetChecksum(wire.ComputeICMPChecksum(icmp.Packet()))

	// Outer IPv4 checksum is left at zero; see wire.IPv4Packet.ComputeChecksum.
	if err := sock.SendTo(ip.Packet(), dest, 0); err != nil {
		return err
	}
	return nil
}
