package dispatch

import (
	"encoding/binary"
	"net"

	"github.com/hervehildenbrand/tracecore/internal/platform"
	"github.com/hervehildenbrand/tracecore/internal/socket"
	"github.com/hervehildenbrand/tracecore/internal/wire"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// parisPayloadLen is the fixed payload size used whenever PARIS_CHECKSUM is
// set: the payload carries nothing but the post-swap checksum value (2
// bytes), regardless of the packet size the caller requested (spec S2
// dispatches a "300-byte requested size" probe whose wire UDP length is
// nonetheless 10 — header(8) + this 2-byte payload).
const parisPayloadLen = 2

// DispatchUDPRaw builds and sends a UDP probe over an IP_HDRINCL raw
// socket, applying the Paris checksum/payload swap and the Dublin-IPv4
// identification trick per spec §4.4.
func DispatchUDPRaw(sock socket.Socket, p probe.Probe, src, dest net.IP, packetSize int, pattern byte, order platform.Ipv4ByteOrder) error {
	if err := validateSize(packetSize, MinPacketSizeUDP); err != nil {
		return err
	}

	paris := p.Flags.Has(probe.FlagParisChecksum)
	payloadSize := packetSize - wire.IPv4HeaderLen - wire.UDPHeaderLen
	if paris {
		payloadSize = parisPayloadLen
	}
	udpLen := wire.UDPHeaderLen + payloadSize
	totalLen := wire.IPv4HeaderLen + udpLen

	var arr [MaxPacketSize]byte
	buf := arr[:totalLen]

	ip, err := wire.NewIPv4(buf)
	if err != nil {
		return err
	}
	ip.Initialize()
	ip.SetTotalLength(order, uint16(totalLen))
	ip.SetFlagsFragOffset(order, true, false, 0)
	// Dublin-IPv4: the trace identifier rides in the IP identification
	// field unconditionally for privileged UDP dispatch.
	ip.SetIdentification(p.Identifier)
	ip.SetTTL(p.TTL)
	ip.SetProtocol(wire.ProtocolUDP)
	ip.SetSrcAddr(src)
	ip.SetDstAddr(dest)

	udp, err := wire.NewUDP(ip.Payload())
	if err != nil {
		return err
	}
	udp.SetSrcPort(p.SrcPort)
	udp.SetDestPort(p.DestPort)
	udp.SetLength(uint16(udpLen))
	udp.SetChecksum(0)

	payload := udp.Payload()
	if paris {
		binary.BigEndian.PutUint16(payload, p.Sequence)
	} else {
		fillPattern(payload, pattern)
	}

	checksum := wire.UDPChecksumIPv4(to4Array(src), to4Array(dest), udp.Packet())

	if paris {
		// Paris swap: the checksum field ends up holding the original
		// payload (the sequence), and the payload ends up holding the
		// checksum the kernel/router path would otherwise have seen —
		// stable across ECMP hashing.
		original := binary.BigEndian.Uint16(payload[:2])
		udp.SetChecksum(original)
		binary.BigEndian.PutUint16(payload, checksum)
	} else {
		udp.SetChecksum(checksum)
	}

	if err := sock.SendTo(ip.Packet(), dest, int(p.DestPort)); err != nil {
		return err
	}
	return nil
}

// DispatchUDPUnprivileged sends a UDP probe over an ordinary datagram
// socket. The kernel owns IP/UDP header construction, so checksums and
// identification are outside the core's control and the Paris/Dublin
// tricks do not apply.
func DispatchUDPUnprivileged(sock socket.Socket, p probe.Probe, src, dest net.IP, payloadSize int, pattern byte) error {
	if err := sock.Bind(src, int(p.SrcPort)); err != nil {
		return err
	}
	if err := sock.SetTTL(int(p.TTL)); err != nil {
		return err
	}

	payload := make([]byte, payloadSize)
	fillPattern(payload, pattern)

	if err := sock.SendTo(payload, dest, int(p.DestPort)); err != nil {
		return err
	}
	return nil
}
