package recv

import (
	"github.com/hervehildenbrand/tracecore/internal/wire"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// ExtractProbeRespSeq reconstructs the correlation key carried inside an
// embedded original-datagram IPv4 header, per spec §4.5. It returns (nil,
// nil) when the embedded protocol doesn't match tracingProtocol — the
// caller drops the response in that case, not an error.
func ExtractProbeRespSeq(embedded wire.IPv4Packet, tracingProtocol probe.TracingProtocol) (probe.ResponseSeq, error) {
	switch tracingProtocol {
	case probe.TracingICMP:
		if embedded.Protocol() != wire.ProtocolICMP {
			return nil, nil
		}
		hdr := zeroPad(embedded.Payload(), wire.ICMPHeaderLen)
		icmp, err := wire.NewICMPView(hdr)
		if err != nil {
			return nil, nil
		}
		return probe.ICMPSeq{Identifier: icmp.Identifier(), Sequence: icmp.Sequence()}, nil

	case probe.TracingUDP:
		if embedded.Protocol() != wire.ProtocolUDP {
			return nil, nil
		}
		hdr := zeroPad(embedded.Payload(), wire.UDPHeaderLen)
		udp, err := wire.NewUDPView(hdr)
		if err != nil {
			return nil, nil
		}
		payloadLen := udp.Length()
		if payloadLen >= wire.UDPHeaderLen {
			payloadLen -= wire.UDPHeaderLen
		} else {
			payloadLen = 0
		}
		return probe.UDPSeq{
			Identifier: embedded.Identification(),
			DestAddr:   embedded.DstAddr(),
			SrcPort:    udp.SrcPort(),
			DestPort:   udp.DestPort(),
			Checksum:   udp.Checksum(),
			PayloadLen: payloadLen,
			HasMagic:   false,
		}, nil

	case probe.TracingTCP:
		if embedded.Protocol() != wire.ProtocolTCP {
			return nil, nil
		}
		// A router is only guaranteed by RFC 792 to echo 8 bytes past the
		// embedded IP header; zero-pad to the fixed TCP header length
		// before reading the two port fields (spec §4.5 point 3, §9).
		hdr := zeroPad(embedded.Payload(), wire.TCPHeaderLen)
		tcp := wire.TCPPacket(hdr)
		return probe.TCPSeq{
			DestAddr: embedded.DstAddr(),
			SrcPort:  tcp.SrcPort(),
			DestPort: tcp.DestPort(),
		}, nil

	default:
		return nil, nil
	}
}

// zeroPad returns b if it is already at least n bytes, otherwise a new
// zero-padded copy of length n.
func zeroPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b[:n]
	}
	padded := make([]byte, n)
	copy(padded, b)
	return padded
}
