// Package recv reads ICMP datagrams or inspects connecting TCP sockets,
// parses them, and reconstructs a typed Response keyed to the original
// probe — the receiver+correlator component of spec §4.5. No per-probe
// state is held: everything is reconstructed from the bytes a router
// echoed back.
package recv

import (
	"errors"
	"net"
	"time"

	"github.com/hervehildenbrand/tracecore/internal/socket"
	"github.com/hervehildenbrand/tracecore/internal/wire"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

const maxDatagramSize = 1500

// RecvICMPProbe performs one single-shot, non-blocking read of the ICMP
// receive socket and attempts to turn it into a Response. A nil Response
// with a nil error means "no response this poll" — malformed or unrelated
// datagrams are silently dropped, per spec §4.6.
func RecvICMPProbe(sock socket.Socket, tracingProtocol probe.TracingProtocol, extensionsEnabled bool) (probe.Response, error) {
	var buf [maxDatagramSize]byte
	n, _, err := sock.Read(buf[:])
	if err != nil {
		if errors.Is(err, socket.ErrWouldBlock) {
			return nil, nil
		}
		return nil, &probe.IOError{Op: "read", Err: err}
	}

	outer, err := wire.NewIPv4View(buf[:n])
	if err != nil {
		return nil, nil
	}
	icmp, err := wire.NewICMPView(outer.Payload())
	if err != nil {
		return nil, nil
	}

	recvAt := time.Now()
	src := outer.SrcAddr()

	switch icmp.Type() {
	case wire.ICMPTypeEchoReply:
		if tracingProtocol != probe.TracingICMP {
			return nil, nil
		}
		data := probe.ResponseData{
			RecvAt:     recvAt,
			SourceAddr: src,
			RespSeq:    probe.ICMPSeq{Identifier: icmp.Identifier(), Sequence: icmp.Sequence()},
		}
		return probe.EchoReply{ResponseData: data, Code: icmp.Code()}, nil

	case wire.ICMPTypeTimeExceeded:
		if icmp.Code() != wire.ICMPCodeTTLExceededInTransit {
			// Fragment-reassembly-time-exceeded (code 1) and any other
			// code are silently dropped.
			return nil, nil
		}
		return recvEmbedded(icmp, tracingProtocol, extensionsEnabled, recvAt, src, true)

	case wire.ICMPTypeDestUnreach:
		return recvEmbedded(icmp, tracingProtocol, extensionsEnabled, recvAt, src, false)

	default:
		return nil, nil
	}
}

func recvEmbedded(icmp wire.ICMPPacket, tracingProtocol probe.TracingProtocol, extensionsEnabled bool, recvAt time.Time, src net.IP, timeExceeded bool) (probe.Response, error) {
	body := icmp.Payload()
	if len(body) < wire.IPv4HeaderLen {
		return nil, nil
	}
	// body holds the embedded IPv4 header followed by whatever of its
	// payload the router echoed back (as few as 8 bytes), optionally
	// followed by RFC 4884 extension data; wire.IPv4Packet.Payload()
	// happily returns a slice that runs into that trailing data, and
	// ExtractProbeRespSeq only ever reads the fixed-size L4 header prefix
	// it needs.
	embedded, err := wire.NewIPv4View(body)
	if err != nil {
		return nil, nil
	}

	respSeq, err := ExtractProbeRespSeq(embedded, tracingProtocol)
	if err != nil || respSeq == nil {
		return nil, nil
	}

	var ext *probe.Extensions
	if extensionsEnabled {
		ext, err = wire.ParseExtensions(icmp.RestOfHeader(), body)
		if err != nil {
			// Malformed extension object stream drops the whole response,
			// per spec §4.1 point 3 / §7 ExtensionParseError.
			return nil, nil
		}
	}

	data := probe.ResponseData{RecvAt: recvAt, SourceAddr: src, RespSeq: respSeq}
	if timeExceeded {
		return probe.TimeExceeded{ResponseData: data, Code: icmp.Code(), Extensions: ext}, nil
	}
	return probe.DestinationUnreachable{ResponseData: data, Code: icmp.Code(), Extensions: ext}, nil
}
