package recv

import (
	"errors"
	"net"
	"time"

	"github.com/hervehildenbrand/tracecore/internal/socket"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// RecvTCPSocket inspects a connecting TCP probe socket and reports its
// outcome, per spec §4.5's state machine: Replied → TcpReply, Refused →
// TcpRefused, UnrchVia → TimeExceeded(code=1), anything else (including
// still-Connecting) → no response yet.
func RecvTCPSocket(sock socket.Socket, srcPort, destPort uint16, destAddr net.IP) (probe.Response, error) {
	recvAt := time.Now()

	if err := sock.TakeError(); err != nil {
		if errors.Is(err, socket.ErrConnectionRefused) {
			data := probe.ResponseData{
				RecvAt:     recvAt,
				SourceAddr: destAddr,
				RespSeq:    probe.TCPSeq{DestAddr: destAddr, SrcPort: srcPort, DestPort: destPort},
			}
			return probe.TCPRefused{ResponseData: data}, nil
		}
		if errors.Is(err, socket.ErrHostUnreachable) {
			routerAddr, ok := sock.ICMPErrorInfo()
			if !ok {
				routerAddr = destAddr
			}
			data := probe.ResponseData{
				RecvAt:     recvAt,
				SourceAddr: routerAddr,
				RespSeq:    probe.TCPSeq{DestAddr: destAddr, SrcPort: srcPort, DestPort: destPort},
			}
			return probe.TimeExceeded{ResponseData: data, Code: tcpHostUnreachableCode}, nil
		}
		// Any other platform error or still-pending handshake: no
		// response this poll.
		return nil, nil
	}

	peer, err := sock.PeerAddr()
	if err != nil {
		if errors.Is(err, socket.ErrWouldBlock) {
			return nil, nil
		}
		return nil, &probe.IOError{Op: "peer_addr", Err: err}
	}
	if peer == nil {
		return nil, probe.ErrMissingAddr
	}

	if err := sock.Shutdown(); err != nil {
		return nil, &probe.IOError{Op: "shutdown", Err: err}
	}

	data := probe.ResponseData{
		RecvAt:     recvAt,
		SourceAddr: peer,
		RespSeq:    probe.TCPSeq{DestAddr: destAddr, SrcPort: srcPort, DestPort: destPort},
	}
	return probe.TCPReply{ResponseData: data}, nil
}

// tcpHostUnreachableCode is the code value spec §4.5 assigns to the
// TimeExceeded synthesized for a host-unreachable TCP probe outcome; it
// shares a numeric value with ICMP's own fragment-reassembly code but is
// otherwise unrelated to it.
const tcpHostUnreachableCode = 1
