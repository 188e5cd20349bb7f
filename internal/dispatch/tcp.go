package dispatch

import (
	"errors"
	"net"

	"github.com/hervehildenbrand/tracecore/internal/socket"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// DispatchTCP binds sock to (src, probe.SrcPort), sets TTL and ToS, and
// begins a non-blocking connect to (dest, probe.DestPort). The returned
// half-open socket is handed to the caller, which later polls its outcome
// via internal/recv.RecvTCPSocket.
func DispatchTCP(sock socket.Socket, p probe.Probe, src, dest net.IP, tos uint8) error {
	if err := sock.Bind(src, int(p.SrcPort)); err != nil {
		return err
	}
	if err := sock.SetTTL(int(p.TTL)); err != nil {
		return err
	}
	if err := sock.SetToS(int(tos)); err != nil {
		return err
	}
	if err := sock.Connect(dest, int(p.DestPort)); err != nil {
		// An immediate refusal (RST received synchronously) is a valid
		// dispatch outcome, not a failure: internal/recv.RecvTCPSocket
		// discovers it the same way it would discover a delayed one, via
		// take_error on the next poll.
		if errors.Is(err, socket.ErrConnectionRefused) {
			return nil
		}
		return err
	}
	return nil
}
