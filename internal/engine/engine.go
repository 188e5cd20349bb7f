// Package engine drives internal/dispatch and internal/recv through one
// full traceroute: it owns the per-hop TTL loop, the round-trip timing,
// and per-probe socket lifecycle, the way internal/trace's per-protocol
// tracers drive golang.org/x/net/icmp in the teacher, generalized here to
// dispatch through internal/socket.Socket and correlate through
// internal/recv instead of one fixed protocol.
package engine

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hervehildenbrand/tracecore/internal/dispatch"
	"github.com/hervehildenbrand/tracecore/internal/platform"
	"github.com/hervehildenbrand/tracecore/internal/recv"
	"github.com/hervehildenbrand/tracecore/internal/socket"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// Config holds the parameters of one traceroute run.
type Config struct {
	Protocol     probe.TracingProtocol
	MaxHops      int
	ProbesPerHop int
	Timeout      time.Duration
	DestPort     uint16
	PacketSize   int
	Pattern      byte
	ToS          uint8
	Paris        bool
}

// DefaultConfig returns the traceroute defaults.
func DefaultConfig() Config {
	return Config{
		Protocol:     probe.TracingICMP,
		MaxHops:      30,
		ProbesPerHop: 3,
		Timeout:      time.Second,
		DestPort:     33434,
		PacketSize:   dispatch.MinPacketSizeICMP,
	}
}

// ProbeResult is the outcome of one dispatched probe.
type ProbeResult struct {
	RTT      time.Duration
	TimedOut bool
	Response probe.Response
}

// HopResult collects every probe result sent at one TTL.
type HopResult struct {
	TTL     int
	Results []ProbeResult
}

// Run performs a traceroute to dest, calling onHop once per completed TTL
// as soon as all of that hop's probes have resolved or timed out. It
// returns early, with whatever hops were already collected, the first
// time a probe reaches dest itself.
func Run(ctx context.Context, cfg Config, src, dest net.IP, onHop func(HopResult)) ([]HopResult, error) {
	sendSock, recvSock, err := openSockets(cfg.Protocol)
	if err != nil {
		return nil, fmt.Errorf("engine: open sockets: %w", err)
	}
	defer sendSock.Shutdown()
	defer recvSock.Shutdown()

	var hops []HopResult
	seq := uint16(0)

	for ttl := 1; ttl <= cfg.MaxHops; ttl++ {
		select {
		case <-ctx.Done():
			return hops, ctx.Err()
		default:
		}

		hop := HopResult{TTL: ttl}
		reached := false

		for i := 0; i < cfg.ProbesPerHop; i++ {
			seq++
			p := probe.Probe{
				Sequence:   seq,
				Identifier: seq,
				SrcPort:    uint16(33000 + ttl),
				DestPort:   cfg.DestPort,
				TTL:        uint8(ttl),
				SentAt:     time.Now(),
			}
			if cfg.Paris {
				p.Flags |= probe.FlagParisChecksum
			}

			result, err := runOneProbe(ctx, cfg, sendSock, recvSock, p, src, dest)
			if err != nil {
				return hops, err
			}
			hop.Results = append(hop.Results, result)
			if result.Response != nil && result.Response.Data().SourceAddr.Equal(dest) {
				reached = true
			}
		}

		hops = append(hops, hop)
		if onHop != nil {
			onHop(hop)
		}
		if reached {
			break
		}
	}

	return hops, nil
}

// ProbeOneHop sends exactly one probe at the given TTL and reports its
// outcome, independent of any ongoing Run loop — the primitive
// cmd/tracecore-mcp's single-hop tool needs, where a caller wants one
// specific TTL rather than the whole TTL-1-to-target sweep Run performs.
func ProbeOneHop(ctx context.Context, cfg Config, src, dest net.IP, ttl int) (ProbeResult, error) {
	sendSock, recvSock, err := openSockets(cfg.Protocol)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("engine: open sockets: %w", err)
	}
	defer sendSock.Shutdown()
	defer recvSock.Shutdown()

	p := probe.Probe{
		Sequence:   uint16(ttl),
		Identifier: uint16(ttl),
		SrcPort:    uint16(33000 + ttl),
		DestPort:   cfg.DestPort,
		TTL:        uint8(ttl),
		SentAt:     time.Now(),
	}
	if cfg.Paris {
		p.Flags |= probe.FlagParisChecksum
	}

	return runOneProbe(ctx, cfg, sendSock, recvSock, p, src, dest)
}

func runOneProbe(ctx context.Context, cfg Config, sendSock, recvSock socket.Socket, p probe.Probe, src, dest net.IP) (ProbeResult, error) {
	start := time.Now()

	switch cfg.Protocol {
	case probe.TracingICMP:
		if err := dispatch.DispatchICMP(sendSock, p, src, dest, cfg.PacketSize, cfg.Pattern, platform.Current); err != nil {
			return ProbeResult{}, fmt.Errorf("engine: dispatch icmp: %w", err)
		}
		return pollICMP(ctx, cfg, recvSock, start)

	case probe.TracingUDP:
		if err := dispatch.DispatchUDPRaw(sendSock, p, src, dest, cfg.PacketSize, cfg.Pattern, platform.Current); err != nil {
			return ProbeResult{}, fmt.Errorf("engine: dispatch udp: %w", err)
		}
		return pollICMP(ctx, cfg, recvSock, start)

	case probe.TracingTCP:
		probeSock, err := socket.NewStreamSocketIPv4()
		if err != nil {
			return ProbeResult{}, fmt.Errorf("engine: open tcp probe socket: %w", err)
		}
		defer probeSock.Shutdown()
		if err := dispatch.DispatchTCP(probeSock, p, src, dest, cfg.ToS); err != nil {
			return ProbeResult{}, fmt.Errorf("engine: dispatch tcp: %w", err)
		}
		return pollTCP(ctx, cfg, probeSock, p, dest, start)

	default:
		return ProbeResult{}, fmt.Errorf("engine: unsupported tracing protocol %v", cfg.Protocol)
	}
}

func pollICMP(ctx context.Context, cfg Config, recvSock socket.Socket, start time.Time) (ProbeResult, error) {
	deadline := start.Add(cfg.Timeout)
	for {
		resp, err := recv.RecvICMPProbe(recvSock, cfg.Protocol, false)
		if err != nil {
			return ProbeResult{}, fmt.Errorf("engine: recv icmp: %w", err)
		}
		if resp != nil {
			return ProbeResult{RTT: time.Since(start), Response: resp}, nil
		}
		select {
		case <-ctx.Done():
			return ProbeResult{}, ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			return ProbeResult{TimedOut: true}, nil
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func pollTCP(ctx context.Context, cfg Config, probeSock socket.Socket, p probe.Probe, dest net.IP, start time.Time) (ProbeResult, error) {
	deadline := start.Add(cfg.Timeout)
	for {
		resp, err := recv.RecvTCPSocket(probeSock, p.SrcPort, p.DestPort, dest)
		if err != nil {
			return ProbeResult{}, fmt.Errorf("engine: recv tcp: %w", err)
		}
		if resp != nil {
			return ProbeResult{RTT: time.Since(start), Response: resp}, nil
		}
		select {
		case <-ctx.Done():
			return ProbeResult{}, ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			return ProbeResult{TimedOut: true}, nil
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func openSockets(p probe.TracingProtocol) (send, recvSock socket.Socket, err error) {
	switch p {
	case probe.TracingICMP:
		send, err = socket.NewICMPSendSocketIPv4()
		if err != nil {
			return nil, nil, err
		}
		recvSock, err = socket.NewRecvSocketIPv4()
		if err != nil {
			send.Shutdown()
			return nil, nil, err
		}
		return send, recvSock, nil

	case probe.TracingUDP:
		send, err = socket.NewUDPSendSocketIPv4Raw()
		if err != nil {
			return nil, nil, err
		}
		recvSock, err = socket.NewRecvSocketIPv4()
		if err != nil {
			send.Shutdown()
			return nil, nil, err
		}
		return send, recvSock, nil

	case probe.TracingTCP:
		// TCP dispatch opens one fresh stream socket per probe (runOneProbe);
		// the shared send/recv pair is unused but kept non-nil so callers
		// can defer Shutdown unconditionally.
		send, err = socket.NewStreamSocketIPv4()
		if err != nil {
			return nil, nil, err
		}
		recvSock = send
		return send, recvSock, nil

	default:
		return nil, nil, fmt.Errorf("engine: unsupported tracing protocol %v", p)
	}
}
