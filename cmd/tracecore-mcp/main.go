// Command tracecore-mcp exposes a single traceroute hop probe as an MCP
// tool, so an MCP-speaking agent can issue one probe at a time instead of
// shelling out to the tracecore CLI's full run-to-completion trace.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hervehildenbrand/tracecore/internal/dispatch"
	"github.com/hervehildenbrand/tracecore/internal/engine"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// Version is set at build time.
var Version = "dev"

func main() {
	s := server.NewMCPServer("tracecore-mcp", Version)

	tool := mcp.NewTool("trace_hop",
		mcp.WithDescription("Send one traceroute probe at a given TTL and report what came back: the hop address, round-trip time, and outcome (time exceeded, echo reply, destination unreachable, TCP reply, or TCP refused)."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target IPv4 address or hostname")),
		mcp.WithNumber("ttl", mcp.Required(), mcp.Description("TTL to set on the outbound probe (1-255)")),
		mcp.WithString("protocol", mcp.Description("icmp, udp, or tcp (default icmp)")),
		mcp.WithNumber("port", mcp.Description("Destination port for udp/tcp probes (default 33434)")),
		mcp.WithNumber("timeout_ms", mcp.Description("How long to wait for a response, in milliseconds (default 1000)")),
	)
	s.AddTool(tool, handleTraceHop)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("tracecore-mcp: %v", err)
	}
}

func handleTraceHop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ttl, err := req.RequireFloat("ttl")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	protoName := req.GetString("protocol", "icmp")
	tracingProtocol, ok := protocolFromName(protoName)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid protocol %q: must be icmp, udp, or tcp", protoName)), nil
	}
	port := req.GetFloat("port", 33434)
	timeoutMs := req.GetFloat("timeout_ms", 1000)

	dest, err := resolveTarget(target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := outboundSource(dest)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg := engine.DefaultConfig()
	cfg.Protocol = tracingProtocol
	cfg.Timeout = time.Duration(timeoutMs) * time.Millisecond
	cfg.DestPort = uint16(port)
	if tracingProtocol == probe.TracingUDP {
		cfg.PacketSize = dispatch.MinPacketSizeUDP
	}

	result, err := engine.ProbeOneHop(ctx, cfg, src, dest, int(ttl))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(summarize(int(ttl), result)), nil
}

func protocolFromName(name string) (probe.TracingProtocol, bool) {
	switch name {
	case "icmp", "":
		return probe.TracingICMP, true
	case "udp":
		return probe.TracingUDP, true
	case "tcp":
		return probe.TracingTCP, true
	default:
		return 0, false
	}
}

func summarize(ttl int, pr engine.ProbeResult) string {
	if pr.TimedOut || pr.Response == nil {
		return fmt.Sprintf("ttl=%d: no response (timeout)", ttl)
	}
	data := pr.Response.Data()
	return fmt.Sprintf("ttl=%d: %T from %s, rtt=%s", ttl, pr.Response, data.SourceAddr, pr.RTT)
}

func resolveTarget(target string) (net.IP, error) {
	if ip := net.ParseIP(target); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("%s is not an IPv4 address", target)
	}
	ips, err := net.LookupIP(target)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("%s has no IPv4 address", target)
}

func outboundSource(dest net.IP) (net.IP, error) {
	conn, err := net.Dial("udp4", net.JoinHostPort(dest.String(), "80"))
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP.To4(), nil
}
