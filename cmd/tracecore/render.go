package main

import (
	"fmt"
	"strings"

	"github.com/hervehildenbrand/tracecore/internal/engine"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// hopRenderer formats one engine.HopResult as a single traceroute-style
// line, the way internal/display.SimpleRenderer does in the teacher, but
// against tracecore's own Response variants instead of pkg/hop.Hop.
type hopRenderer struct {
	noColor bool
}

func newHopRenderer(noColor bool) *hopRenderer {
	return &hopRenderer{noColor: noColor}
}

func (r *hopRenderer) renderHop(h engine.HopResult) string {
	var parts []string
	parts = append(parts, r.style(hopNumStyle, fmt.Sprintf("%2d", h.TTL)))

	seen := make(map[string]bool)
	for _, pr := range h.Results {
		if pr.TimedOut || pr.Response == nil {
			parts = append(parts, r.style(timeoutStyle, "*"))
			continue
		}
		addr := pr.Response.Data().SourceAddr.String()
		if !seen[addr] {
			seen[addr] = true
			parts = append(parts, r.style(ipStyle, addr))
		}
		parts = append(parts, r.style(rttStyle, formatRTT(pr)))
		if label := outcomeLabel(pr.Response); label != "" {
			parts = append(parts, label)
		}
	}

	return strings.Join(parts, "  ")
}

func formatRTT(pr engine.ProbeResult) string {
	return fmt.Sprintf("%.2fms", float64(pr.RTT.Microseconds())/1000.0)
}

// outcomeLabel annotates responses that aren't a plain TimeExceeded hop,
// mirroring the teacher's bracketed MPLS/NAT/MTU annotations.
func outcomeLabel(resp probe.Response) string {
	switch resp.(type) {
	case probe.EchoReply:
		return "[reached]"
	case probe.DestinationUnreachable:
		return "[unreachable]"
	case probe.TCPReply:
		return "[reached]"
	case probe.TCPRefused:
		return "[refused]"
	default:
		return ""
	}
}

func (r *hopRenderer) style(s interface{ Render(...string) string }, text string) string {
	if r.noColor {
		return text
	}
	return s.Render(text)
}
