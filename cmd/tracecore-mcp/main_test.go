package main

import (
	"net"
	"testing"
	"time"

	"github.com/hervehildenbrand/tracecore/internal/engine"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

func TestProtocolFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    probe.TracingProtocol
		wantOK  bool
	}{
		{"icmp", probe.TracingICMP, true},
		{"", probe.TracingICMP, true},
		{"udp", probe.TracingUDP, true},
		{"tcp", probe.TracingTCP, true},
		{"sctp", 0, false},
	}
	for _, tt := range tests {
		got, ok := protocolFromName(tt.name)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("protocolFromName(%q) = (%v,%v), want (%v,%v)", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSummarize_Timeout(t *testing.T) {
	got := summarize(5, engine.ProbeResult{TimedOut: true})
	want := "ttl=5: no response (timeout)"
	if got != want {
		t.Errorf("summarize = %q, want %q", got, want)
	}
}

func TestSummarize_Response(t *testing.T) {
	pr := engine.ProbeResult{
		RTT: 10 * time.Millisecond,
		Response: probe.EchoReply{
			ResponseData: probe.ResponseData{SourceAddr: net.IPv4(8, 8, 8, 8)},
		},
	}
	got := summarize(3, pr)
	want := "ttl=3: probe.EchoReply from 8.8.8.8, rtt=10ms"
	if got != want {
		t.Errorf("summarize = %q, want %q", got, want)
	}
}

func TestResolveTarget_AcceptsLiteralIPv4(t *testing.T) {
	ip, err := resolveTarget("192.0.2.1")
	if err != nil {
		t.Fatalf("resolveTarget: %v", err)
	}
	if ip.String() != "192.0.2.1" {
		t.Errorf("ip = %v, want 192.0.2.1", ip)
	}
}
