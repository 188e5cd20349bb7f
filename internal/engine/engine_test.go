package engine

import (
	"testing"
	"time"

	"github.com/hervehildenbrand/tracecore/internal/dispatch"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

func TestDefaultConfig_UsesICMPAndICMPMinSize(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Protocol != probe.TracingICMP {
		t.Errorf("Protocol = %v, want TracingICMP", cfg.Protocol)
	}
	if cfg.PacketSize != dispatch.MinPacketSizeICMP {
		t.Errorf("PacketSize = %d, want %d", cfg.PacketSize, dispatch.MinPacketSizeICMP)
	}
	if cfg.MaxHops != 30 {
		t.Errorf("MaxHops = %d, want 30", cfg.MaxHops)
	}
	if cfg.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", cfg.Timeout)
	}
}
