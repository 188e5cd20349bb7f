package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hervehildenbrand/tracecore/internal/dispatch"
	"github.com/hervehildenbrand/tracecore/internal/engine"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// Config holds the parsed CLI configuration.
type Config struct {
	Target       string
	Protocol     string
	Port         int
	MaxHops      int
	Probes       int
	Timeout      string
	Paris        bool
	NoColor      bool
}

var validProtocols = map[string]probe.TracingProtocol{
	"icmp": probe.TracingICMP,
	"udp":  probe.TracingUDP,
	"tcp":  probe.TracingTCP,
}

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	var cfg Config

	cmd := &cobra.Command{
		Use:   "tracecore <target>",
		Short: "Minimal IPv4 traceroute engine",
		Long: `tracecore dispatches ICMP, UDP (Paris with --paris), or TCP probes at increasing TTLs
and correlates whatever a router or the destination echoes back, entirely
from the bytes in the response — no per-probe state kept on the wire.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := validProtocols[cfg.Protocol]; !ok {
				return fmt.Errorf("invalid protocol %q: must be icmp, udp, or tcp", cfg.Protocol)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Target = args[0]
			return runTrace(cmd, &cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Protocol, "protocol", "icmp", "Protocol: icmp|udp|tcp")
	cmd.Flags().IntVar(&cfg.Port, "port", 33434, "Destination port for udp/tcp")
	cmd.Flags().IntVar(&cfg.MaxHops, "max-hops", 30, "Maximum TTL")
	cmd.Flags().IntVar(&cfg.Probes, "probes", 3, "Probes per hop")
	cmd.Flags().StringVar(&cfg.Timeout, "timeout", "1s", "Per-probe timeout")
	cmd.Flags().BoolVar(&cfg.Paris, "paris", false, "Use the Paris UDP checksum/payload swap")
	cmd.Flags().BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")

	return cmd
}

func runTrace(cmd *cobra.Command, cfg *Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	dest, err := resolveTarget(cfg.Target)
	if err != nil {
		return fmt.Errorf("failed to resolve target: %w", err)
	}
	src, err := outboundSource(dest)
	if err != nil {
		return fmt.Errorf("failed to determine source address: %w", err)
	}

	tracingProtocol := validProtocols[cfg.Protocol]
	eng := engine.DefaultConfig()
	eng.Protocol = tracingProtocol
	eng.MaxHops = cfg.MaxHops
	eng.ProbesPerHop = cfg.Probes
	eng.Timeout = timeout
	eng.DestPort = uint16(cfg.Port)
	eng.Paris = cfg.Paris
	if tracingProtocol == probe.TracingUDP {
		eng.PacketSize = dispatch.MinPacketSizeUDP
	}

	r := newHopRenderer(cfg.NoColor)
	fmt.Fprintf(cmd.OutOrStdout(), "tracecore to %s (%s), %d hops max, protocol %s\n",
		cfg.Target, dest, cfg.MaxHops, cfg.Protocol)

	_, err = engine.Run(ctx, eng, src, dest, func(h engine.HopResult) {
		fmt.Fprintln(cmd.OutOrStdout(), r.renderHop(h))
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.OutOrStdout(), "\ntrace interrupted")
			return nil
		}
		return err
	}

	return nil
}

// resolveTarget parses target as a literal IPv4 address or resolves it as
// a hostname, preferring the first IPv4 result.
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

// outboundSource finds the local IPv4 address the kernel would route
// through to reach dest, without sending any traffic.
func outboundSource(dest net.IP) (net.IP, error) {
	conn, err := net.Dial("udp4", net.JoinHostPort(dest.String(), "80"))
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP.To4(), nil
}

var (
	hopNumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(4)
	ipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	rttStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	timeoutStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)
