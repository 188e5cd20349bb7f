package main

import (
	"bytes"
	"testing"
)

func TestRootCommand_RequiresTarget(t *testing.T) {
	cmd := NewRootCmd("test")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when no target provided")
	}
}

func TestRootCommand_RejectsInvalidProtocol(t *testing.T) {
	cmd := NewRootCmd("test")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"192.0.2.1", "--protocol", "sctp"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for invalid protocol")
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

func TestResolveTarget_RejectsLiteralIPv6(t *testing.T) {
	_, err := resolveTarget("2001:db8::1")
	if err == nil {
		t.Error("expected error for IPv6 literal")
	}
}
