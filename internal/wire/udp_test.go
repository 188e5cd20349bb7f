package wire

import "testing"

func TestUDPPacket_S2HeaderFields(t *testing.T) {
	// Scenario S2 header portion (pre-Paris-swap): src_port=123,
	// dest_port=456, length=10 (8-byte header + 2-byte payload).
	buf := make([]byte, UDPHeaderLen+2)
	udp, err := NewUDP(buf)
	if err != nil {
		t.Fatalf("NewUDP: %v", err)
	}
	udp.SetSrcPort(123)
	udp.SetDestPort(456)
	udp.SetLength(10)

	want := []byte{0x00, 0x7b, 0x01, 0xc8, 0x00, 0x0a}
	if got := udp.Packet()[:6]; string(got) != string(want) {
		t.Fatalf("header bytes = % x, want % x", got, want)
	}
}

func TestUDPPacket_ChecksumFieldHoldsParisSequence(t *testing.T) {
	// After a Paris swap, the checksum field holds the sequence number
	// verbatim (spec S2); the wire codec itself is agnostic to the swap,
	// it just needs to read/write the field faithfully.
	buf := make([]byte, UDPHeaderLen)
	udp, _ := NewUDP(buf)
	udp.SetChecksum(33000)
	if got := udp.Checksum(); got != 0x80e8 {
		t.Fatalf("Checksum() = %#04x, want 0x80e8", got)
	}
}

func TestNewUDP_RejectsShortBuffer(t *testing.T) {
	if _, err := NewUDP(make([]byte, 2)); err == nil {
		t.Fatal("expected error for undersized buffer")
	}
}

func TestUDPChecksumIPv4_S4Checksum(t *testing.T) {
	// Property 2: UDP checksum verifies over the pseudo-header for a
	// well-formed classic (non-Paris) probe.
	src := [4]byte{192, 168, 1, 2}
	dst := [4]byte{142, 250, 204, 142}

	buf := make([]byte, UDPHeaderLen)
	udp, _ := NewUDP(buf)
	udp.SetSrcPort(31829)
	udp.SetDestPort(33030)
	udp.SetLength(UDPHeaderLen)

	cksum := UDPChecksumIPv4(src, dst, udp.Packet())
	udp.SetChecksum(cksum)

	verify := UDPChecksumIPv4(src, dst, udp.Packet())
	if verify != 0 && verify != 0xffff {
		t.Fatalf("checksum verification over populated checksum field = %#04x, want 0 or 0xffff", verify)
	}
}
