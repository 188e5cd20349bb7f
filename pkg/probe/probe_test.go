package probe

import "testing"

func TestFlags_Has(t *testing.T) {
	tests := []struct {
		name string
		set  Flags
		want Flags
		has  bool
	}{
		{"paris set", FlagParisChecksum, FlagParisChecksum, true},
		{"paris unset", FlagDublinIPv6PayloadLength, FlagParisChecksum, false},
		{"both set, query dublin", FlagParisChecksum | FlagDublinIPv6PayloadLength, FlagDublinIPv6PayloadLength, true},
		{"zero value", 0, FlagParisChecksum, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.set.Has(tt.want); got != tt.has {
				t.Errorf("Flags(%v).Has(%v) = %v, want %v", tt.set, tt.want, got, tt.has)
			}
		})
	}
}

func TestResponse_VariantsSatisfyInterface(t *testing.T) {
	var responses = []Response{
		EchoReply{},
		TimeExceeded{},
		DestinationUnreachable{},
		TCPReply{},
		TCPRefused{},
	}

	for _, r := range responses {
		_ = r.Data() // must not panic
	}
}

func TestResponseSeq_VariantsSatisfyInterface(t *testing.T) {
	var seqs = []ResponseSeq{
		ICMPSeq{Identifier: 1, Sequence: 2},
		UDPSeq{Identifier: 1},
		TCPSeq{SrcPort: 1, DestPort: 2},
	}
	if len(seqs) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(seqs))
	}
}
