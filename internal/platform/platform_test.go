package platform

import "testing"

func TestAdjustLength_Network_IsIdentity(t *testing.T) {
	for _, v := range []uint16{0, 1, 0x001c, 0x4000, 0xffff} {
		if got := AdjustLength(Network, v); got != v {
			t.Errorf("AdjustLength(Network, %#04x) = %#04x, want identity", v, got)
		}
	}
}

func TestAdjustLength_Host_Swaps(t *testing.T) {
	tests := []struct {
		in   uint16
		want uint16
	}{
		{0x001c, 0x1c00},
		{0x4000, 0x0040},
		{0xabcd, 0xcdab},
	}
	for _, tt := range tests {
		if got := AdjustLength(Host, tt.in); got != tt.want {
			t.Errorf("AdjustLength(Host, %#04x) = %#04x, want %#04x", tt.in, got, tt.want)
		}
	}
}

func TestAdjustLength_IsItsOwnInverse(t *testing.T) {
	for _, order := range []Ipv4ByteOrder{Network, Host} {
		for _, v := range []uint16{0, 0x001c, 0x4000, 0xffff, 0x1234} {
			round := AdjustLength(order, AdjustLength(order, v))
			if round != v {
				t.Errorf("order=%v: AdjustLength twice on %#04x = %#04x, want %#04x", order, v, round, v)
			}
		}
	}
}

func TestCurrent_IsAssignedAPolicy(t *testing.T) {
	if Current != Network && Current != Host {
		t.Fatalf("Current has unexpected value %v", Current)
	}
}
