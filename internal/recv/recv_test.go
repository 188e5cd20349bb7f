package recv

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/hervehildenbrand/tracecore/internal/socket"
	"github.com/hervehildenbrand/tracecore/internal/wire"
	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

func buildOuterIPv4(t *testing.T, src, dst net.IP, protocol uint8, payload []byte) []byte {
	t.Helper()
	buf := make([]byte, wire.IPv4HeaderLen+len(payload))
	ip, err := wire.NewIPv4(buf)
	if err != nil {
		t.Fatalf("NewIPv4: %v", err)
	}
	ip.Initialize()
	ip.SetTTL(64)
	ip.SetProtocol(protocol)
	ip.SetSrcAddr(src)
	ip.SetDstAddr(dst)
	copy(ip.Payload(), payload)
	return buf
}

func buildEmbeddedIPv4UDP(t *testing.T, identification uint16, dst net.IP, srcPort, destPort, checksum, length uint16) []byte {
	t.Helper()
	udpBuf := make([]byte, wire.UDPHeaderLen)
	udp, _ := wire.NewUDP(udpBuf)
	udp.SetSrcPort(srcPort)
	udp.SetDestPort(destPort)
	udp.SetLength(length)
	udp.SetChecksum(checksum)

	ipBuf := make([]byte, wire.IPv4HeaderLen+wire.UDPHeaderLen)
	ip, _ := wire.NewIPv4(ipBuf)
	ip.Initialize()
	ip.SetIdentification(identification)
	ip.SetProtocol(wire.ProtocolUDP)
	ip.SetDstAddr(dst)
	copy(ip.Payload(), udpBuf)
	return ipBuf
}

func buildICMPTimeExceeded(t *testing.T, code uint8, embedded []byte) []byte {
	t.Helper()
	buf := make([]byte, wire.ICMPHeaderLen+len(embedded))
	icmp, _ := wire.NewICMP(buf)
	icmp.SetType(wire.ICMPTypeTimeExceeded)
	icmp.SetCode(code)
	copy(icmp.Payload(), embedded)
	return buf
}

func TestRecvICMPProbe_S4TimeExceededUDP(t *testing.T) {
	router := net.IPv4(192, 168, 1, 1)
	embeddedDest := net.IPv4(142, 250, 204, 142)
	embedded := buildEmbeddedIPv4UDP(t, 36969, embeddedDest, 31829, 33030, 58571, 64)
	icmpMsg := buildICMPTimeExceeded(t, 0, embedded)
	outer := buildOuterIPv4(t, router, net.IPv4(10, 0, 0, 1), wire.ProtocolICMP, icmpMsg)

	sock := socket.NewFakeSocket()
	sock.QueueRead(outer, router)

	resp, err := RecvICMPProbe(sock, probe.TracingUDP, false)
	if err != nil {
		t.Fatalf("RecvICMPProbe: %v", err)
	}
	te, ok := resp.(probe.TimeExceeded)
	if !ok {
		t.Fatalf("response = %T, want probe.TimeExceeded", resp)
	}
	if !te.Data().SourceAddr.Equal(router) {
		t.Fatalf("SourceAddr = %v, want %v", te.Data().SourceAddr, router)
	}
	if te.Code != 0 {
		t.Fatalf("Code = %d, want 0", te.Code)
	}
	seq, ok := te.Data().RespSeq.(probe.UDPSeq)
	if !ok {
		t.Fatalf("RespSeq = %T, want probe.UDPSeq", te.Data().RespSeq)
	}
	want := probe.UDPSeq{
		Identifier: 36969,
		DestAddr:   embeddedDest,
		SrcPort:    31829,
		DestPort:   33030,
		Checksum:   58571,
		PayloadLen: 56,
		HasMagic:   false,
	}
	if seq.Identifier != want.Identifier || !seq.DestAddr.Equal(want.DestAddr) ||
		seq.SrcPort != want.SrcPort || seq.DestPort != want.DestPort ||
		seq.Checksum != want.Checksum || seq.PayloadLen != want.PayloadLen || seq.HasMagic != want.HasMagic {
		t.Fatalf("UDPSeq = %+v, want %+v", seq, want)
	}
}

func TestRecvICMPProbe_S5EchoReply(t *testing.T) {
	host := net.IPv4(142, 251, 222, 206)
	icmpBuf := make([]byte, wire.ICMPHeaderLen)
	icmp, _ := wire.NewICMP(icmpBuf)
	icmp.SetType(wire.ICMPTypeEchoReply)
	icmp.SetCode(0)
	icmp.SetIdentifier(30167)
	icmp.SetSequence(33049)

	outer := buildOuterIPv4(t, host, net.IPv4(10, 0, 0, 1), wire.ProtocolICMP, icmpBuf)

	sock := socket.NewFakeSocket()
	sock.QueueRead(outer, host)

	resp, err := RecvICMPProbe(sock, probe.TracingICMP, false)
	if err != nil {
		t.Fatalf("RecvICMPProbe: %v", err)
	}
	er, ok := resp.(probe.EchoReply)
	if !ok {
		t.Fatalf("response = %T, want probe.EchoReply", resp)
	}
	if er.Code != 0 {
		t.Fatalf("Code = %d, want 0", er.Code)
	}
	seq, ok := er.Data().RespSeq.(probe.ICMPSeq)
	if !ok || seq.Identifier != 30167 || seq.Sequence != 33049 {
		t.Fatalf("RespSeq = %+v, want {30167 33049}", er.Data().RespSeq)
	}
}

func TestRecvICMPProbe_S6FragmentReassemblyIgnored(t *testing.T) {
	embedded := buildEmbeddedIPv4UDP(t, 1, net.IPv4(1, 1, 1, 1), 2, 3, 4, 8)
	icmpMsg := buildICMPTimeExceeded(t, 1, embedded)
	outer := buildOuterIPv4(t, net.IPv4(192, 168, 1, 1), net.IPv4(10, 0, 0, 1), wire.ProtocolICMP, icmpMsg)

	sock := socket.NewFakeSocket()
	sock.QueueRead(outer, net.IPv4(192, 168, 1, 1))

	resp, err := RecvICMPProbe(sock, probe.TracingUDP, false)
	if err != nil {
		t.Fatalf("RecvICMPProbe: %v", err)
	}
	if resp != nil {
		t.Fatalf("response = %+v, want nil (fragment-reassembly code must be dropped)", resp)
	}
}

func TestRecvICMPProbe_ProtocolMismatchDropped(t *testing.T) {
	// Property 7: embedded ICMP ignored when tracing UDP.
	embeddedICMP := make([]byte, wire.ICMPHeaderLen)
	icmp, _ := wire.NewICMP(embeddedICMP)
	icmp.SetType(wire.ICMPTypeEchoRequest)

	embeddedIP := make([]byte, wire.IPv4HeaderLen+wire.ICMPHeaderLen)
	ip, _ := wire.NewIPv4(embeddedIP)
	ip.Initialize()
	ip.SetProtocol(wire.ProtocolICMP)
	copy(ip.Payload(), embeddedICMP)

	icmpMsg := buildICMPTimeExceeded(t, 0, embeddedIP)
	outer := buildOuterIPv4(t, net.IPv4(192, 168, 1, 1), net.IPv4(10, 0, 0, 1), wire.ProtocolICMP, icmpMsg)

	sock := socket.NewFakeSocket()
	sock.QueueRead(outer, net.IPv4(192, 168, 1, 1))

	resp, err := RecvICMPProbe(sock, probe.TracingUDP, false)
	if err != nil {
		t.Fatalf("RecvICMPProbe: %v", err)
	}
	if resp != nil {
		t.Fatalf("response = %+v, want nil (protocol mismatch must be dropped)", resp)
	}
}

func TestRecvICMPProbe_WouldBlockYieldsNilNil(t *testing.T) {
	sock := socket.NewFakeSocket()
	resp, err := RecvICMPProbe(sock, probe.TracingICMP, false)
	if err != nil || resp != nil {
		t.Fatalf("RecvICMPProbe on empty socket = (%v,%v), want (nil,nil)", resp, err)
	}
}

func TestExtractProbeRespSeq_TCPTruncatedTo8Bytes(t *testing.T) {
	// Property 8: a TCP header truncated to exactly 8 bytes still yields a
	// correct (src_port, dest_port) extraction.
	tcpHeader := make([]byte, 8)
	binary.BigEndian.PutUint16(tcpHeader[0:2], 1234)
	binary.BigEndian.PutUint16(tcpHeader[2:4], 80)

	embeddedIP := make([]byte, wire.IPv4HeaderLen+len(tcpHeader))
	ip, _ := wire.NewIPv4(embeddedIP)
	ip.Initialize()
	ip.SetProtocol(wire.ProtocolTCP)
	dest := net.IPv4(9, 9, 9, 9)
	ip.SetDstAddr(dest)
	copy(ip.Payload(), tcpHeader)

	view, err := wire.NewIPv4View(embeddedIP)
	if err != nil {
		t.Fatalf("NewIPv4View: %v", err)
	}

	seq, err := ExtractProbeRespSeq(view, probe.TracingTCP)
	if err != nil {
		t.Fatalf("ExtractProbeRespSeq: %v", err)
	}
	tcpSeq, ok := seq.(probe.TCPSeq)
	if !ok {
		t.Fatalf("seq = %T, want probe.TCPSeq", seq)
	}
	if tcpSeq.SrcPort != 1234 || tcpSeq.DestPort != 80 || !tcpSeq.DestAddr.Equal(dest) {
		t.Fatalf("TCPSeq = %+v, want {9.9.9.9 1234 80}", tcpSeq)
	}
}

func TestRecvTCPSocket_Reply(t *testing.T) {
	sock := socket.NewFakeSocket()
	dest := net.IPv4(8, 8, 8, 8)
	sock.PeerIP = dest

	resp, err := RecvTCPSocket(sock, 123, 80, dest)
	if err != nil {
		t.Fatalf("RecvTCPSocket: %v", err)
	}
	if _, ok := resp.(probe.TCPReply); !ok {
		t.Fatalf("response = %T, want probe.TCPReply", resp)
	}
	if !sock.Closed() {
		t.Fatal("expected socket to be shut down on TcpReply")
	}
}

func TestRecvTCPSocket_Refused(t *testing.T) {
	sock := socket.NewFakeSocket()
	sock.TakeErr = socket.ErrConnectionRefused
	dest := net.IPv4(8, 8, 8, 8)

	resp, err := RecvTCPSocket(sock, 123, 80, dest)
	if err != nil {
		t.Fatalf("RecvTCPSocket: %v", err)
	}
	refused, ok := resp.(probe.TCPRefused)
	if !ok {
		t.Fatalf("response = %T, want probe.TCPRefused", resp)
	}
	if !refused.Data().SourceAddr.Equal(dest) {
		t.Fatalf("SourceAddr = %v, want %v", refused.Data().SourceAddr, dest)
	}
}

func TestRecvTCPSocket_HostUnreachable(t *testing.T) {
	sock := socket.NewFakeSocket()
	sock.TakeErr = socket.ErrHostUnreachable
	router := net.IPv4(192, 168, 1, 1)
	sock.ICMPAddr = router
	sock.ICMPOK = true
	dest := net.IPv4(8, 8, 8, 8)

	resp, err := RecvTCPSocket(sock, 123, 80, dest)
	if err != nil {
		t.Fatalf("RecvTCPSocket: %v", err)
	}
	te, ok := resp.(probe.TimeExceeded)
	if !ok {
		t.Fatalf("response = %T, want probe.TimeExceeded", resp)
	}
	if te.Code != 1 {
		t.Fatalf("Code = %d, want 1", te.Code)
	}
	if !te.Data().SourceAddr.Equal(router) {
		t.Fatalf("SourceAddr = %v, want %v", te.Data().SourceAddr, router)
	}
}

func TestRecvTCPSocket_StillPendingYieldsNil(t *testing.T) {
	sock := socket.NewFakeSocket()
	sock.PeerErr = socket.ErrWouldBlock

	resp, err := RecvTCPSocket(sock, 123, 80, net.IPv4(8, 8, 8, 8))
	if err != nil || resp != nil {
		t.Fatalf("RecvTCPSocket still pending = (%v,%v), want (nil,nil)", resp, err)
	}
}
