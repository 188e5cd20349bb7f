package socket

import "net"

// SentPacket records one SendTo/Connect call observed by a FakeSocket.
type SentPacket struct {
	Bytes []byte
	Addr  net.IP
	Port  int
}

// FakeSocket is an in-memory Socket used by internal/dispatch and
// internal/recv tests so they never touch the network, per spec §4.2's
// requirement that the dispatcher and receiver be testable against an
// in-memory fake.
type FakeSocket struct {
	Sent      []SentPacket
	Inbox     [][]byte
	InboxFrom []net.IP

	TTL, ToS int
	BoundTo  net.IP
	BoundPort int

	ConnectErr error
	PeerIP     net.IP
	PeerErr    error
	TakeErr    error
	ICMPAddr   net.IP
	ICMPOK     bool

	readPos int
	closed  bool
}

// NewFakeSocket returns a FakeSocket ready for use; all fields are
// zero-valued until the test sets them.
func NewFakeSocket() *FakeSocket { return &FakeSocket{} }

func (f *FakeSocket) Bind(laddr net.IP, port int) error {
	f.BoundTo = laddr
	f.BoundPort = port
	return nil
}

func (f *FakeSocket) Connect(raddr net.IP, port int) error {
	f.Sent = append(f.Sent, SentPacket{Addr: raddr, Port: port})
	return f.ConnectErr
}

func (f *FakeSocket) SendTo(b []byte, raddr net.IP, port int) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	f.Sent = append(f.Sent, SentPacket{Bytes: cp, Addr: raddr, Port: port})
	return nil
}

// QueueRead enqueues a datagram a subsequent Read call returns.
func (f *FakeSocket) QueueRead(b []byte, from net.IP) {
	f.Inbox = append(f.Inbox, b)
	f.InboxFrom = append(f.InboxFrom, from)
}

func (f *FakeSocket) Read(b []byte) (int, net.IP, error) {
	if f.readPos >= len(f.Inbox) {
		return 0, nil, ErrWouldBlock
	}
	msg := f.Inbox[f.readPos]
	from := f.InboxFrom[f.readPos]
	f.readPos++
	n := copy(b, msg)
	return n, from, nil
}

func (f *FakeSocket) SetTTL(ttl int) error { f.TTL = ttl; return nil }
func (f *FakeSocket) SetToS(tos int) error { f.ToS = tos; return nil }

func (f *FakeSocket) Shutdown() error {
	f.closed = true
	return nil
}

func (f *FakeSocket) PeerAddr() (net.IP, error) { return f.PeerIP, f.PeerErr }
func (f *FakeSocket) TakeError() error          { return f.TakeErr }

func (f *FakeSocket) ICMPErrorInfo() (net.IP, bool) { return f.ICMPAddr, f.ICMPOK }

// Closed reports whether Shutdown has been called.
func (f *FakeSocket) Closed() bool { return f.closed }
