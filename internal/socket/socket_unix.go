//go:build !windows

package socket

import (
	"net"
	"syscall"
)

// unixSocket is a Socket backed by a raw syscall file descriptor, the same
// level the teacher's createRawSocket/sendToSocket/connectSocket helpers
// operate at.
type unixSocket struct {
	fd       int
	domain   int
	sockType int
	proto    int
	hdrincl  bool
	connTo   net.IP
}

func newUnixSocket(domain, sockType, proto int, hdrincl bool) (*unixSocket, error) {
	fd, err := syscall.Socket(domain, sockType, proto)
	if err != nil {
		if err == syscall.EPERM || err == syscall.EACCES {
			return nil, &OpError{Op: "socket", Err: ErrPermissionDenied}
		}
		return nil, &OpError{Op: "socket", Err: err}
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		syscall.Close(fd)
		return nil, &OpError{Op: "setnonblock", Err: err}
	}
	if hdrincl {
		if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_IP, syscall.IP_HDRINCL, 1); err != nil {
			syscall.Close(fd)
			return nil, &OpError{Op: "setsockopt(IP_HDRINCL)", Err: err}
		}
	}
	return &unixSocket{fd: fd, domain: domain, sockType: sockType, proto: proto, hdrincl: hdrincl}, nil
}

// NewICMPSendSocketIPv4 opens an IP_HDRINCL raw socket for dispatching
// hand-built ICMP/IPv4 probes.
func NewICMPSendSocketIPv4() (Socket, error) {
	return newUnixSocket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_ICMP, true)
}

// NewUDPSendSocketIPv4Raw opens an IP_HDRINCL raw socket for dispatching
// hand-built UDP/IPv4 probes (needed for the Dublin-IPv4 identification
// trick and the Paris checksum/payload swap, both of which require control
// over bytes the kernel would otherwise own).
func NewUDPSendSocketIPv4Raw() (Socket, error) {
	return newUnixSocket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_RAW, true)
}

// NewUDPSendSocketIPv4 opens an ordinary unprivileged UDP socket, used when
// neither Paris nor Dublin tricks are requested and the kernel can own
// IP/UDP header construction.
func NewUDPSendSocketIPv4() (Socket, error) {
	return newUnixSocket(syscall.AF_INET, syscall.SOCK_DGRAM, syscall.IPPROTO_UDP, false)
}

// NewRecvSocketIPv4 opens a raw ICMP socket for receiving probe responses.
func NewRecvSocketIPv4() (Socket, error) {
	return newUnixSocket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_ICMP, false)
}

// NewStreamSocketIPv4 opens a non-blocking TCP socket for TCP SYN probes.
func NewStreamSocketIPv4() (Socket, error) {
	return newUnixSocket(syscall.AF_INET, syscall.SOCK_STREAM, syscall.IPPROTO_TCP, false)
}

func toSockaddr(ip net.IP, port int) syscall.Sockaddr {
	var addr [4]byte
	copy(addr[:], ip.To4())
	return &syscall.SockaddrInet4{Port: port, Addr: addr}
}

func (s *unixSocket) Bind(laddr net.IP, port int) error {
	if err := syscall.Bind(s.fd, toSockaddr(laddr, port)); err != nil {
		return &OpError{Op: "bind", Err: err}
	}
	return nil
}

func (s *unixSocket) Connect(raddr net.IP, port int) error {
	s.connTo = raddr
	err := syscall.Connect(s.fd, toSockaddr(raddr, port))
	if err == nil || err == syscall.EINPROGRESS {
		return nil
	}
	if err == syscall.ECONNREFUSED {
		return &OpError{Op: "connect", Err: ErrConnectionRefused}
	}
	return &OpError{Op: "connect", Err: err}
}

func (s *unixSocket) SendTo(b []byte, raddr net.IP, port int) error {
	if err := syscall.Sendto(s.fd, b, 0, toSockaddr(raddr, port)); err != nil {
		return &OpError{Op: "sendto", Err: err}
	}
	return nil
}

func (s *unixSocket) Read(b []byte) (int, net.IP, error) {
	n, from, err := syscall.Recvfrom(s.fd, b, 0)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, nil, ErrWouldBlock
		}
		return 0, nil, &OpError{Op: "recvfrom", Err: err}
	}
	sa4, ok := from.(*syscall.SockaddrInet4)
	if !ok {
		return n, nil, nil
	}
	return n, net.IPv4(sa4.Addr[0], sa4.Addr[1], sa4.Addr[2], sa4.Addr[3]), nil
}

func (s *unixSocket) SetTTL(ttl int) error {
	if err := syscall.SetsockoptInt(s.fd, syscall.IPPROTO_IP, syscall.IP_TTL, ttl); err != nil {
		return &OpError{Op: "setsockopt(IP_TTL)", Err: err}
	}
	return nil
}

func (s *unixSocket) SetToS(tos int) error {
	if err := syscall.SetsockoptInt(s.fd, syscall.IPPROTO_IP, syscall.IP_TOS, tos); err != nil {
		return &OpError{Op: "setsockopt(IP_TOS)", Err: err}
	}
	return nil
}

func (s *unixSocket) Shutdown() error {
	if s.fd < 0 {
		return nil
	}
	err := syscall.Close(s.fd)
	s.fd = -1
	if err != nil {
		return &OpError{Op: "close", Err: err}
	}
	return nil
}

func (s *unixSocket) PeerAddr() (net.IP, error) {
	errno, err := syscall.GetsockoptInt(s.fd, syscall.SOL_SOCKET, syscall.SO_ERROR)
	if err != nil {
		return nil, &OpError{Op: "getsockopt(SO_ERROR)", Err: err}
	}
	switch errno {
	case 0:
		sa, err := syscall.Getpeername(s.fd)
		if err == syscall.ENOTCONN {
			// No pending error and no peer yet: the handshake is still
			// outstanding.
			return nil, ErrWouldBlock
		}
		if err != nil {
			return nil, &OpError{Op: "getpeername", Err: err}
		}
		sa4, ok := sa.(*syscall.SockaddrInet4)
		if !ok {
			return nil, &OpError{Op: "getpeername", Err: syscall.EAFNOSUPPORT}
		}
		return net.IPv4(sa4.Addr[0], sa4.Addr[1], sa4.Addr[2], sa4.Addr[3]), nil
	case int(syscall.ECONNREFUSED):
		return nil, ErrConnectionRefused
	case int(syscall.EHOSTUNREACH):
		return nil, ErrHostUnreachable
	case int(syscall.EINPROGRESS):
		return nil, ErrWouldBlock
	default:
		return nil, &OpError{Op: "connect", Err: syscall.Errno(errno)}
	}
}

func (s *unixSocket) TakeError() error {
	errno, err := syscall.GetsockoptInt(s.fd, syscall.SOL_SOCKET, syscall.SO_ERROR)
	if err != nil {
		return &OpError{Op: "getsockopt(SO_ERROR)", Err: err}
	}
	switch errno {
	case 0:
		return nil
	case int(syscall.ECONNREFUSED):
		return ErrConnectionRefused
	case int(syscall.EHOSTUNREACH):
		return ErrHostUnreachable
	case int(syscall.EINPROGRESS):
		return ErrWouldBlock
	default:
		return &OpError{Op: "connect", Err: syscall.Errno(errno)}
	}
}

// ICMPErrorInfo reports the address the socket was connecting to when an
// asynchronous ICMP error (EHOSTUNREACH) was last observed via PeerAddr or
// TakeError. Plain BSD sockets without IP_RECVERR cannot recover the actual
// offending router address, so the connect target is the best this layer
// can surface; see internal/recv's handling of TimeExceeded(code=1).
func (s *unixSocket) ICMPErrorInfo() (net.IP, bool) {
	if s.connTo == nil {
		return nil, false
	}
	return s.connTo, true
}
