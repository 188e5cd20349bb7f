//go:build windows

package socket

import (
	"net"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	ipHdrIncl   = 2 // IP_HDRINCL
	fionbio     = 0x8004667e
	socketError = uintptr(^uint(0))
)

var (
	modws2_32       = windows.NewLazySystemDLL("ws2_32.dll")
	procIoctlSocket = modws2_32.NewProc("ioctlsocket")
)

// winSocket is a Socket backed by a raw Windows socket handle, mirroring
// the teacher's socket_windows.go helpers at the same level.
type winSocket struct {
	fd     syscall.Handle
	connTo net.IP
}

func newWinSocket(domain, sockType, proto int, hdrincl bool) (*winSocket, error) {
	fd, err := syscall.Socket(domain, sockType, proto)
	if err != nil {
		return nil, &OpError{Op: "socket", Err: err}
	}
	var mode uint32 = 1
	if err := ioctlSocket(fd, fionbio, &mode); err != nil {
		syscall.Closesocket(fd)
		return nil, &OpError{Op: "ioctlsocket(FIONBIO)", Err: err}
	}
	if hdrincl {
		if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_IP, ipHdrIncl, 1); err != nil {
			syscall.Closesocket(fd)
			return nil, &OpError{Op: "setsockopt(IP_HDRINCL)", Err: err}
		}
	}
	return &winSocket{fd: fd}, nil
}

func ioctlSocket(fd syscall.Handle, cmd uint32, argp *uint32) error {
	r1, _, e1 := syscall.Syscall(
		procIoctlSocket.Addr(),
		3,
		uintptr(fd),
		uintptr(cmd),
		uintptr(unsafe.Pointer(argp)),
	)
	if r1 == socketError {
		if e1 != 0 {
			return e1
		}
		return syscall.EINVAL
	}
	return nil
}

// NewICMPSendSocketIPv4 opens an IP_HDRINCL raw socket for dispatching
// hand-built ICMP/IPv4 probes.
func NewICMPSendSocketIPv4() (Socket, error) {
	return newWinSocket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_ICMP, true)
}

// NewUDPSendSocketIPv4Raw opens an IP_HDRINCL raw socket for dispatching
// hand-built UDP/IPv4 probes.
func NewUDPSendSocketIPv4Raw() (Socket, error) {
	return newWinSocket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_UDP, true)
}

// NewUDPSendSocketIPv4 opens an ordinary unprivileged UDP socket.
func NewUDPSendSocketIPv4() (Socket, error) {
	return newWinSocket(syscall.AF_INET, syscall.SOCK_DGRAM, syscall.IPPROTO_UDP, false)
}

// NewRecvSocketIPv4 opens a raw ICMP socket for receiving probe responses.
func NewRecvSocketIPv4() (Socket, error) {
	return newWinSocket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_ICMP, false)
}

// NewStreamSocketIPv4 opens a non-blocking TCP socket for TCP SYN probes.
func NewStreamSocketIPv4() (Socket, error) {
	return newWinSocket(syscall.AF_INET, syscall.SOCK_STREAM, syscall.IPPROTO_TCP, false)
}

func toSockaddr(ip net.IP, port int) syscall.Sockaddr {
	var addr [4]byte
	copy(addr[:], ip.To4())
	return &syscall.SockaddrInet4{Port: port, Addr: addr}
}

func (s *winSocket) Bind(laddr net.IP, port int) error {
	if err := syscall.Bind(s.fd, toSockaddr(laddr, port)); err != nil {
		return &OpError{Op: "bind", Err: err}
	}
	return nil
}

func (s *winSocket) Connect(raddr net.IP, port int) error {
	s.connTo = raddr
	err := syscall.Connect(s.fd, toSockaddr(raddr, port))
	if err == nil || err == windows.WSAEWOULDBLOCK || err == windows.WSAEINPROGRESS {
		return nil
	}
	if err == windows.WSAECONNREFUSED {
		return &OpError{Op: "connect", Err: ErrConnectionRefused}
	}
	return &OpError{Op: "connect", Err: err}
}

func (s *winSocket) SendTo(b []byte, raddr net.IP, port int) error {
	if err := syscall.Sendto(s.fd, b, 0, toSockaddr(raddr, port)); err != nil {
		return &OpError{Op: "sendto", Err: err}
	}
	return nil
}

func (s *winSocket) Read(b []byte) (int, net.IP, error) {
	n, from, err := syscall.Recvfrom(s.fd, b, 0)
	if err != nil {
		if err == windows.WSAEWOULDBLOCK {
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

func (s *winSocket) SetTTL(ttl int) error {
	if err := syscall.SetsockoptInt(s.fd, syscall.IPPROTO_IP, syscall.IP_TTL, ttl); err != nil {
		return &OpError{Op: "setsockopt(IP_TTL)", Err: err}
	}
	return nil
}

func (s *winSocket) SetToS(tos int) error {
	if err := syscall.SetsockoptInt(s.fd, syscall.IPPROTO_IP, syscall.IP_TOS, tos); err != nil {
		return &OpError{Op: "setsockopt(IP_TOS)", Err: err}
	}
	return nil
}

func (s *winSocket) Shutdown() error {
	if s.fd == syscall.InvalidHandle {
		return nil
	}
	err := syscall.Closesocket(s.fd)
	s.fd = syscall.InvalidHandle
	if err != nil {
		return &OpError{Op: "closesocket", Err: err}
	}
	return nil
}

func (s *winSocket) PeerAddr() (net.IP, error) {
	errno, err := syscall.GetsockoptInt(s.fd, syscall.SOL_SOCKET, syscall.SO_ERROR)
	if err != nil {
		return nil, &OpError{Op: "getsockopt(SO_ERROR)", Err: err}
	}
	switch errno {
	case 0:
		sa, err := syscall.Getpeername(s.fd)
		if err == windows.WSAENOTCONN {
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
	case int(windows.WSAECONNREFUSED):
		return nil, ErrConnectionRefused
	case int(windows.WSAEHOSTUNREACH):
		return nil, ErrHostUnreachable
	case int(windows.WSAEWOULDBLOCK), int(windows.WSAEINPROGRESS):
		return nil, ErrWouldBlock
	default:
		return nil, &OpError{Op: "connect", Err: syscall.Errno(errno)}
	}
}

func (s *winSocket) TakeError() error {
	errno, err := syscall.GetsockoptInt(s.fd, syscall.SOL_SOCKET, syscall.SO_ERROR)
	if err != nil {
		return &OpError{Op: "getsockopt(SO_ERROR)", Err: err}
	}
	switch errno {
	case 0:
		return nil
	case int(windows.WSAECONNREFUSED):
		return ErrConnectionRefused
	case int(windows.WSAEHOSTUNREACH):
		return ErrHostUnreachable
	case int(windows.WSAEWOULDBLOCK), int(windows.WSAEINPROGRESS):
		return ErrWouldBlock
	default:
		return &OpError{Op: "connect", Err: syscall.Errno(errno)}
	}
}

// ICMPErrorInfo reports the address the socket was connecting to when an
// asynchronous WSAEHOSTUNREACH was last observed; see the Unix
// implementation's doc comment for why the connect target, not the actual
// router, is what this layer can surface.
func (s *winSocket) ICMPErrorInfo() (net.IP, bool) {
	if s.connTo == nil {
		return nil, false
	}
	return s.connTo, true
}
