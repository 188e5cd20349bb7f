package probe

import (
	"errors"
	"fmt"
)

// Error taxonomy per the core's error handling design: InvalidPacketSize
// and PacketTooSmall are programmer errors surfaced to the caller;
// MissingAddr is surfaced when a TCP probe socket reports success with no
// peer; ExtensionParseError never leaves the core — a malformed RFC 4884
// body just drops the enclosing ICMP response. Anything else (malformed or
// unrelated datagrams) is a silent drop, represented by a nil Response and
// a nil error, never one of these.
var (
	// ErrPacketTooSmall is returned by a codec constructor when the backing
	// buffer is smaller than the header it must hold.
	ErrPacketTooSmall = errors.New("probe: buffer smaller than header")

	// ErrMissingAddr is returned when a TCP socket reports a completed
	// connection but PeerAddr returns no address.
	ErrMissingAddr = errors.New("probe: connected socket has no peer address")

	// errExtensionParse marks a malformed RFC 4884 extension object stream.
	// It is intentionally unexported: callers observe it only indirectly,
	// by RecvICMPProbe dropping the enclosing response (returns nil, nil).
	errExtensionParse = errors.New("probe: malformed icmp extension object")
)

// ErrExtensionParse reports whether err is the internal extension-parse
// marker. Exposed for tests; recv callers never need to check it directly
// since a malformed extension just yields a dropped response.
func ErrExtensionParse(err error) bool {
	return errors.Is(err, errExtensionParse)
}

// NewExtensionParseError wraps errExtensionParse with context, for use by
// internal/wire's extension parser.
func NewExtensionParseError(reason string) error {
	return &extensionParseError{reason: reason}
}

type extensionParseError struct{ reason string }

func (e *extensionParseError) Error() string { return "probe: malformed icmp extension: " + e.reason }
func (e *extensionParseError) Unwrap() error { return errExtensionParse }

// InvalidPacketSizeError reports a caller-requested packet size outside
// [min_size(protocol), MaxPacketSize].
type InvalidPacketSizeError struct {
	Requested int
	Min       int
	Max       int
}

func (e *InvalidPacketSizeError) Error() string {
	return fmt.Sprintf("probe: invalid packet size %d, want %d..%d", e.Requested, e.Min, e.Max)
}

// IOError wraps an underlying socket I/O failure that is not WouldBlock.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return "probe: io error during " + e.Op + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }
