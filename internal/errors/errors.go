// Package errors provides the failure taxonomy for linecat.
//
// Each type carries structured context (operation, address, underlying
// cause) so callers can decide how to handle failures at the right
// boundary: acquisition failures abort only the acquiring scope, while
// pipeline failures are caught per connection.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// ── Structured error types ───────────────────────────────────────────

// ResolutionError reports that no addresses resolved for a host.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// BindError reports that every resolved candidate failed to bind.
type BindError struct {
	Host string
	Port int
	Err  error // last candidate's failure
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s:%d: %v", e.Host, e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// ConnectError reports a failed outbound connection attempt.
type ConnectError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s:%d: %v", e.Host, e.Port, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// AcceptError reports a failed accept on a listening socket.
type AcceptError struct {
	Addr string // local listening address
	Err  error
}

func (e *AcceptError) Error() string {
	return fmt.Sprintf("accept on %s: %v", e.Addr, e.Err)
}

func (e *AcceptError) Unwrap() error { return e.Err }

// IOError reports a stream stage read or write failure.  It is the
// only failure raw socket I/O surfaces to the pipeline.
type IOError struct {
	Op   string // "read" or "write"
	Peer string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ProtocolFault is an intentionally raised fatal condition (the Crash
// command).  It terminates one connection's pipeline and nothing else.
type ProtocolFault struct {
	Peer   string
	Reason string
}

func (e *ProtocolFault) Error() string {
	return fmt.Sprintf("protocol fault from %s: %s", e.Peer, e.Reason)
}

// ── Classification helpers ───────────────────────────────────────────

// IsClosed reports whether err is an expected consequence of a socket
// being closed out from under an I/O call: peer EOF, a handle closed
// by shutdown, or a pipe torn down mid-copy.  Such errors end a
// pipeline cleanly rather than as failures.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// IsTransient reports whether an accept failure is worth waiting out
// rather than abandoning the listener.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ae *AcceptError
	if errors.As(err, &ae) {
		err = ae.Err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still the accept-loop signal
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use linecat/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }
