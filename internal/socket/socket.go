// Package socket owns the lifecycle of listening and connected TCP
// sockets.  Every handle it hands out is released exactly once, on
// every exit path, via the scoped wrappers [WithListening] and
// [WithConnected] or an explicit idempotent Close.
package socket

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"linecat/config"
	"linecat/internal/errors"
)

// ── Address resolution ───────────────────────────────────────────────

// resolve returns candidate IPs for host, filtered and ordered by the
// family preference: a restricted family drops the other candidates,
// FamilyAny keeps resolver order.  The relative order of candidates in
// the same family is always preserved.
func resolve(ctx context.Context, host, family string) ([]net.IP, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &errors.ResolutionError{Host: host, Err: err}
	}

	var v4, v6 []net.IP
	for _, a := range addrs {
		if a.IP.To4() != nil {
			v4 = append(v4, a.IP)
		} else {
			v6 = append(v6, a.IP)
		}
	}

	var out []net.IP
	switch family {
	case config.FamilyIPv4:
		out = v4
	case config.FamilyIPv6:
		out = v6
	default:
		for _, a := range addrs {
			out = append(out, a.IP)
		}
	}
	if len(out) == 0 {
		return nil, &errors.ResolutionError{Host: host, Err: errors.New("no addresses for requested family")}
	}
	return out, nil
}

func networkFor(ip net.IP) string {
	if ip.To4() != nil {
		return "tcp4"
	}
	return "tcp6"
}

// ── Listener ─────────────────────────────────────────────────────────

// Listener wraps a listening socket with an exactly-once release.
type Listener struct {
	ln       net.Listener
	once     sync.Once
	closeErr error
}

// Listen resolves host for the given family preference and binds the
// first candidate that accepts the address.  SO_REUSEADDR is enabled
// on the socket before binding.  A candidate whose bind fails leaves
// no resource behind (net.ListenConfig releases the half-built socket
// itself).  Returns BindError when every candidate fails.
func Listen(ctx context.Context, family, host string, port int) (*Listener, error) {
	ips, err := resolve(ctx, host, family)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{Control: controlReuseAddr}
	var lastErr error
	for _, ip := range ips {
		addr := net.JoinHostPort(ip.String(), strconv.Itoa(port))
		ln, err := lc.Listen(ctx, networkFor(ip), addr)
		if err != nil {
			lastErr = err
			continue
		}
		return &Listener{ln: ln}, nil
	}
	return nil, &errors.BindError{Host: host, Port: port, Err: lastErr}
}

// Accept blocks until a connection arrives.  The accepted socket has
// Nagle's algorithm disabled before it is handed to a pipeline.
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.ln.Accept()
	if err != nil {
		return nil, &errors.AcceptError{Addr: l.ln.Addr().String(), Err: err}
	}
	if tc, ok := c.(*net.TCPConn); ok {
		tc.SetNoDelay(true) //nolint:errcheck
	}
	return NewConn(c), nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close releases the listening socket.  Subsequent calls are no-ops
// returning the first result.
func (l *Listener) Close() error {
	l.once.Do(func() { l.closeErr = l.ln.Close() })
	return l.closeErr
}

// ── Connected socket ─────────────────────────────────────────────────

// Conn wraps a connected socket with an exactly-once release.
type Conn struct {
	conn     net.Conn
	once     sync.Once
	closeErr error
}

// NewConn wraps an established connection.  Exposed so tests can wrap
// tracking stubs and the client mode can wrap its dialled socket.
func NewConn(c net.Conn) *Conn {
	return &Conn{conn: c}
}

// Connect resolves host and dials the first usable candidate.  Nagle's
// algorithm is disabled on the new socket.  Any partially constructed
// socket from a failed candidate is released by the dialer before the
// next candidate is tried.
func Connect(ctx context.Context, host string, port int, timeout time.Duration) (*Conn, error) {
	ips, err := resolve(ctx, host, config.FamilyAny)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: timeout}
	var lastErr error
	for _, ip := range ips {
		addr := net.JoinHostPort(ip.String(), strconv.Itoa(port))
		c, err := d.DialContext(ctx, networkFor(ip), addr)
		if err != nil {
			lastErr = err
			continue
		}
		if tc, ok := c.(*net.TCPConn); ok {
			tc.SetNoDelay(true) //nolint:errcheck
		}
		return NewConn(c), nil
	}
	return nil, &errors.ConnectError{Host: host, Port: port, Err: lastErr}
}

// Read pulls bytes from the socket.
func (c *Conn) Read(p []byte) (int, error) { return c.conn.Read(p) }

// Write pushes bytes to the socket.
func (c *Conn) Write(p []byte) (int, error) { return c.conn.Write(p) }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// LocalAddr returns the local address.
func (c *Conn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// SetDeadline bounds all pending and future I/O.
func (c *Conn) SetDeadline(t time.Time) error { return c.conn.SetDeadline(t) }

// CloseWrite half-closes the send side so the remote sees EOF while
// this side keeps draining responses.  No-op for non-TCP sockets.
func (c *Conn) CloseWrite() error {
	if tc, ok := c.conn.(*net.TCPConn); ok {
		return tc.CloseWrite()
	}
	return nil
}

// Close releases the socket.  Subsequent calls are no-ops returning
// the first result, so cleanup paths may overlap safely.
func (c *Conn) Close() error {
	c.once.Do(func() { c.closeErr = c.conn.Close() })
	return c.closeErr
}

// ── Scoped acquisition ───────────────────────────────────────────────

// WithListening acquires a listening socket, runs body, and releases
// the socket on every exit path (return, error, panic).
func WithListening(ctx context.Context, family, host string, port int, body func(*Listener) error) error {
	ln, err := Listen(ctx, family, host, port)
	if err != nil {
		return err
	}
	defer ln.Close()
	return body(ln)
}

// WithConnected acquires a connected socket, runs body, and releases
// the socket on every exit path.
func WithConnected(ctx context.Context, host string, port int, timeout time.Duration, body func(*Conn) error) error {
	conn, err := Connect(ctx, host, port, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	return body(conn)
}
