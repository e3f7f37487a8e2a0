package socket

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linecat/config"
	"linecat/internal/errors"
	"linecat/util"
)

func TestListenAcceptConnect(t *testing.T) {
	port, err := util.FindFreePort()
	require.NoError(t, err)

	ctx := context.Background()
	ln, err := Listen(ctx, config.FamilyIPv4, "127.0.0.1", port)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan *Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()

	client, err := Connect(ctx, "127.0.0.1", port, 2*time.Second)
	require.NoError(t, err)
	defer client.Close()

	server, ok := <-accepted
	require.True(t, ok, "accept failed")
	defer server.Close()

	// Byte-level round trip through the pair.
	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestListen_ResolutionError(t *testing.T) {
	_, err := Listen(context.Background(), config.FamilyAny, "host.invalid.", 9999)
	require.Error(t, err)

	var re *errors.ResolutionError
	assert.True(t, errors.As(err, &re), "want ResolutionError, got %T", err)
}

func TestListen_FamilyMismatch(t *testing.T) {
	// 127.0.0.1 has no IPv6 candidate, so an IPv6-only preference must
	// fail at resolution, not at bind.
	_, err := Listen(context.Background(), config.FamilyIPv6, "127.0.0.1", 9999)
	require.Error(t, err)

	var re *errors.ResolutionError
	assert.True(t, errors.As(err, &re), "want ResolutionError, got %T", err)
}

func TestListen_BindError(t *testing.T) {
	port, err := util.FindFreePort()
	require.NoError(t, err)

	ctx := context.Background()
	first, err := Listen(ctx, config.FamilyIPv4, "127.0.0.1", port)
	require.NoError(t, err)
	defer first.Close()

	// Second bind of the same port must fail with BindError.
	// SO_REUSEADDR does not permit two live listeners on one address.
	_, err = Listen(ctx, config.FamilyIPv4, "127.0.0.1", port)
	require.Error(t, err)

	var be *errors.BindError
	assert.True(t, errors.As(err, &be), "want BindError, got %T", err)
}

func TestConnect_ConnectError(t *testing.T) {
	port, err := util.FindFreePort()
	require.NoError(t, err)

	// Nothing listens on the free port.
	_, err = Connect(context.Background(), "127.0.0.1", port, 500*time.Millisecond)
	require.Error(t, err)

	var ce *errors.ConnectError
	assert.True(t, errors.As(err, &ce), "want ConnectError, got %T", err)
}

func TestAccept_AfterClose(t *testing.T) {
	port, err := util.FindFreePort()
	require.NoError(t, err)

	ln, err := Listen(context.Background(), config.FamilyIPv4, "127.0.0.1", port)
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	_, err = ln.Accept()
	require.Error(t, err)

	var ae *errors.AcceptError
	assert.True(t, errors.As(err, &ae), "want AcceptError, got %T", err)
	assert.True(t, errors.IsClosed(ae.Err), "cause should classify as closed")
}

// trackingConn counts Close calls on the underlying connection.
type trackingConn struct {
	net.Conn
	closes atomic.Int32
}

func (c *trackingConn) Close() error {
	c.closes.Add(1)
	if c.Conn != nil {
		return c.Conn.Close()
	}
	return nil
}

func TestConn_CloseExactlyOnce(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	inner := &trackingConn{Conn: a}
	conn := NewConn(inner)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	assert.Equal(t, int32(1), inner.closes.Load(), "underlying Close must run exactly once")
}

func TestWithListening_ReleasesOnPanic(t *testing.T) {
	port, err := util.FindFreePort()
	require.NoError(t, err)
	ctx := context.Background()

	func() {
		defer func() { recover() }()
		_ = WithListening(ctx, config.FamilyIPv4, "127.0.0.1", port, func(*Listener) error {
			panic("stage blew up")
		})
	}()

	// The port must be free again immediately.
	ln, err := Listen(ctx, config.FamilyIPv4, "127.0.0.1", port)
	require.NoError(t, err, "listener leaked across a panicking body")
	ln.Close()
}

func TestWithConnected_ReleasesOnError(t *testing.T) {
	port, err := util.FindFreePort()
	require.NoError(t, err)
	ctx := context.Background()

	ln, err := Listen(ctx, config.FamilyIPv4, "127.0.0.1", port)
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	var held *Conn
	err = WithConnected(ctx, "127.0.0.1", port, time.Second, func(c *Conn) error {
		held = c
		return errors.New("body failed")
	})
	require.Error(t, err)

	// The wrapper already released the handle: reads fail immediately.
	_, readErr := held.Read(make([]byte, 1))
	require.Error(t, readErr)
}
