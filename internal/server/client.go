package server

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"linecat/config"
	"linecat/internal/errors"
	"linecat/internal/socket"
	"linecat/util"
)

// Client is the connect mode: a line-oriented terminal for talking to
// a linecat server.  Stdin lines go out CRLF-terminated, server lines
// are relayed to Stdout as they arrive.
type Client struct {
	Config *config.Config
	Logger *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (c *Client) stdin() io.Reader {
	if c.Stdin != nil {
		return c.Stdin
	}
	return os.Stdin
}

func (c *Client) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

// Run dials the server and relays until the server closes, local input
// ends, or the context is cancelled.  The socket is released on every
// exit path.
func (c *Client) Run(ctx context.Context) error {
	cfg := c.Config
	c.Logger.Verbose("connecting to %s (tcp)", util.FormatAddr(cfg.Host, cfg.Port))

	return socket.WithConnected(ctx, cfg.Host, cfg.Port, cfg.Timeout, func(conn *socket.Conn) error {
		c.Logger.Verbose("connected to %s", conn.RemoteAddr())

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var wg sync.WaitGroup
		errCh := make(chan error, 2)

		// network → stdout
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := io.Copy(c.stdout(), conn)
			errCh <- err
			cancel()
		}()

		// stdin → network, one CRLF-terminated line at a time
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- c.sendLines(conn)
			// Half-close so the server sees EOF, but keep reading:
			// the farewell may still be in flight.
			conn.CloseWrite() //nolint:errcheck
		}()

		<-ctx.Done()
		conn.Close() // unblock any pending reads/writes
		wg.Wait()
		close(errCh)

		for err := range errCh {
			if err != nil && !errors.IsClosed(err) {
				return err
			}
		}
		return nil
	})
}

func (c *Client) sendLines(conn *socket.Conn) error {
	scanner := bufio.NewScanner(c.stdin())
	for scanner.Scan() {
		line := append(scanner.Bytes(), '\r', '\n')
		if _, err := conn.Write(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
