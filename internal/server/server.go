// Package server is the orchestration layer: it binds the listening
// socket, accepts connections, and runs one independent pipeline per
// connection.
//
// Architecture layers (bottom → top):
//
//	socket  →  stream  →  proto  →  session  →  server  →  cmd (CLI)
//
// A connection's pipeline is: socket reader → line framer → request
// decoder + interpreter → socket writer, composed pull-first so the
// peer's consumption rate throttles our reads.
package server

import (
	"context"

	"linecat/config"
	"linecat/internal/errors"
	"linecat/internal/metrics"
	"linecat/internal/proto"
	"linecat/internal/retry"
	"linecat/internal/session"
	"linecat/internal/socket"
	"linecat/internal/stream"
	"linecat/util"
)

// Server accepts connections and dispatches each to its own pipeline
// goroutine.  The accept loop never blocks on, and cannot be killed
// by, any individual connection.
type Server struct {
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// New returns a ready-to-run Server.
func New(cfg *config.Config, logger *util.Logger, stats *metrics.Collector) *Server {
	return &Server{Config: cfg, Logger: logger, Metrics: stats}
}

// Run listens and serves until ctx is cancelled.  The listening socket
// is released on every exit path.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.Config
	return socket.WithListening(ctx, cfg.Family, cfg.Host, cfg.Port, func(ln *socket.Listener) error {
		s.Logger.Info("listening on %s (tcp)", ln.Addr())

		// Shut the listener down when the context expires.
		stop := context.AfterFunc(ctx, func() { ln.Close() })
		defer stop()

		var backoff retry.Backoff
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.IsClosed(err) {
					return nil
				}
				// A failed accept aborts only this attempt: report it,
				// pace the loop, and keep accepting.
				s.Logger.Error("%v", err)
				s.Metrics.RecordFailure(err.Error())
				if werr := backoff.Wait(ctx); werr != nil {
					return nil
				}
				continue
			}
			backoff.Reset()

			s.Metrics.ConnectionOpened()
			s.Logger.Verbose("connection from %s", conn.RemoteAddr())
			go s.serveConn(ctx, conn)
		}
	})
}

// serveConn runs one connection's pipeline to completion.  All failure
// handling happens here, on the connection's own goroutine: the safe
// runner turns any stage failure or panic into an Outcome, closes the
// socket exactly once, and nothing propagates back to the acceptor.
func (s *Server) serveConn(ctx context.Context, conn *socket.Conn) {
	peer := conn.RemoteAddr().String()
	plog := s.Logger.Peer(peer)

	// Cancellation unblocks any pending read or write by closing the
	// socket; the stages then surface a closed-connection stop.
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	source := stream.NewReader(conn, peer, s.Config.ChunkSize)
	out := stream.Run(
		func() error {
			framed := proto.NewFrameStage(source)
			sess := session.New(peer, s.Logger, s.Metrics)
			responses := session.NewStage(framed, sess, s.Metrics)
			sink := stream.NewWriter(conn, peer)
			return sink.Run(ctx, responses)
		},
		func() { stop() },
		func() { conn.Close() },
		func() { source.Release() },
		func() { s.Metrics.ConnectionClosed() },
	)

	switch {
	case out.Ok():
		plog.Verbose("session closed")
	case errors.IsClosed(out.Err), errors.Is(out.Err, context.Canceled):
		plog.Verbose("session closed by peer")
	default:
		// Protocol faults were already counted by the session that
		// raised them.
		var pf *errors.ProtocolFault
		if !errors.As(out.Err, &pf) {
			s.Metrics.RecordFailure(out.Err.Error())
		}
		plog.Error("session failed: %v", out.Err)
	}
}
