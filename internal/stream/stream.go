// Package stream implements the pull-based pipeline: single-capability
// producers composed left-to-right, with a socket-backed source and
// sink at the ends.  A downstream stage only receives the next item
// when it asks for it, so a slow consumer throttles socket reads
// instead of growing buffers.
package stream

import (
	"context"
	"io"

	"linecat/internal/errors"
	"linecat/util"
)

// ErrEndOfStream signals orderly exhaustion of a producer.  It is not
// a failure: sinks treat it as a clean stop.
var ErrEndOfStream = errors.New("end of stream")

// Producer yields the items of one pipeline stage.  Next blocks until
// an item is available, the stream ends (ErrEndOfStream), or the stage
// fails.  Producers are single-consumer and not safe for concurrent
// use.
type Producer[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Func adapts a plain function to a Producer.
type Func[T any] func(ctx context.Context) (T, error)

// Next implements Producer.
func (f Func[T]) Next(ctx context.Context) (T, error) { return f(ctx) }

// Map composes a pure per-item transform onto an upstream producer.
// End-of-stream and failures pass through untouched, so composition
// is associative and order-preserving.
func Map[In, Out any](up Producer[In], fn func(In) (Out, error)) Producer[Out] {
	return Func[Out](func(ctx context.Context) (Out, error) {
		var zero Out
		item, err := up.Next(ctx)
		if err != nil {
			return zero, err
		}
		return fn(item)
	})
}

// ── Socket source ────────────────────────────────────────────────────

// Reader is the source stage: it pulls chunks of up to chunkSize bytes
// from a connected socket.  A zero-length read with EOF means the peer
// closed its write side and ends the stream cleanly; any other read
// failure surfaces as IOError.  This is the only place raw read errors
// enter the pipeline.
type Reader struct {
	conn   io.Reader
	peer   string
	buf    []byte
	pooled *[]byte
}

// NewReader returns a source stage reading from conn.  peer is used in
// failure context only.  The read buffer comes from the shared chunk
// pool when the requested size fits; callers release it via [Release]
// in their pipeline cleanup.
func NewReader(conn io.Reader, peer string, chunkSize int) *Reader {
	r := &Reader{conn: conn, peer: peer}
	if chunkSize <= util.DefaultChunkCap {
		r.pooled = util.GetChunk()
		r.buf = (*r.pooled)[:chunkSize]
	} else {
		r.buf = make([]byte, chunkSize)
	}
	return r
}

// Release returns the pooled read buffer.  The Reader must not be used
// afterwards.
func (r *Reader) Release() {
	if r.pooled != nil {
		util.PutChunk(r.pooled)
		r.pooled = nil
		r.buf = nil
	}
}

// Next reads the next non-empty chunk.  The returned slice is an
// independent copy: the internal buffer is reused across calls.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.conn.Read(r.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, r.buf)
			return chunk, nil
		}
		if err != nil {
			if errors.IsClosed(err) {
				return nil, ErrEndOfStream
			}
			return nil, &errors.IOError{Op: "read", Peer: r.peer, Err: err}
		}
	}
}

// ── Socket sink ──────────────────────────────────────────────────────

// Writer is the sink stage: it pulls chunks from an upstream producer
// and writes each one fully to the socket before asking for the next,
// which is where the pipeline's backpressure comes from.
type Writer struct {
	conn io.Writer
	peer string
}

// NewWriter returns a sink stage writing to conn.
func NewWriter(conn io.Writer, peer string) *Writer {
	return &Writer{conn: conn, peer: peer}
}

// Run drains up into the socket.  Returns nil when up reports
// end-of-stream, otherwise the first failure from either side.
func (w *Writer) Run(ctx context.Context, up Producer[[]byte]) error {
	for {
		chunk, err := up.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrEndOfStream) {
				return nil
			}
			return err
		}
		if err := w.writeAll(chunk); err != nil {
			return err
		}
	}
}

// writeAll retries until the whole chunk is on the wire.  io.Writer
// contracts allow short writes; a logical write is not done until
// every byte went out.
func (w *Writer) writeAll(chunk []byte) error {
	for len(chunk) > 0 {
		n, err := w.conn.Write(chunk)
		chunk = chunk[n:]
		if err != nil {
			return &errors.IOError{Op: "write", Peer: w.peer, Err: err}
		}
	}
	return nil
}
