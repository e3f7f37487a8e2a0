// Package proto implements the wire protocol: CRLF framing of the
// byte stream and the closed request grammar spoken over it.
package proto

import (
	"bytes"
	"context"

	"linecat/internal/stream"
)

var delimiter = []byte("\r\n")

// Framer turns an unbounded byte stream into CRLF-delimited frames.
// It tolerates the delimiter splitting across chunk boundaries by
// accumulating undelimited bytes until more input arrives.  One Framer
// serves exactly one connection and is not restartable.
type Framer struct {
	buf []byte
}

// Feed appends a chunk and returns every complete frame it unlocked,
// in order, delimiters stripped.  An empty line yields an empty (but
// present) frame.  Bytes after the last delimiter stay buffered.
func (f *Framer) Feed(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)

	var frames [][]byte
	for {
		i := bytes.Index(f.buf, delimiter)
		if i < 0 {
			return frames
		}
		frame := make([]byte, i)
		copy(frame, f.buf)
		frames = append(frames, frame)
		f.buf = f.buf[i+len(delimiter):]
	}
}

// Buffered returns the number of bytes held back waiting for a
// delimiter.
func (f *Framer) Buffered() int { return len(f.buf) }

// ── Stage adapter ────────────────────────────────────────────────────

// FrameStage lifts a Framer into the pipeline: it pulls chunks from
// upstream only when it has no complete frame left to emit, preserving
// the pull discipline end to end.
type FrameStage struct {
	up      stream.Producer[[]byte]
	framer  Framer
	pending [][]byte
}

// NewFrameStage returns a frame producer fed by the given chunk
// producer.
func NewFrameStage(up stream.Producer[[]byte]) *FrameStage {
	return &FrameStage{up: up}
}

// Next emits the next frame, pulling more chunks as needed.
// End-of-stream from upstream propagates once buffered frames are
// drained; an undelimited tail at stream end is discarded.
func (s *FrameStage) Next(ctx context.Context) ([]byte, error) {
	for len(s.pending) == 0 {
		chunk, err := s.up.Next(ctx)
		if err != nil {
			return nil, err
		}
		s.pending = s.framer.Feed(chunk)
	}
	frame := s.pending[0]
	s.pending = s.pending[1:]
	return frame, nil
}
