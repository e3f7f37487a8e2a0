package session

import (
	"context"

	"github.com/eapache/queue"

	"linecat/internal/metrics"
	"linecat/internal/proto"
	"linecat/internal/stream"
)

// Stage lifts a Session into the pipeline: it pulls frames, decodes
// them, runs the interpreter, and serves the resulting response lines
// downstream one at a time.  A single request can fan out into several
// lines (the greeting, Help, Connections), so pending lines sit in a
// FIFO until the writer pulls them.
type Stage struct {
	up    stream.Producer[[]byte] // frames
	sess  *Session
	stats *metrics.Collector

	pending *queue.Queue // of []byte, response lines not yet pulled
	done    bool         // Exit seen; drain pending, then end
	fatal   error        // Crash seen; drain pending, then fail
}

// NewStage wires a session between a frame producer and the writer.
// The greeting is queued up front so it goes out before the first
// request is even read.
func NewStage(up stream.Producer[[]byte], sess *Session, stats *metrics.Collector) *Stage {
	s := &Stage{up: up, sess: sess, stats: stats, pending: queue.New()}
	for _, line := range sess.Greeting() {
		s.pending.Add(line)
	}
	return s
}

// Next emits the next response line.  Requests are processed strictly
// in frame order and their responses emitted in the same order; no
// frame is pulled while responses are still pending, which carries the
// pull discipline through the interpreter.
func (s *Stage) Next(ctx context.Context) ([]byte, error) {
	for {
		if s.pending.Length() > 0 {
			line := s.pending.Remove().([]byte)
			s.stats.ResponseEmitted()
			return line, nil
		}
		if s.fatal != nil {
			return nil, s.fatal
		}
		if s.done {
			return nil, stream.ErrEndOfStream
		}

		frame, err := s.up.Next(ctx)
		if err != nil {
			return nil, err
		}
		s.stats.FrameReceived()

		lines, done, fatal := s.sess.Handle(proto.Decode(frame))
		for _, l := range lines {
			s.pending.Add(l)
		}
		s.done = done
		s.fatal = fatal
	}
}
