package proto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linecat/internal/stream"
)

// feedAll pushes the input through a fresh Framer in the given chunk
// sizes and collects every emitted frame.
func feedAll(input []byte, chunkSizes []int) [][]byte {
	var f Framer
	var frames [][]byte
	pos := 0
	for _, n := range chunkSizes {
		end := pos + n
		if end > len(input) {
			end = len(input)
		}
		frames = append(frames, f.Feed(input[pos:end])...)
		pos = end
	}
	if pos < len(input) {
		frames = append(frames, f.Feed(input[pos:])...)
	}
	return frames
}

func TestFramer_SplitInvariance(t *testing.T) {
	input := []byte("alpha\r\nbravo\r\n\r\ncharlie\r\n")
	want := []string{"alpha", "bravo", "", "charlie"}

	// Every single split point of the input, including splits inside
	// the CR LF delimiter, must produce identical frames.
	for cut := 0; cut <= len(input); cut++ {
		frames := feedAll(input, []int{cut})
		require.Len(t, frames, len(want), "split at %d", cut)
		for i, w := range want {
			assert.Equal(t, w, string(frames[i]), "split at %d, frame %d", cut, i)
		}
	}

	// Byte-at-a-time delivery.
	ones := make([]int, len(input))
	for i := range ones {
		ones[i] = 1
	}
	frames := feedAll(input, ones)
	require.Len(t, frames, len(want))
	for i, w := range want {
		assert.Equal(t, w, string(frames[i]))
	}
}

func TestFramer_EmptyLine(t *testing.T) {
	var f Framer
	frames := f.Feed([]byte("\r\n"))
	require.Len(t, frames, 1, "a lone delimiter is one empty frame, not nothing")
	assert.Empty(t, frames[0])
}

func TestFramer_MultipleFramesInOneChunk(t *testing.T) {
	var f Framer
	frames := f.Feed([]byte("one\r\ntwo\r\nthr"))
	require.Len(t, frames, 2)
	assert.Equal(t, "one", string(frames[0]))
	assert.Equal(t, "two", string(frames[1]))
	assert.Equal(t, 3, f.Buffered(), "undelimited tail stays buffered")

	frames = f.Feed([]byte("ee\r\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, "three", string(frames[0]))
	assert.Zero(t, f.Buffered())
}

func TestFramer_BareCRIsNotADelimiter(t *testing.T) {
	var f Framer
	frames := f.Feed([]byte("a\rb\r\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, "a\rb", string(frames[0]))
}

type chunkProducer struct {
	chunks [][]byte
}

func (p *chunkProducer) Next(ctx context.Context) ([]byte, error) {
	if len(p.chunks) == 0 {
		return nil, stream.ErrEndOfStream
	}
	c := p.chunks[0]
	p.chunks = p.chunks[1:]
	return c, nil
}

func TestFrameStage_PullsOnlyWhenDrained(t *testing.T) {
	up := &chunkProducer{chunks: [][]byte{
		[]byte("one\r\ntwo"),
		[]byte("\r\nthree\r\n"),
	}}
	s := NewFrameStage(up)
	ctx := context.Background()

	for _, want := range []string{"one", "two", "three"} {
		frame, err := s.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(frame))
	}

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, stream.ErrEndOfStream)
}

func TestFrameStage_DiscardsUndelimitedTail(t *testing.T) {
	up := &chunkProducer{chunks: [][]byte{[]byte("whole\r\npartial")}}
	s := NewFrameStage(up)
	ctx := context.Background()

	frame, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "whole", string(frame))

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, stream.ErrEndOfStream)
}
