// Package host drives a node outside of a real-time audio graph. It reads
// blocks from a source, renders them and writes the result to a sink.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pipelined/pdnode"
	"github.com/pipelined/pdnode/event"
)

type (
	// Source provides planar blocks. Read fills planar and returns the
	// number of frames read. It returns io.EOF when there is no more data.
	Source interface {
		Read(planar [][]float32) (int, error)
	}

	// Sink consumes planar blocks.
	Sink interface {
		Write(planar [][]float32) error
	}

	// SinkFunc is a function that implements Sink.
	SinkFunc func(planar [][]float32) error
)

// Write implements Sink.
func (fn SinkFunc) Write(planar [][]float32) error {
	return fn(planar)
}

// Discard is a sink that drops everything.
var Discard Sink = SinkFunc(func([][]float32) error { return nil })

// Silence is a source of zero samples.
type Silence struct {
	remaining int
}

// NewSilence returns a source of frames zero samples.
func NewSilence(frames int) *Silence {
	return &Silence{remaining: frames}
}

// Read implements Source.
func (s *Silence) Read(planar [][]float32) (int, error) {
	if s.remaining <= 0 {
		return 0, io.EOF
	}
	frames := 0
	if len(planar) > 0 {
		frames = len(planar[0])
	}
	if frames > s.remaining {
		frames = s.remaining
	}
	for _, c := range planar {
		for i := range c[:frames] {
			c[i] = 0
		}
	}
	s.remaining -= frames
	return frames, nil
}

// Render initializes the node and renders the source into the sink block by
// block until source is exhausted or ctx is done. Short final block is
// padded with zeros, but only the read frames are written. Events are
// drained into r after every block, r can be nil. A node that is already
// active with the same format is rendered as is. The node is uninitialized
// before return. It's the caller's responsibility to close
// the node, the source and the sink.
func Render(ctx context.Context, n *pdnode.Node, format pdnode.Format, src Source, sink Sink, r event.Receiver) error {
	if format.Channels == 0 {
		format.Channels = pdnode.DefaultChannels
	}
	initialized, err := n.Initialize(format)
	if err != nil {
		return err
	}
	buf := format.Buffer()
	out := make([][]float32, format.Channels)
	configured := false
	for {
		if err := ctx.Err(); err != nil {
			return stop(n, buf, r, err)
		}
		frames, err := src.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return stop(n, buf, r, fmt.Errorf("read: %w", err))
		}
		if frames == 0 {
			break
		}
		for c := range buf {
			for i := range buf[c][frames:] {
				buf[c][frames+i] = 0
			}
			out[c] = buf[c][:frames]
		}
		n.Process(buf)
		n.DrainEvents(r)
		if !configured {
			if _, ok, err := initialized.Poll(); ok {
				if err != nil {
					return stop(n, buf, r, err)
				}
				configured = true
			}
		}
		if err := sink.Write(out); err != nil {
			return stop(n, buf, r, fmt.Errorf("write: %w", err))
		}
	}
	return stop(n, buf, r, nil)
}

// stop uninitializes the node and renders blocks until it's applied.
func stop(n *pdnode.Node, buf [][]float32, r event.Receiver, cause error) error {
	stopped, err := n.Uninitialize()
	if err != nil {
		if cause != nil {
			return cause
		}
		return err
	}
	for {
		select {
		case <-stopped.Done():
			n.DrainEvents(r)
			if _, err := stopped.AwaitTimeout(0); err != nil && cause == nil {
				return err
			}
			return cause
		default:
			for c := range buf {
				for i := range buf[c] {
					buf[c][i] = 0
				}
			}
			n.Process(buf)
		}
	}
}
