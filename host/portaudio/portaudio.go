// Package portaudio renders a node in real time with the default audio
// device.
package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/pdnode"
)

// Host runs the node inside the portaudio stream callback.
type Host struct {
	node   *pdnode.Node
	format pdnode.Format
	input  bool
	stream *portaudio.Stream
}

// New returns a host for the node. If input is true, the default input
// device is opened and its signal is passed to the node.
func New(n *pdnode.Node, format pdnode.Format, input bool) *Host {
	if format.Channels == 0 {
		format.Channels = pdnode.DefaultChannels
	}
	return &Host{
		node:   n,
		format: format,
		input:  input,
	}
}

// Start initializes portaudio and starts the stream. Node should be
// initialized with the same format.
func (h *Host) Start() error {
	if h.stream != nil {
		return fmt.Errorf("portaudio: stream is already started")
	}
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	var (
		stream *portaudio.Stream
		err    error
	)
	if h.input {
		stream, err = portaudio.OpenDefaultStream(h.format.Channels, h.format.Channels, float64(h.format.SampleRate), h.format.FramesPerBlock, h.duplex)
	} else {
		stream, err = portaudio.OpenDefaultStream(0, h.format.Channels, float64(h.format.SampleRate), h.format.FramesPerBlock, h.output)
	}
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	h.stream = stream
	return nil
}

// duplex is the non-interleaved stream callback with input.
func (h *Host) duplex(in, out [][]float32) {
	for c := range out {
		if c < len(in) {
			copy(out[c], in[c])
		}
	}
	h.node.Process(out)
}

// output is the non-interleaved stream callback without input.
func (h *Host) output(out [][]float32) {
	for c := range out {
		for i := range out[c] {
			out[c][i] = 0
		}
	}
	h.node.Process(out)
}

// Stop stops the stream and terminates portaudio. Node is not called after
// Stop returns.
func (h *Host) Stop() error {
	if h.stream == nil {
		return nil
	}
	err := h.stream.Stop()
	if err != nil {
		return err
	}
	err = h.stream.Close()
	if err != nil {
		return err
	}
	h.stream = nil
	return portaudio.Terminate()
}
