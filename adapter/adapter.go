// Package adapter converts between the planar buffers used by hosts and the
// interleaved buffers consumed by engines.
package adapter

import (
	"github.com/go-audio/audio"
)

// Adapter owns the interleaved scratch buffer of one node. It is not safe
// for concurrent use and is only touched by the render goroutine once
// installed.
type Adapter struct {
	channels int
	frames   int
	buffer   *audio.Float32Buffer
}

// New allocates an adapter for fixed channels and frames per block.
func New(channels, frames, sampleRate int) *Adapter {
	return &Adapter{
		channels: channels,
		frames:   frames,
		buffer: &audio.Float32Buffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			Data: make([]float32, channels*frames),
		},
	}
}

// Channels returns the number of channels.
func (a *Adapter) Channels() int {
	return a.channels
}

// Frames returns the number of frames per block.
func (a *Adapter) Frames() int {
	return a.frames
}

// Fits returns true if the planar buffer has the adapter shape.
func (a *Adapter) Fits(planar [][]float32) bool {
	if len(planar) != a.channels {
		return false
	}
	for _, c := range planar {
		if len(c) != a.frames {
			return false
		}
	}
	return true
}

// Interleave copies planar into the scratch buffer and returns it. A single
// channel is returned as is, without copying.
func (a *Adapter) Interleave(planar [][]float32) []float32 {
	if a.channels == 1 {
		return planar[0]
	}
	Interleave(planar, a.buffer.Data)
	return a.buffer.Data
}

// Deinterleave copies the scratch buffer back into planar. It is a no-op
// for a single channel.
func (a *Adapter) Deinterleave(planar [][]float32) {
	if a.channels == 1 {
		return
	}
	Deinterleave(a.buffer.Data, planar)
}

// Buffer returns the scratch buffer.
func (a *Adapter) Buffer() *audio.Float32Buffer {
	return a.buffer
}

// Interleave writes sample f of channel c into dst[f*N+c], N is the number
// of channels. Dst must hold at least N*frames samples.
func Interleave(planar [][]float32, dst []float32) {
	n := len(planar)
	for c := range planar {
		for f, v := range planar[c] {
			dst[f*n+c] = v
		}
	}
}

// Deinterleave is the inverse of Interleave.
func Deinterleave(src []float32, planar [][]float32) {
	n := len(planar)
	for c := range planar {
		for f := range planar[c] {
			planar[c][f] = src[f*n+c]
		}
	}
}
