// Package wav reads and writes wav files as planar blocks.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")

type (
	// Source reads from wav file.
	Source struct {
		file     *os.File
		decoder  *wav.Decoder
		channels int
		rate     int
		bitDepth int
		ib       *audio.IntBuffer
	}

	// Sink saves audio to wav file.
	Sink struct {
		file     *os.File
		encoder  *wav.Encoder
		bitDepth int
		ib       *audio.IntBuffer
	}
)

func supported(bitDepth int) bool {
	return bitDepth == 16 || bitDepth == 24 || bitDepth == 32
}

// Open opens the wav file for reading.
func Open(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		if err := file.Close(); err != nil {
			return nil, fmt.Errorf("wav %s is not valid, failed to close the file: %w", path, err)
		}
		return nil, fmt.Errorf("wav %s is not valid", path)
	}
	bitDepth := int(decoder.BitDepth)
	if !supported(bitDepth) {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedBitDepth)
	}
	format := decoder.Format()
	return &Source{
		file:     file,
		decoder:  decoder,
		channels: format.NumChannels,
		rate:     format.SampleRate,
		bitDepth: bitDepth,
		ib: &audio.IntBuffer{
			Format:         format,
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Channels returns number of channels in the file.
func (s *Source) Channels() int {
	return s.channels
}

// SampleRate returns sample rate of the file.
func (s *Source) SampleRate() int {
	return s.rate
}

// Read fills planar with the next frames. Number of channels in planar
// must match the file.
func (s *Source) Read(planar [][]float32) (int, error) {
	if len(planar) != s.channels {
		return 0, fmt.Errorf("read %d channels from %d channel file", len(planar), s.channels)
	}
	size := len(planar[0]) * s.channels
	if cap(s.ib.Data) < size {
		s.ib.Data = make([]int, size)
	}
	s.ib.Data = s.ib.Data[:size]
	read, err := s.decoder.PCMBuffer(s.ib)
	if err != nil {
		return 0, err
	}
	if read == 0 {
		return 0, io.EOF
	}
	frames := read / s.channels
	scale := float32(int64(1) << (s.bitDepth - 1))
	for f := 0; f < frames; f++ {
		for c := range planar {
			planar[c][f] = float32(s.ib.Data[f*s.channels+c]) / scale
		}
	}
	return frames, nil
}

// Close closes the file.
func (s *Source) Close() error {
	return s.file.Close()
}

// Create creates new wav file for writing.
func Create(path string, sampleRate, channels, bitDepth int) (*Sink, error) {
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{
		file:     f,
		encoder:  wav.NewEncoder(f, sampleRate, bitDepth, channels, 1),
		bitDepth: bitDepth,
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write encodes planar samples. Samples are clipped to [-1, 1].
func (s *Sink) Write(planar [][]float32) error {
	if len(planar) == 0 {
		return nil
	}
	channels := len(planar)
	frames := len(planar[0])
	size := channels * frames
	if cap(s.ib.Data) < size {
		s.ib.Data = make([]int, size)
	}
	s.ib.Data = s.ib.Data[:size]
	max := float32(int64(1)<<(s.bitDepth-1) - 1)
	for f := 0; f < frames; f++ {
		for c := range planar {
			v := planar[c][f]
			switch {
			case v > 1:
				v = 1
			case v < -1:
				v = -1
			}
			s.ib.Data[f*channels+c] = int(v * max)
		}
	}
	return s.encoder.Write(s.ib)
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	if err := s.encoder.Close(); err != nil {
		return err
	}
	return s.file.Close()
}
