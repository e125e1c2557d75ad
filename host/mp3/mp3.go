// Package mp3 encodes planar blocks into mp3 files with lame.
package mp3

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/viert/lame"
)

// Sink allows to send data to mp3 files.
type Sink struct {
	f   *os.File
	wr  *lame.LameWriter
	pcm bytes.Buffer
}

// Create creates new mp3 file. Only mono and stereo are supported.
func Create(path string, sampleRate, channels, bitRate, quality int) (*Sink, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("mp3: %d channels are not supported", channels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := Sink{
		f:  f,
		wr: lame.NewWriter(f),
	}
	s.wr.Encoder.SetBitrate(bitRate)
	s.wr.Encoder.SetQuality(quality)
	s.wr.Encoder.SetNumChannels(channels)
	s.wr.Encoder.SetInSamplerate(sampleRate)
	if channels == 2 {
		s.wr.Encoder.SetMode(lame.JOINT_STEREO)
	} else {
		s.wr.Encoder.SetMode(lame.MONO)
	}
	s.wr.Encoder.SetVBR(lame.VBR_RH)
	s.wr.Encoder.InitParams()
	return &s, nil
}

// Write encodes planar samples.
func (s *Sink) Write(planar [][]float32) error {
	s.pcm.Reset()
	if err := PCM16(&s.pcm, planar); err != nil {
		return err
	}
	if _, err := s.wr.Write(s.pcm.Bytes()); err != nil {
		return err
	}
	return nil
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	err := s.wr.Close()
	if err != nil {
		return err
	}
	return s.f.Close()
}

// PCM16 writes planar samples as interleaved little-endian 16 bit PCM.
// Samples are clipped to [-1, 1].
func PCM16(buf *bytes.Buffer, planar [][]float32) error {
	if len(planar) == 0 {
		return nil
	}
	for f := range planar[0] {
		for c := range planar {
			v := math.Max(-1, math.Min(1, float64(planar[c][f])))
			if err := binary.Write(buf, binary.LittleEndian, int16(v*math.MaxInt16)); err != nil {
				return err
			}
		}
	}
	return nil
}
