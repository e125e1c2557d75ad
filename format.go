package pdnode

import "fmt"

// DefaultChannels is used when format has no channels set.
const DefaultChannels = 2

// Format describes the buffers passed to Process.
type Format struct {
	Channels       int
	SampleRate     int
	FramesPerBlock int
}

func (f Format) withDefaults() Format {
	if f.Channels == 0 {
		f.Channels = DefaultChannels
	}
	return f
}

func (f Format) validate() error {
	if f.Channels < 0 || f.SampleRate <= 0 || f.FramesPerBlock <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, f)
	}
	return nil
}

// Fits returns true if buffer matches the format.
func (f Format) Fits(buf [][]float32) bool {
	if len(buf) != f.Channels {
		return false
	}
	for _, c := range buf {
		if len(c) != f.FramesPerBlock {
			return false
		}
	}
	return true
}

// Buffer allocates a planar buffer for one block.
func (f Format) Buffer() [][]float32 {
	buf := make([][]float32, f.Channels)
	for i := range buf {
		buf[i] = make([]float32, f.FramesPerBlock)
	}
	return buf
}

func (f Format) String() string {
	return fmt.Sprintf("%dch %dHz %d frames", f.Channels, f.SampleRate, f.FramesPerBlock)
}
