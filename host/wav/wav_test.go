package wav_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/pdnode/host/wav"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	sink, err := wav.Create(path, 44100, 2, 16)
	require.NoError(t, err)
	block := [][]float32{
		{0, 0.5, -0.5, 2},
		{0.25, -0.25, 1, -2},
	}
	require.NoError(t, sink.Write(block))
	require.NoError(t, sink.Write(block))
	require.NoError(t, sink.Close())

	src, err := wav.Open(path)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, 2, src.Channels())
	assert.Equal(t, 44100, src.SampleRate())

	buf := [][]float32{make([]float32, 3), make([]float32, 3)}
	total := 0
	var first []float32
	for {
		n, err := src.Read(buf)
		if err != nil {
			break
		}
		if first == nil {
			first = append(first, buf[0][:n]...)
		}
		total += n
	}
	assert.Equal(t, 8, total)
	assert.InDelta(t, 0, first[0], 0.001)
	assert.InDelta(t, 0.5, first[1], 0.001)
	assert.InDelta(t, -0.5, first[2], 0.001)

	_, err = src.Read([][]float32{make([]float32, 3)})
	assert.Error(t, err)
}

func TestUnsupported(t *testing.T) {
	_, err := wav.Create(filepath.Join(t.TempDir(), "out.wav"), 44100, 2, 8)
	assert.Equal(t, wav.ErrUnsupportedBitDepth, err)
	_, err = wav.Open(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
