package host_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pipelined/pdnode"
	"github.com/pipelined/pdnode/engine/loopback"
	"github.com/pipelined/pdnode/event"
	"github.com/pipelined/pdnode/host"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ramp is a source of increasing samples.
type ramp struct {
	frames int
	read   int
}

func (s *ramp) Read(planar [][]float32) (int, error) {
	if s.read >= s.frames {
		return 0, io.EOF
	}
	n := len(planar[0])
	if s.frames-s.read < n {
		n = s.frames - s.read
	}
	for c := range planar {
		for i := 0; i < n; i++ {
			planar[c][i] = float32(s.read + i)
		}
	}
	s.read += n
	return n, nil
}

type recorder struct {
	channels [][]float32
}

func (r *recorder) Write(planar [][]float32) error {
	if r.channels == nil {
		r.channels = make([][]float32, len(planar))
	}
	for c := range planar {
		r.channels[c] = append(r.channels[c], planar[c]...)
	}
	return nil
}

var format = pdnode.Format{
	Channels:       2,
	SampleRate:     44100,
	FramesPerBlock: 64,
}

func TestRender(t *testing.T) {
	n, err := pdnode.New(loopback.New())
	require.NoError(t, err)
	src := &ramp{frames: 200}
	sink := &recorder{}
	require.NoError(t, n.Subscribe("out"))
	require.NoError(t, n.SendBang("out"))

	var events event.Recorder
	err = host.Render(context.Background(), n, format, src, sink, &events)
	require.NoError(t, err)
	assert.Equal(t, pdnode.Idle, n.State())
	require.Len(t, sink.channels, 2)
	assert.Len(t, sink.channels[0], 200)
	for i, v := range sink.channels[1] {
		if v != float32(i) {
			t.Fatalf("sample %d: %v", i, v)
		}
	}
	assert.Equal(t, []event.Event{event.NewBang("out")}, events.Events())

	// 4 source blocks and one to apply deactivation
	stats := n.Stats()
	assert.Equal(t, uint64(5), stats.Processed)
	assert.Equal(t, uint64(4), stats.Blocks)
	assert.NoError(t, n.Close())
}

func TestRenderInitialized(t *testing.T) {
	n, err := pdnode.New(loopback.New())
	require.NoError(t, err)
	f, err := n.Initialize(format)
	require.NoError(t, err)
	n.Process(format.Buffer())
	_, err = f.AwaitTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, pdnode.Active, n.State())

	sink := &recorder{}
	err = host.Render(context.Background(), n, format, &ramp{frames: 128}, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, pdnode.Idle, n.State())
	require.Len(t, sink.channels, 2)
	assert.Len(t, sink.channels[0], 128)
	assert.NoError(t, n.Close())
}

func TestRenderFailures(t *testing.T) {
	t.Run("configuration", func(t *testing.T) {
		e := loopback.New()
		e.ErrorOnInit = errors.New("rejected")
		n, err := pdnode.New(e)
		require.NoError(t, err)
		err = host.Render(context.Background(), n, format, host.NewSilence(128), host.Discard, nil)
		var cfgErr *pdnode.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, pdnode.Idle, n.State())
	})
	t.Run("sink", func(t *testing.T) {
		n, err := pdnode.New(loopback.New())
		require.NoError(t, err)
		expected := errors.New("disk full")
		err = host.Render(context.Background(), n, format, host.NewSilence(128), host.SinkFunc(func([][]float32) error {
			return expected
		}), nil)
		assert.True(t, errors.Is(err, expected))
		assert.Equal(t, pdnode.Idle, n.State())
	})
	t.Run("context", func(t *testing.T) {
		n, err := pdnode.New(loopback.New())
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = host.Render(ctx, n, format, host.NewSilence(128), host.Discard, nil)
		assert.Equal(t, context.Canceled, err)
		assert.Equal(t, pdnode.Idle, n.State())
	})
	t.Run("format", func(t *testing.T) {
		n, err := pdnode.New(loopback.New())
		require.NoError(t, err)
		err = host.Render(context.Background(), n, pdnode.Format{}, host.NewSilence(128), host.Discard, nil)
		assert.True(t, errors.Is(err, pdnode.ErrInvalidFormat))
	})
}

func TestSilence(t *testing.T) {
	s := host.NewSilence(100)
	buf := [][]float32{{1, 1, 1, 1, 1, 1, 1, 1}}
	total := 0
	for {
		n, err := s.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, 100, total)
	assert.Equal(t, make([]float32, 8), buf[0])
}
