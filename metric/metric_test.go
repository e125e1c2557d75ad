package metric_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/pdnode/metric"
)

type (
	meteredA struct{}
	meteredB struct{}
)

func TestMeter(t *testing.T) {
	sampleRate := 44100
	var tests = []struct {
		component          interface{}
		routines           int
		blocks             int
		frames             int64
		expectedBlocks     string
		expectedSamples    string
		expectedCommands   string
		expectedComponents string
	}{
		{
			component:          meteredA{},
			routines:           2,
			blocks:             10,
			frames:             64,
			expectedBlocks:     "20",
			expectedSamples:    "1280",
			expectedCommands:   "40",
			expectedComponents: "2",
		},
		{
			component:          &meteredB{},
			routines:           3,
			blocks:             5,
			frames:             128,
			expectedBlocks:     "15",
			expectedSamples:    "1920",
			expectedCommands:   "30",
			expectedComponents: "3",
		},
	}
	// every routine owns its measure, like render goroutines do.
	testFn := func(m *metric.Measure, wg *sync.WaitGroup, blocks int, frames int64) {
		for i := 0; i < blocks; i++ {
			m.Block(frames, 2)
		}
		wg.Done()
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(metric.Meter(c.component, sampleRate), wg, c.blocks, c.frames)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(c.component)
		assert.Equal(t, c.expectedBlocks, values[metric.BlockCounter])
		assert.Equal(t, c.expectedSamples, values[metric.SampleCounter])
		assert.Equal(t, c.expectedCommands, values[metric.CommandCounter])
		assert.Equal(t, c.expectedComponents, values[metric.ComponentCounter])
	}
	assert.Contains(t, metric.GetAll(), "metric_test.meteredA")
}

func TestSkippedDropped(t *testing.T) {
	type meteredC struct{}
	m := metric.Meter(meteredC{}, 48000)
	m.Skipped(3)
	m.Dropped(5)
	values := metric.Get(meteredC{})
	assert.Equal(t, "1", values[metric.SkippedCounter])
	assert.Equal(t, "5", values[metric.DroppedCounter])
	assert.Equal(t, "3", values[metric.CommandCounter])
	assert.Equal(t, "0", values[metric.BlockCounter])
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, metric.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, metric.DurationOf(48000, 24000))
	assert.Equal(t, time.Duration(0), metric.DurationOf(0, 100))
}
