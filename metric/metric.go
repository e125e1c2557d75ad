// Package metric exposes render counters of nodes through expvar.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

const componentsLabel = "pdnode.components"

const (
	// BlockCounter measures number of rendered blocks.
	BlockCounter = "Blocks"
	// SampleCounter measures number of rendered frames.
	SampleCounter = "Samples"
	// CommandCounter measures number of applied commands.
	CommandCounter = "Commands"
	// DroppedCounter measures number of dropped events and stream updates.
	DroppedCounter = "Dropped"
	// SkippedCounter measures number of blocks that were not computed.
	SkippedCounter = "Skipped"
	// LatencyCounter measures latency between render calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of rendered signal.
	DurationCounter = "Duration"
	// ComponentCounter counts number of metered components.
	ComponentCounter = "Components"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BlockCounter,
		SampleCounter,
		CommandCounter,
		DroppedCounter,
		SkippedCounter,
		LatencyCounter,
		DurationCounter,
		ComponentCounter,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(getType(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Measure captures render counters of a single component. It's allocated
// on the control goroutine and then used only by the render goroutine.
type Measure struct {
	metric         metric
	sampleRate     int
	calledAt       time.Time
	frames         int64
	bufferDuration time.Duration
}

// Meter creates a new measure for the component.
func Meter(component interface{}, sampleRate int) *Measure {
	t := getType(component)
	metric := components.get(t)
	metric.components.Add(1)
	return &Measure{
		metric:     metric,
		sampleRate: sampleRate,
	}
}

// Block captures metrics of a processed block. Latency is measured from the
// previous call.
func (m *Measure) Block(frames, commands int64) {
	now := time.Now()
	if !m.calledAt.IsZero() {
		m.metric.latency.set(now.Sub(m.calledAt))
	}
	m.calledAt = now
	m.metric.blocks.Add(1)
	m.metric.samples.Add(frames)
	m.metric.commands.Add(commands)
	// recalculate buffer duration only when buffer size has changed
	if m.frames != frames {
		m.frames = frames
		m.bufferDuration = DurationOf(m.sampleRate, frames)
	}
	m.metric.duration.add(m.bufferDuration)
}

// Skipped captures a block that was not computed.
func (m *Measure) Skipped(commands int64) {
	m.metric.skipped.Add(1)
	m.metric.commands.Add(commands)
}

// Dropped captures lost events or stream updates.
func (m *Measure) Dropped(n int64) {
	m.metric.dropped.Add(n)
}

// DurationOf returns time duration of samples at this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	components *expvar.Int
	blocks     *expvar.Int
	samples    *expvar.Int
	commands   *expvar.Int
	dropped    *expvar.Int
	skipped    *expvar.Int
	latency    *duration
	duration   *duration
}

func newMetric(componentType string) metric {
	m := metric{
		components: expvar.NewInt(key(componentType, ComponentCounter)),
		blocks:     expvar.NewInt(key(componentType, BlockCounter)),
		samples:    expvar.NewInt(key(componentType, SampleCounter)),
		commands:   expvar.NewInt(key(componentType, CommandCounter)),
		dropped:    expvar.NewInt(key(componentType, DroppedCounter)),
		skipped:    expvar.NewInt(key(componentType, SkippedCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(componentType, LatencyCounter), m.latency)
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

func getType(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
