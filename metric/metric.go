// Package metric publishes counters of playback and export through expvar.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pipelined/timeline/signal"
)

const componentsLabel = "timeline.components"

const (
	// ChunkCounter measures number of processed chunks.
	ChunkCounter = "Chunks"
	// FrameCounter measures number of processed frames.
	FrameCounter = "Frames"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts the duration of processed signal.
	DurationCounter = "Duration"
	// ComponentCounter counts number of meters created for component.
	ComponentCounter = "Components"
	// ErrorCounter counts failed chunks.
	ErrorCounter = "Errors"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		ChunkCounter,
		FrameCounter,
		LatencyCounter,
		DurationCounter,
		ComponentCounter,
		ErrorCounter,
	}
)

// Get metrics values for the named component.
func Get(component string) map[string]string {
	return getCounters(component)
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

func getCounters(component string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(component, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone
// capture until playback or export is actually running.
type ResetFunc func() *Measure

// Measure captures counters of a single run.
type Measure struct {
	metric     metric
	sampleRate int
	calledAt   time.Time
	frames     int64
	chunk      time.Duration
}

// Meter creates new meter closure to capture component counters.
func Meter(component string, sampleRate int) ResetFunc {
	metric := components.get(component)
	metric.components.Add(1)
	return func() *Measure {
		return &Measure{
			metric:     metric,
			sampleRate: sampleRate,
			calledAt:   time.Now(),
		}
	}
}

// Chunk records a processed chunk of frames.
func (m *Measure) Chunk(frames int64) {
	if m == nil {
		return
	}
	m.metric.latency.set(time.Since(m.calledAt))
	m.metric.chunks.Add(1)
	m.metric.frames.Add(frames)
	// recalculate chunk duration only when size has changed
	if m.frames != frames {
		m.frames = frames
		m.chunk = signal.DurationOf(m.sampleRate, frames)
	}
	m.metric.duration.add(m.chunk)
	m.calledAt = time.Now()
}

// Error records a failed chunk.
func (m *Measure) Error() {
	if m == nil {
		return
	}
	m.metric.errors.Add(1)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(component string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[component]; ok {
		return metric
	}
	metric := newMetric(component)
	m.m[component] = metric
	return metric
}

type metric struct {
	components *expvar.Int
	chunks     *expvar.Int
	frames     *expvar.Int
	errors     *expvar.Int
	latency    *duration
	duration   *duration
}

func newMetric(component string) metric {
	m := metric{
		components: expvar.NewInt(key(component, ComponentCounter)),
		chunks:     expvar.NewInt(key(component, ChunkCounter)),
		frames:     expvar.NewInt(key(component, FrameCounter)),
		errors:     expvar.NewInt(key(component, ErrorCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(component, LatencyCounter), m.latency)
	expvar.Publish(key(component, DurationCounter), m.duration)
	return m
}

func key(component, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, component, counter)
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
