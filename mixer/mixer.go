// Package mixer sums clips of multiple tracks into interleaved 16-bit PCM
// chunks.
package mixer

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pipelined/timeline/log"
	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/track"
)

// Mixer produces fixed-size chunks of the timeline in its format. Clip
// assets are expected to be converted to the mixer sample rate and number of
// channels, clips with different layout are skipped.
type Mixer struct {
	format signal.Format
	logger logrus.FieldLogger
}

// Option of a mixer.
type Option func(*Mixer)

// WithLogger sets mixer logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Mixer) {
		m.logger = logger
	}
}

// New returns new mixer. Only 16-bit output is produced, so the bit depth
// of the format is ignored.
func New(format signal.Format, options ...Option) *Mixer {
	format.BitDepth = signal.BitDepth16
	m := &Mixer{
		format: format,
		logger: log.GetLogger(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Format returns output format of the mixer.
func (m *Mixer) Format() signal.Format {
	return m.format
}

// Silence returns zeroed chunk of the length.
func (m *Mixer) Silence(length time.Duration) []byte {
	return make([]byte, m.format.BytesFor(length))
}

// Mix returns the interval [start, start+length) of tracks as little-endian
// PCM. The result is always exactly Format().BytesFor(length) bytes: missing
// material is silence and overruns are truncated.
func (m *Mixer) Mix(tracks []*track.Track, start, length time.Duration) []byte {
	out := m.Silence(length)
	m.MixTo(out, tracks, start, length)
	return out
}

// MixTo writes the interval into out. Out is cleared first and its length
// limits the number of samples.
func (m *Mixer) MixTo(out []byte, tracks []*track.Track, start, length time.Duration) {
	clear(out)
	samples := m.MixSamples(tracks, start, length, len(out)/m.format.SampleWidth())
	if samples != nil {
		signal.PutInt16s(out, samples)
	}
}

// MixSamples accumulates the interval into n samples. Nil is returned if no
// clip contributed.
func (m *Mixer) MixSamples(tracks []*track.Track, start, length time.Duration, n int) []int16 {
	var mix []int16
	for _, t := range tracks {
		if t.Muted {
			continue
		}
		for _, c := range t.ActiveClips(start, length) {
			offset := start - c.StartTime()
			// not started yet
			if offset < 0 {
				continue
			}
			a := c.Asset()
			if a.Empty() {
				continue
			}
			if a.NumChannels != m.format.NumChannels || a.SampleRate != m.format.SampleRate {
				m.logger.WithFields(logrus.Fields{
					"track":       t.Name,
					"clip":        c.Name,
					"id":          c.ID(),
					"sampleRate":  a.SampleRate,
					"numChannels": a.NumChannels,
				}).Debug("clip format mismatch, skipped")
				continue
			}
			data, ok := c.Chunk(offset, length)
			if !ok {
				continue
			}
			if mix == nil {
				mix = make([]int16, n)
			}
			accumulate(mix, data, c.Volume*t.Volume)
		}
	}
	return mix
}

func accumulate(mix, data []int16, gain float64) {
	if len(data) > len(mix) {
		data = data[:len(mix)]
	}
	for i, v := range data {
		mix[i] = signal.SaturatingAdd(mix[i], signal.Scale(v, gain))
	}
}
