// Package project composes tracks, conflict resolution, mixing and playback
// into a timeline.
//
// Structural edits and reads of the timeline are serialized by a project
// level read/write lock, so exports and playback can read tracks while no
// edit is in flight. Playback state is guarded separately and is never
// locked before the structure lock.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/conflict"
	"github.com/pipelined/timeline/log"
	"github.com/pipelined/timeline/metric"
	"github.com/pipelined/timeline/mixer"
	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/track"
)

const (
	// MinDuration is the shortest timeline.
	MinDuration = 10 * time.Second
	// DefaultChunk is the length of a playback chunk.
	DefaultChunk = 50 * time.Millisecond
	// Component is the metric name of playback.
	Component = "project.playback"
)

var (
	// ErrTrackIndex is returned when track index is out of range.
	ErrTrackIndex = errors.New("track index out of range")
	// ErrClipIndex is returned when clip index is out of range.
	ErrClipIndex = errors.New("clip index out of range")
)

type (
	// Project is the timeline aggregate.
	Project struct {
		mu       sync.RWMutex
		tracks   []*track.Track
		duration time.Duration

		format   signal.Format
		chunk    time.Duration
		decoder  asset.Decoder
		resolver *conflict.Resolver
		mixer    *mixer.Mixer
		logger   logrus.FieldLogger
		observer Observer
		meter    metric.ResetFunc

		playback
		device device
	}

	// Option of a project.
	Option func(*Project)
)

// WithFormat sets sample rate and number of channels of the project.
func WithFormat(format signal.Format) Option {
	return func(p *Project) {
		p.format = format
	}
}

// WithChunk sets playback chunk length. Chunks which don't hold whole
// number of frames in project format are extended to the next whole
// millisecond that does.
func WithChunk(chunk time.Duration) Option {
	return func(p *Project) {
		if chunk > 0 {
			p.chunk = chunk
		}
	}
}

// WithDecoder sets decoder of imported sources.
func WithDecoder(decoder asset.Decoder) Option {
	return func(p *Project) {
		p.decoder = decoder
	}
}

// WithOutput sets playback device.
func WithOutput(output Output) Option {
	return func(p *Project) {
		p.device.output = output
	}
}

// WithObserver sets playback progress observer.
func WithObserver(observer Observer) Option {
	return func(p *Project) {
		p.observer = observer
	}
}

// WithLogger sets project logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Project) {
		p.logger = logger
	}
}

// WithResolver sets resolver of move conflicts.
func WithResolver(resolver *conflict.Resolver) Option {
	return func(p *Project) {
		p.resolver = resolver
	}
}

// New creates an empty project.
func New(options ...Option) *Project {
	p := &Project{
		duration: MinDuration,
		format:   signal.DefaultFormat,
		chunk:    DefaultChunk,
		decoder:  noDecoder,
		logger:   log.GetLogger(),
	}
	for _, option := range options {
		option(p)
	}
	p.format.BitDepth = signal.BitDepth16
	if aligned := alignChunk(p.format.SampleRate, p.chunk); aligned != p.chunk {
		p.logger.WithFields(logrus.Fields{
			"chunk":      p.chunk,
			"aligned":    aligned,
			"sampleRate": p.format.SampleRate,
		}).Warn("chunk isn't frame aligned")
		p.chunk = aligned
	}
	if p.resolver == nil {
		p.resolver = conflict.New(conflict.WithLogger(p.logger))
	}
	p.mixer = mixer.New(p.format, mixer.WithLogger(p.logger))
	p.meter = metric.Meter(Component, p.format.SampleRate)
	p.device.logger = p.logger
	return p
}

// alignChunk returns chunk if it holds whole number of frames. Otherwise
// the shortest whole millisecond duration above chunk which does is
// returned, one second at most.
func alignChunk(sampleRate int, chunk time.Duration) time.Duration {
	if sampleRate <= 0 || frameAligned(sampleRate, chunk) {
		return chunk
	}
	d := chunk.Truncate(time.Millisecond) + time.Millisecond
	for !frameAligned(sampleRate, d) {
		d += time.Millisecond
	}
	return d
}

func frameAligned(sampleRate int, d time.Duration) bool {
	return int64(sampleRate)*int64(d)%int64(time.Second) == 0
}

var noDecoder = asset.DecoderFunc(func(path string) (*asset.Asset, error) {
	return nil, asset.Errorf(path, "no decoder configured")
})

// Format returns project PCM format.
func (p *Project) Format() signal.Format {
	return p.format
}

// Chunk returns playback chunk length.
func (p *Project) Chunk() time.Duration {
	return p.chunk
}

// NewTrack adds a new empty track and returns it.
func (p *Project) NewTrack(name string) *track.Track {
	t := track.New(name)
	p.AddTrack(t)
	return t
}

// AddTrack appends the track and returns its index.
func (p *Project) AddTrack(t *track.Track) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks = append(p.tracks, t)
	p.updateDuration()
	return len(p.tracks) - 1
}

// Tracks returns a copy of tracks list.
func (p *Project) Tracks() []*track.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*track.Track(nil), p.tracks...)
}

// Track returns track with the index.
func (p *Project) Track(index int) (*track.Track, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.track(index)
}

func (p *Project) track(index int) (*track.Track, error) {
	if index < 0 || index >= len(p.tracks) {
		return nil, fmt.Errorf("%w: %d", ErrTrackIndex, index)
	}
	return p.tracks[index], nil
}

// AddAudioClip decodes the source and places it on the track. Decode
// failure isn't an error: the clip is added with zero duration. If name is
// empty, file name without extension is used.
func (p *Project) AddAudioClip(trackIndex int, path string, start time.Duration, name string) (*track.Clip, error) {
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	a, err := p.decoder.Decode(path)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"path":  path,
			"track": trackIndex,
		}).WithError(err).Warn("source added as empty clip")
		a = nil
	}
	c := track.NewClip(path, name, a.Convert(p.format), start)
	if err := p.AddClip(trackIndex, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddClip places the clip on the track.
func (p *Project) AddClip(trackIndex int, c *track.Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.track(trackIndex)
	if err != nil {
		return err
	}
	t.AddClip(c)
	p.updateDuration()
	return nil
}

// RemoveClip removes clip with the index from the track. Duration isn't
// shrunk.
func (p *Project) RemoveClip(trackIndex, clipIndex int) (*track.Clip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.track(trackIndex)
	if err != nil {
		return nil, err
	}
	c, ok := t.RemoveClip(clipIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrClipIndex, clipIndex)
	}
	return c, nil
}

// MoveClip moves the clip to the new start time and shifts conflicting
// clips of the track. The track is left unchanged if resolution fails.
func (p *Project) MoveClip(trackIndex int, c *track.Clip, start time.Duration) (conflict.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.track(trackIndex)
	if err != nil {
		return conflict.Result{}, err
	}
	result := p.resolver.ResolveMove(t, c, start)
	p.updateDuration()
	return result, nil
}

// TrimClipLeft trims the left edge of the clip keeping its right edge in
// place. It returns the applied amount.
func (p *Project) TrimClipLeft(c *track.Clip, amount time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	applied := c.TrimLeftEdge(amount)
	p.updateDuration()
	return applied
}

// TrimClipRight trims the right edge of the clip. Restored material never
// extends the clip past the timeline duration. It returns the applied
// amount.
func (p *Project) TrimClipRight(c *track.Clip, amount time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	applied := c.TrimRightEdge(amount)
	if over := c.EndTime() - p.duration; over > 0 {
		applied += c.TrimRight(over)
		c.UpdateEndTime()
	}
	p.updateDuration()
	return applied
}

// ReorganizeTrack lays clips of the track back to back.
func (p *Project) ReorganizeTrack(trackIndex int, minGap time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.track(trackIndex)
	if err != nil {
		return err
	}
	conflict.Reorganize(t, minGap)
	p.updateDuration()
	return nil
}

// AutoResolveTrack applies batch resolution to the track. Caller must check
// report for remaining conflicts.
func (p *Project) AutoResolveTrack(trackIndex int, strategy conflict.Strategy) (conflict.Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.track(trackIndex)
	if err != nil {
		return conflict.Report{}, err
	}
	report := conflict.AutoResolveTrack(t, strategy)
	p.updateDuration()
	if !report.Resolved() {
		p.logger.WithFields(logrus.Fields{
			"track":      t.Name,
			"strategy":   strategy,
			"iterations": report.Iterations,
			"remaining":  len(report.Remaining),
		}).Warn("conflicts remain after auto resolution")
	}
	return report, nil
}

// Edit runs fn with exclusive access to tracks. Duration is updated after.
func (p *Project) Edit(fn func(tracks []*track.Track)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.tracks)
	p.updateDuration()
}

// View runs fn with shared access to tracks. Tracks must not be mutated.
func (p *Project) View(fn func(tracks []*track.Track, duration time.Duration)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn(p.tracks, p.duration)
}

// Duration returns timeline duration.
func (p *Project) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.duration
}

// End returns the latest clip end of all tracks.
func (p *Project) End() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.end()
}

func (p *Project) end() time.Duration {
	var end time.Duration
	for _, t := range p.tracks {
		if e := t.End(); e > end {
			end = e
		}
	}
	return end
}

// AddDuration extends the timeline by d.
func (p *Project) AddDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.duration += d
	duration := p.duration
	p.mu.Unlock()
	p.notify(p.progress(duration))
}

// updateDuration grows duration up to the latest clip end. Must be called
// with write lock held.
func (p *Project) updateDuration() {
	candidate := p.end()
	if candidate < MinDuration {
		candidate = MinDuration
	}
	if candidate > p.duration {
		p.duration = candidate
	}
}

// MixChunk returns the interval of timeline mixed in project format.
func (p *Project) MixChunk(start, length time.Duration) []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mixer.Mix(p.tracks, start, length)
}

func (p *Project) mixTo(out []byte, start time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.mixer.MixTo(out, p.tracks, start, p.chunk)
}
