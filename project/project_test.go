package project_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/conflict"
	"github.com/pipelined/timeline/project"
	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/track"
)

const ms = time.Millisecond

var mono = signal.Format{SampleRate: 1000, NumChannels: 1, BitDepth: signal.BitDepth16}

// decoder returns 1kHz mono assets. Path "5000" results in 5 seconds of
// audio, unknown paths fail.
var decoder = asset.DecoderFunc(func(path string) (*asset.Asset, error) {
	d, err := time.ParseDuration(path + "ms")
	if err != nil {
		return nil, asset.Errorf(path, "not a duration")
	}
	data := make([]int16, int(d/ms))
	for i := range data {
		data[i] = 1000
	}
	return asset.New(data, 1000, 1), nil
})

type recorder struct {
	sync.Mutex
	values []float64
}

func (r *recorder) ProgressChanged(progress float64) {
	r.Lock()
	defer r.Unlock()
	r.values = append(r.values, progress)
}

func (r *recorder) last() float64 {
	r.Lock()
	defer r.Unlock()
	if len(r.values) == 0 {
		return -1
	}
	return r.values[len(r.values)-1]
}

func newProject(options ...project.Option) *project.Project {
	return project.New(append([]project.Option{
		project.WithFormat(mono),
		project.WithDecoder(decoder),
	}, options...)...)
}

func TestNew(t *testing.T) {
	p := project.New()
	assert.Equal(t, project.MinDuration, p.Duration())
	assert.Equal(t, signal.DefaultFormat, p.Format())
	assert.Equal(t, project.DefaultChunk, p.Chunk())
	assert.Equal(t, time.Duration(0), p.CurrentTime())
	assert.Equal(t, project.Stopped, p.State())
	assert.Empty(t, p.Tracks())
}

func TestAddAudioClip(t *testing.T) {
	tests := []struct {
		description string
		trackIndex  int
		path        string
		name        string
		start       time.Duration
		err         error
		clipName    string
		duration    time.Duration
		projectEnd  time.Duration
	}{
		{
			description: "short clip",
			path:        "5000",
			clipName:    "5000",
			duration:    5000 * ms,
			projectEnd:  project.MinDuration,
		},
		{
			description: "named clip beyond floor",
			path:        "4000",
			name:        "late",
			start:       9000 * ms,
			clipName:    "late",
			duration:    4000 * ms,
			projectEnd:  13000 * ms,
		},
		{
			description: "decode failure",
			path:        "broken",
			clipName:    "broken",
			projectEnd:  project.MinDuration,
		},
		{
			description: "track index",
			trackIndex:  1,
			path:        "5000",
			err:         project.ErrTrackIndex,
			projectEnd:  project.MinDuration,
		},
	}
	for _, test := range tests {
		p := newProject()
		p.NewTrack("t")
		c, err := p.AddAudioClip(test.trackIndex, test.path, test.start, test.name)
		assert.Equal(t, test.projectEnd, p.Duration(), test.description)
		if test.err != nil {
			assert.True(t, errors.Is(err, test.err), test.description)
			continue
		}
		require.NoError(t, err, test.description)
		assert.Equal(t, test.clipName, c.Name, test.description)
		assert.Equal(t, test.path, c.Source, test.description)
		assert.Equal(t, test.duration, c.Duration(), test.description)
		assert.Equal(t, test.start+test.duration, c.EndTime(), test.description)
	}
}

func TestAddAudioClipConvert(t *testing.T) {
	p := project.New(project.WithDecoder(decoder))
	p.NewTrack("t")
	c, err := p.AddAudioClip(0, "1000", 0, "")
	require.NoError(t, err)
	a := c.Asset()
	assert.Equal(t, signal.DefaultFormat.SampleRate, a.SampleRate)
	assert.Equal(t, signal.DefaultFormat.NumChannels, a.NumChannels)
	assert.Equal(t, 1000*ms, c.Duration())
}

func TestDurationMonotonic(t *testing.T) {
	p := newProject()
	p.NewTrack("t")
	c, err := p.AddAudioClip(0, "5000", 7000*ms, "")
	require.NoError(t, err)
	assert.Equal(t, 12000*ms, p.Duration())

	applied := p.TrimClipRight(c, 3000*ms)
	assert.Equal(t, 3000*ms, applied)
	assert.Equal(t, 9000*ms, c.EndTime())
	assert.Equal(t, 12000*ms, p.Duration())

	_, err = p.RemoveClip(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 12000*ms, p.Duration())

	_, err = p.RemoveClip(0, 0)
	assert.True(t, errors.Is(err, project.ErrClipIndex))

	p.AddDuration(3000 * ms)
	assert.Equal(t, 15000*ms, p.Duration())
}

func TestTrimClipLeft(t *testing.T) {
	p := newProject()
	p.NewTrack("t")
	c, err := p.AddAudioClip(0, "1000", 500*ms, "")
	require.NoError(t, err)

	applied := p.TrimClipLeft(c, 2000*ms)
	assert.Equal(t, 1000*ms-track.MinEdgeLength, applied)
	assert.Equal(t, track.MinEdgeLength, c.Duration())
	assert.Equal(t, 1400*ms, c.StartTime())
	assert.Equal(t, 1500*ms, c.EndTime())
}

func TestSetPlaybackTime(t *testing.T) {
	tests := []struct {
		description string
		time        time.Duration
		seeking     bool
		expected    time.Duration
		progress    float64
	}{
		{
			description: "negative",
			time:        -500 * ms,
			expected:    0,
			progress:    0,
		},
		{
			description: "beyond duration",
			time:        20000 * ms,
			expected:    project.MinDuration,
			progress:    1,
		},
		{
			description: "seeking",
			time:        2500 * ms,
			seeking:     true,
			expected:    2500 * ms,
			progress:    0.25,
		},
	}
	for _, test := range tests {
		r := &recorder{}
		p := newProject(project.WithObserver(r))
		p.SetPlaybackTime(test.time, test.seeking)
		assert.Equal(t, test.expected, p.CurrentTime(), test.description)
		assert.Equal(t, test.seeking, p.Seeking(), test.description)
		assert.Equal(t, test.progress, r.last(), test.description)
		assert.Equal(t, test.progress, p.Progress(), test.description)
	}
}

func TestSetPlaybackPosition(t *testing.T) {
	r := &recorder{}
	p := newProject(project.WithObserver(r))
	p.SetPlaybackPosition(0.5, false)
	assert.Equal(t, 5000*ms, p.CurrentTime())
	assert.Equal(t, 0.5, r.last())

	p.AddDuration(10000 * ms)
	assert.Equal(t, 0.25, r.last())
}

func TestMoveClip(t *testing.T) {
	p := newProject()
	p.NewTrack("t")
	a, err := p.AddAudioClip(0, "2000", 0, "a")
	require.NoError(t, err)
	b, err := p.AddAudioClip(0, "2000", 1000*ms, "b")
	require.NoError(t, err)

	result, err := p.MoveClip(0, a, 1000*ms)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, []*track.Clip{b}, result.Moved)
	assert.Equal(t, 3000*ms, b.StartTime())

	_, err = p.MoveClip(3, a, 0)
	assert.True(t, errors.Is(err, project.ErrTrackIndex))
}

func TestMoveClipExtendsDuration(t *testing.T) {
	p := newProject()
	p.NewTrack("t")
	a, err := p.AddAudioClip(0, "5000", 0, "a")
	require.NoError(t, err)
	_, err = p.AddAudioClip(0, "5000", 5000*ms, "b")
	require.NoError(t, err)

	result, err := p.MoveClip(0, a, 2000*ms)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 12000*ms, p.Duration())
}

func TestReorganizeAndAutoResolve(t *testing.T) {
	p := newProject()
	p.NewTrack("t")
	for _, start := range []time.Duration{300 * ms, 0, 100 * ms} {
		_, err := p.AddAudioClip(0, "1000", start, "")
		require.NoError(t, err)
	}
	report, err := p.AutoResolveTrack(0, conflict.ShiftLater)
	require.NoError(t, err)
	assert.True(t, report.Resolved())

	require.NoError(t, p.ReorganizeTrack(0, 0))
	tr, err := p.Track(0)
	require.NoError(t, err)
	sorted := tr.ClipsSorted()
	assert.Equal(t, time.Duration(0), sorted[0].StartTime())
	assert.Equal(t, sorted[0].EndTime(), sorted[1].StartTime())
	assert.Equal(t, sorted[1].EndTime(), sorted[2].StartTime())

	assert.True(t, errors.Is(p.ReorganizeTrack(1, 0), project.ErrTrackIndex))
	_, err = p.AutoResolveTrack(-1, conflict.ShiftLater)
	assert.True(t, errors.Is(err, project.ErrTrackIndex))
}

func TestMixChunk(t *testing.T) {
	p := newProject()
	p.NewTrack("muted").Muted = true
	p.NewTrack("t")
	_, err := p.AddAudioClip(1, "1000", 0, "")
	require.NoError(t, err)
	_, err = p.AddAudioClip(0, "1000", 0, "")
	require.NoError(t, err)

	for _, start := range []time.Duration{0, 990 * ms, 5000 * ms} {
		assert.Len(t, p.MixChunk(start, 50*ms), mono.BytesFor(50*ms))
	}
	assert.Equal(t, []int16{1000, 1000}, signal.Int16sFromBytes(p.MixChunk(0, 2*ms)))
}

func TestEditView(t *testing.T) {
	p := newProject()
	tr := p.NewTrack("t")
	p.Edit(func(tracks []*track.Track) {
		tracks[0].AddClip(track.NewClip("x", "x", asset.New(make([]int16, 11000), 1000, 1), 1000*ms))
	})
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, 12000*ms, p.Duration())
	assert.Equal(t, 12000*ms, p.End())
	p.View(func(tracks []*track.Track, duration time.Duration) {
		assert.Len(t, tracks, 1)
		assert.Equal(t, 12000*ms, duration)
	})
}

func TestChunkAlignment(t *testing.T) {
	tests := []struct {
		description string
		sampleRate  int
		chunk       time.Duration
		expected    time.Duration
	}{
		{description: "cd rate", sampleRate: 44100, chunk: 50 * ms, expected: 50 * ms},
		{description: "half cd rate", sampleRate: 22050, chunk: 50 * ms, expected: 60 * ms},
		{description: "quarter cd rate", sampleRate: 11025, chunk: 50 * ms, expected: 80 * ms},
		{description: "any ms at 48 kHz", sampleRate: 48000, chunk: 33 * ms, expected: 33 * ms},
		{description: "sub millisecond", sampleRate: 1000, chunk: 2500 * time.Microsecond, expected: 3 * ms},
	}
	for _, test := range tests {
		format := signal.Format{SampleRate: test.sampleRate, NumChannels: 2, BitDepth: signal.BitDepth16}
		p := project.New(project.WithFormat(format), project.WithChunk(test.chunk))
		assert.Equal(t, test.expected, p.Chunk(), test.description)
		assert.Zero(t, format.BytesFor(p.Chunk())%format.FrameSize(), test.description)
	}
}

func TestMixChunkChannelContinuity(t *testing.T) {
	format := signal.Format{SampleRate: 22050, NumChannels: 2, BitDepth: signal.BitDepth16}
	data := make([]int16, format.SampleRate*2)
	for i := range data {
		data[i] = 100
		if i%2 == 1 {
			data[i] = -100
		}
	}
	p := project.New(project.WithFormat(format))
	p.NewTrack("stereo")
	require.NoError(t, p.AddClip(0, track.NewClip("lr.wav", "lr", asset.New(data, format.SampleRate, 2), 0)))

	var out []byte
	for i := 0; i < 4; i++ {
		chunk := p.MixChunk(time.Duration(i)*p.Chunk(), p.Chunk())
		require.Zero(t, len(chunk)%format.FrameSize())
		out = append(out, chunk...)
	}
	samples := signal.Int16sFromBytes(out)
	require.NotEmpty(t, samples)
	var swapped int
	for i := 0; i < len(samples); i += 2 {
		if samples[i] != 100 || samples[i+1] != -100 {
			swapped++
		}
	}
	assert.Zero(t, swapped)
}

func TestTrimClipRightClampedToDuration(t *testing.T) {
	p := newProject()
	p.NewTrack("t")
	c, err := p.AddAudioClip(0, "5000", 0, "")
	require.NoError(t, err)
	assert.Equal(t, 3000*ms, p.TrimClipRight(c, 3000*ms))

	_, err = p.MoveClip(0, c, 8000*ms)
	require.NoError(t, err)
	assert.Equal(t, 10000*ms, c.EndTime())
	assert.Equal(t, project.MinDuration, p.Duration())

	applied := p.TrimClipRight(c, -3000*ms)
	assert.Equal(t, time.Duration(0), applied)
	assert.Equal(t, 10000*ms, c.EndTime())
	assert.Equal(t, 3000*ms, c.TrimEnd())
	assert.Equal(t, project.MinDuration, p.Duration())

	p.AddDuration(1000 * ms)
	assert.Equal(t, -1000*ms, p.TrimClipRight(c, -3000*ms))
	assert.Equal(t, 11000*ms, c.EndTime())
	assert.Equal(t, 11000*ms, p.Duration())
}
