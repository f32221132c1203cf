package manifest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/internal/manifest"
	"github.com/pipelined/timeline/project"
	"github.com/pipelined/timeline/signal"
)

const ms = time.Millisecond

var mono = signal.Format{SampleRate: 1000, NumChannels: 1, BitDepth: signal.BitDepth16}

// decoder treats file base name as duration in milliseconds and records
// requested paths.
type decoder []string

func (d *decoder) Decode(path string) (*asset.Asset, error) {
	*d = append(*d, path)
	length, err := time.ParseDuration(strings.TrimSuffix(filepath.Base(path), ".wav") + "ms")
	if err != nil {
		return nil, asset.Errorf(path, "not a duration")
	}
	return asset.New(make([]int16, int(length/ms)), 1000, 1), nil
}

const arrangement = `
duration: 20s
tracks:
  - name: drums
    volume: 0.5
    clips:
      - path: 2000.wav
        start: 1s
        trimStart: 500ms
      - path: /abs/1000.wav
        name: fill
        start: 4s
        volume: 0.25
  - name: bass
    muted: true
    resolve: shift
    clips:
      - path: 3000.wav
      - path: 3000.wav
        start: 1s
`

func TestLoadApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.yaml")
	require.NoError(t, os.WriteFile(path, []byte(arrangement), 0644))

	m, err := manifest.Load(path)
	require.NoError(t, err)
	require.Len(t, m.Tracks, 2)

	var d decoder
	p := project.New(project.WithFormat(mono), project.WithDecoder(&d))
	require.NoError(t, m.Apply(p))

	assert.Equal(t, []string{
		filepath.Join(dir, "2000.wav"),
		"/abs/1000.wav",
		filepath.Join(dir, "3000.wav"),
		filepath.Join(dir, "3000.wav"),
	}, []string(d))
	assert.Equal(t, 20*time.Second, p.Duration())

	drums, err := p.Track(0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, drums.Volume)
	first := drums.Clip(0)
	assert.Equal(t, "2000", first.Name)
	assert.Equal(t, 1000*ms, first.StartTime())
	assert.Equal(t, 1500*ms, first.Duration())
	assert.Equal(t, 2500*ms, first.EndTime())
	assert.Equal(t, "fill", drums.Clip(1).Name)
	assert.Equal(t, 0.25, drums.Clip(1).Volume)

	bass, err := p.Track(1)
	require.NoError(t, err)
	assert.True(t, bass.Muted)
	assert.Equal(t, 1.0, bass.Volume)
	var starts []time.Duration
	for _, c := range bass.ClipsSorted() {
		starts = append(starts, c.StartTime())
	}
	assert.Equal(t, []time.Duration{0, 3000 * ms}, starts)
}

func TestParse(t *testing.T) {
	tests := []struct {
		description string
		source      string
		tracks      int
		err         bool
	}{
		{
			description: "empty",
		},
		{
			description: "tracks without clips",
			source:      "tracks:\n  - name: a\n  - name: b\n",
			tracks:      2,
		},
		{
			description: "unknown strategy",
			source:      "tracks:\n  - name: a\n    resolve: merge\n",
			err:         true,
		},
		{
			description: "empty path",
			source:      "tracks:\n  - name: a\n    clips:\n      - start: 1s\n",
			err:         true,
		},
		{
			description: "negative start",
			source:      "tracks:\n  - name: a\n    clips:\n      - path: a.wav\n        start: -1s\n",
			err:         true,
		},
		{
			description: "invalid duration",
			source:      "duration: long\n",
			err:         true,
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			m, err := manifest.Parse(strings.NewReader(test.source))
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, m.Tracks, test.tracks)
		})
	}
}
