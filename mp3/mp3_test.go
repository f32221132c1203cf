package mp3_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/mp3"
	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/test"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		description string
		format      signal.Format
	}{
		{
			description: "stereo",
			format:      signal.DefaultFormat,
		},
		{
			description: "mono",
			format:      signal.Format{SampleRate: 44100, NumChannels: 1, BitDepth: signal.BitDepth16},
		},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "sine.mp3")
		data := test.Sine(tt.format, time.Second, 440, 0.5)
		require.NoError(t, mp3.Encoder{Quality: mp3.DefaultQuality}.Encode(path, data, tt.format, 192), tt.description)

		a, err := mp3.Decode(path)
		require.NoError(t, err, tt.description)
		assert.Equal(t, 44100, a.SampleRate, tt.description)
		assert.Equal(t, 2, a.NumChannels, tt.description)
		// encoder delay and padding
		assert.InDelta(t, float64(time.Second), float64(a.Duration()), float64(100*time.Millisecond), tt.description)
	}
}

func TestEncodeChannels(t *testing.T) {
	format := signal.Format{SampleRate: 44100, NumChannels: 4, BitDepth: signal.BitDepth16}
	err := mp3.Encoder{}.Encode(filepath.Join(t.TempDir(), "x.mp3"), make([]int16, 40), format, 192)
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "garbage.mp3")
	require.NoError(t, os.WriteFile(garbage, []byte("not an mpeg stream"), 0644))
	for _, path := range []string{garbage, filepath.Join(t.TempDir(), "missing.mp3")} {
		_, err := mp3.Decode(path)
		assert.True(t, errors.Is(err, asset.ErrDecode), path)
	}
}
