package ffmpeg_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/ffmpeg"
	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/test"
)

func TestDecode(t *testing.T) {
	d := ffmpeg.New("", signal.DefaultFormat)
	if !d.Available() {
		t.Skip("ffmpeg is not installed")
	}
	mono := signal.Format{SampleRate: 22050, NumChannels: 1, BitDepth: signal.BitDepth16}
	path := test.SineWav(t, "sine.wav", mono, time.Second)

	a, err := d.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, a.SampleRate)
	assert.Equal(t, 2, a.NumChannels)
	assert.InDelta(t, float64(time.Second), float64(a.Duration()), float64(10*time.Millisecond))

	_, err = d.Decode(filepath.Join(t.TempDir(), "missing.m4a"))
	assert.True(t, errors.Is(err, asset.ErrDecode))
}

func TestDecodeNoBinary(t *testing.T) {
	d := ffmpeg.New(filepath.Join(t.TempDir(), "no-ffmpeg"), signal.DefaultFormat)
	assert.False(t, d.Available())
	_, err := d.Decode("song.m4a")
	assert.True(t, errors.Is(err, asset.ErrDecode))
}
