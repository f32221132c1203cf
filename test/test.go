// Package test contains helper functions useful for testing timeline
// packages. Fixtures are generated into test temp directories.
package test

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/wav"
)

// Sine returns interleaved sine wave of the duration. Amplitude is full
// scale relative.
func Sine(format signal.Format, d time.Duration, freq, amplitude float64) []int16 {
	frames := format.FramesFor(d)
	data := make([]int16, frames*format.NumChannels)
	for i := 0; i < frames; i++ {
		v := signal.Int16(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(format.SampleRate)))
		for c := 0; c < format.NumChannels; c++ {
			data[i*format.NumChannels+c] = v
		}
	}
	return data
}

// Const returns interleaved signal of the duration with every sample equal
// to value.
func Const(format signal.Format, d time.Duration, value int16) []int16 {
	data := make([]int16, format.FramesFor(d)*format.NumChannels)
	for i := range data {
		data[i] = value
	}
	return data
}

// WriteWav writes data as 16-bit wav into the test temp directory and
// returns the path.
func WriteWav(t testing.TB, name string, format signal.Format, data []int16) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, wav.Encode(path, data, format, 0))
	return path
}

// SineWav writes sine wave fixture of the duration and returns the path.
func SineWav(t testing.TB, name string, format signal.Format, d time.Duration) string {
	t.Helper()
	return WriteWav(t, name, format, Sine(format, d, 440, 0.5))
}
