package asset

import (
	"errors"
	"fmt"
	"time"

	"github.com/pipelined/timeline/signal"
)

// ErrDecode is returned when source can't be decoded. Callers treat it as a
// recoverable media error.
var ErrDecode = errors.New("decode failed")

// Asset is a decoded source: interleaved 16-bit samples with its own sample
// rate and number of channels. It's shared by clips and never mutated once
// decoded.
type Asset struct {
	Data        []int16
	SampleRate  int
	NumChannels int
}

// Decoder decodes a source file into an asset.
type Decoder interface {
	Decode(path string) (*Asset, error)
}

// DecoderFunc allows to use ordinary functions as decoders.
type DecoderFunc func(path string) (*Asset, error)

// Decode calls f(path).
func (f DecoderFunc) Decode(path string) (*Asset, error) {
	return f(path)
}

// New creates new asset from interleaved samples.
func New(data []int16, sampleRate, numChannels int) *Asset {
	return &Asset{
		Data:        data,
		SampleRate:  sampleRate,
		NumChannels: numChannels,
	}
}

// Errorf wraps decode failure of the path with ErrDecode.
func Errorf(path string, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrDecode, path, fmt.Sprintf(format, args...))
}

// Empty returns true if asset has no samples.
func (a *Asset) Empty() bool {
	return a == nil || a.NumChannels == 0 || len(a.Data) < a.NumChannels
}

// Format returns 16-bit format of asset data.
func (a *Asset) Format() signal.Format {
	if a == nil {
		return signal.Format{}
	}
	return signal.Format{
		SampleRate:  a.SampleRate,
		NumChannels: a.NumChannels,
		BitDepth:    signal.BitDepth16,
	}
}

// Frames returns number of frames in the asset.
func (a *Asset) Frames() int {
	if a.Empty() {
		return 0
	}
	return len(a.Data) / a.NumChannels
}

// Duration returns duration of the asset data.
func (a *Asset) Duration() time.Duration {
	if a.Empty() {
		return 0
	}
	return signal.DurationOf(a.SampleRate, int64(a.Frames()))
}

// Convert returns asset in the format's sample rate and number of channels.
// The same asset is returned if no conversion is needed.
func (a *Asset) Convert(format signal.Format) *Asset {
	if a.Empty() {
		return a
	}
	if a.SampleRate == format.SampleRate && a.NumChannels == format.NumChannels {
		return a
	}
	data := signal.Remap(a.Data, a.NumChannels, format.NumChannels)
	data = signal.Resample(data, format.NumChannels, a.SampleRate, format.SampleRate)
	return New(data, format.SampleRate, format.NumChannels)
}
