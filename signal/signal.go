// Package signal provides PCM arithmetic shared by the timeline. It allows to:
//	- convert between durations, frames and byte lengths of a format
//	- convert bit depths and sample representations
//	- sum and scale 16-bit samples without wraparound
//	- resample and remap interleaved signals
package signal

import (
	"encoding/binary"
	"math"
	"time"
)

// BitDepth is the number of bits of a single sample.
type BitDepth int

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// Format describes an interleaved PCM stream.
type Format struct {
	SampleRate  int
	NumChannels int
	BitDepth
}

// DefaultFormat is 44.1kHz 16-bit stereo.
var DefaultFormat = Format{
	SampleRate:  44100,
	NumChannels: 2,
	BitDepth:    BitDepth16,
}

// SampleWidth returns number of bytes per sample.
func (f Format) SampleWidth() int {
	return int(f.BitDepth) / 8
}

// FrameSize returns number of bytes per frame, all channels included.
func (f Format) FrameSize() int {
	return f.SampleWidth() * f.NumChannels
}

// BytesFor returns byte length of d in this format:
// sampleRate * sampleWidth * numChannels * ms / 1000.
// The result is not rounded to frame boundary.
func (f Format) BytesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(int64(f.SampleRate) * int64(f.FrameSize()) * int64(d) / int64(time.Second))
}

// FramesFor returns number of whole frames that fit into d.
func (f Format) FramesFor(d time.Duration) int {
	return FramesOf(f.SampleRate, d)
}

// FramesOf returns number of whole frames of d for the sample rate.
func FramesOf(sampleRate int, d time.Duration) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(int64(sampleRate) * int64(d) / int64(time.Second))
}

// DurationOf returns time duration of passed frames for this sample rate.
func DurationOf(sampleRate int, frames int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames * int64(time.Second) / int64(sampleRate))
}

// ToInt16 converts a signed sample of this bit depth to 16 bits.
func (bitDepth BitDepth) ToInt16(v int) int16 {
	switch bitDepth {
	case BitDepth8:
		return int16(v << 8)
	case BitDepth24:
		return int16(v >> 8)
	case BitDepth32:
		return int16(v >> 16)
	default:
		return Clamp16(float64(v))
	}
}

// Clamp16 truncates v to int16 range without wraparound.
func Clamp16(v float64) int16 {
	if v >= math.MaxInt16 {
		return math.MaxInt16
	}
	if v <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// SaturatingAdd sums two samples, clamped to int16 range.
func SaturatingAdd(a, b int16) int16 {
	s := int32(a) + int32(b)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}

// Scale applies linear gain to the sample.
func Scale(v int16, gain float64) int16 {
	if gain == 1 {
		return v
	}
	return Clamp16(float64(v) * gain)
}

// fullScale is the magnitude of the most negative 16-bit sample.
const fullScale = -math.MinInt16

// Float64 converts 16-bit sample to full scale float in [-1, 1).
func Float64(v int16) float64 {
	return float64(v) / fullScale
}

// Int16 converts full scale float to 16-bit sample. Values at or above 1
// are clamped.
func Int16(v float64) int16 {
	return Clamp16(v * fullScale)
}

// Float64s converts 16-bit samples to full scale floats.
func Float64s(ints []int16) []float64 {
	floats := make([]float64, len(ints))
	for i, v := range ints {
		floats[i] = Float64(v)
	}
	return floats
}

// Int16s converts full scale floats to 16-bit samples.
func Int16s(floats []float64) []int16 {
	ints := make([]int16, len(floats))
	for i, v := range floats {
		ints[i] = Int16(v)
	}
	return ints
}

// PutInt16s writes samples into dst as little-endian pairs. dst must fit
// 2*len(src) bytes; odd trailing byte is left untouched.
func PutInt16s(dst []byte, src []int16) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(v))
	}
}

// Int16sFromBytes reads little-endian 16-bit samples. Odd trailing byte is
// dropped.
func Int16sFromBytes(b []byte) []int16 {
	ints := make([]int16, len(b)/2)
	for i := range ints {
		ints[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return ints
}

// Resample converts interleaved samples between sample rates with linear
// interpolation.
func Resample(data []int16, numChannels, from, to int) []int16 {
	if from == to || from <= 0 || to <= 0 || numChannels <= 0 || len(data) == 0 {
		return data
	}
	frames := len(data) / numChannels
	outFrames := int(int64(frames) * int64(to) / int64(from))
	result := make([]int16, outFrames*numChannels)
	ratio := float64(from) / float64(to)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		i0 := int(pos)
		if i0 >= frames {
			i0 = frames - 1
		}
		i1 := i0 + 1
		if i1 >= frames {
			i1 = frames - 1
		}
		frac := pos - float64(i0)
		for c := 0; c < numChannels; c++ {
			a := float64(data[i0*numChannels+c])
			b := float64(data[i1*numChannels+c])
			result[i*numChannels+c] = Clamp16(a + (b-a)*frac)
		}
	}
	return result
}

// Remap converts interleaved samples between channel layouts. Mono output is
// an average of all channels; otherwise each output channel takes the input
// channel with the same index, the last one when input is narrower.
func Remap(data []int16, from, to int) []int16 {
	if from == to || from <= 0 || to <= 0 {
		return data
	}
	frames := len(data) / from
	result := make([]int16, frames*to)
	for i := 0; i < frames; i++ {
		frame := data[i*from : (i+1)*from]
		if to == 1 {
			var sum int
			for _, v := range frame {
				sum += int(v)
			}
			result[i] = int16(sum / from)
			continue
		}
		for c := 0; c < to; c++ {
			src := c
			if src >= from {
				src = from - 1
			}
			result[i*to+c] = frame[src]
		}
	}
	return result
}
