// Package wav decodes and encodes RIFF WAVE files.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/signal"
)

// pcmFormat is the WAVE format tag of integer PCM.
const pcmFormat = 1

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit integer PCM is supported")

// Decode reads the whole file into an asset.
func Decode(path string) (*asset.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, asset.Errorf(path, "%v", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, asset.Errorf(path, "wav is not valid")
	}
	if d.WavAudioFormat != pcmFormat {
		return nil, asset.Errorf(path, "wav audio format %d", d.WavAudioFormat)
	}
	bitDepth := signal.BitDepth(d.BitDepth)
	switch bitDepth {
	case signal.BitDepth8, signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
	default:
		return nil, asset.Errorf(path, "%v: %d", ErrUnsupportedBitDepth, d.BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, asset.Errorf(path, "%v", err)
	}
	numChannels := int(d.NumChans)
	data := make([]int16, len(buf.Data)-len(buf.Data)%numChannels)
	for i := range data {
		v := buf.Data[i]
		// 8 bit wav is unsigned
		if bitDepth == signal.BitDepth8 {
			v -= 128
		}
		data[i] = bitDepth.ToInt16(v)
	}
	return asset.New(data, int(d.SampleRate), numChannels), nil
}

// Encode writes 16-bit samples into a new file. Bit rate is ignored.
func Encode(path string, data []int16, format signal.Format, _ int) error {
	if format.NumChannels <= 0 || format.SampleRate <= 0 {
		return fmt.Errorf("invalid wav format: %d Hz %d channels", format.SampleRate, format.NumChannels)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	e := wav.NewEncoder(f, format.SampleRate, int(signal.BitDepth16), format.NumChannels, pcmFormat)

	ints := make([]int, len(data))
	for i := range data {
		ints[i] = int(data[i])
	}
	err = e.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: format.NumChannels,
			SampleRate:  format.SampleRate,
		},
		Data:           ints,
		SourceBitDepth: int(signal.BitDepth16),
	})
	if err != nil {
		e.Close()
		f.Close()
		return err
	}
	if err := e.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
