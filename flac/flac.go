// Package flac decodes and encodes FLAC files.
package flac

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/signal"
)

// blockSize is number of frames per FLAC frame.
const blockSize = 4096

// ErrUnsupportedChannels is returned when encoding layouts other than mono
// and stereo.
var ErrUnsupportedChannels = errors.New("only mono and stereo flac is supported")

// Decode reads the whole file into an asset.
func Decode(path string) (*asset.Asset, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, asset.Errorf(path, "%v", err)
	}
	defer stream.Close()

	numChannels := int(stream.Info.NChannels)
	bitsPerSample := int(stream.Info.BitsPerSample)
	data := make([]int16, 0, int(stream.Info.NSamples)*numChannels)
	for {
		f, err := stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, asset.Errorf(path, "%v", err)
		}
		for i := 0; i < int(f.BlockSize); i++ {
			for _, sub := range f.Subframes {
				data = append(data, toInt16(sub.Samples[i], bitsPerSample))
			}
		}
	}
	return asset.New(data, int(stream.Info.SampleRate), numChannels), nil
}

func toInt16(v int32, bitsPerSample int) int16 {
	switch {
	case bitsPerSample > 16:
		return int16(v >> (bitsPerSample - 16))
	case bitsPerSample < 16:
		return int16(v << (16 - bitsPerSample))
	default:
		return int16(v)
	}
}

// Encode writes 16-bit samples into a new file with verbatim subframes.
// Bit rate is ignored.
func Encode(path string, data []int16, format signal.Format, _ int) error {
	var channels frame.Channels
	switch format.NumChannels {
	case 1:
		channels = frame.ChannelsMono
	case 2:
		channels = frame.ChannelsLR
	default:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, format.NumChannels)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, data, format, channels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, data []int16, format signal.Format, channels frame.Channels) error {
	numChannels := format.NumChannels
	frames := len(data) / numChannels
	enc, err := flac.NewEncoder(w, &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  blockSize,
		SampleRate:    uint32(format.SampleRate),
		NChannels:     uint8(numChannels),
		BitsPerSample: uint8(signal.BitDepth16),
		NSamples:      uint64(frames),
	})
	if err != nil {
		return err
	}
	for pos := 0; pos < frames; pos += blockSize {
		n := blockSize
		if pos+n > frames {
			n = frames - pos
		}
		subframes := make([]*frame.Subframe, numChannels)
		for c := range subframes {
			samples := make([]int32, n)
			for i := range samples {
				samples[i] = int32(data[(pos+i)*numChannels+c])
			}
			subframes[c] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   samples,
				NSamples:  n,
			}
		}
		err := enc.WriteFrame(&frame.Frame{
			Header: frame.Header{
				BlockSize:     uint16(n),
				SampleRate:    uint32(format.SampleRate),
				Channels:      channels,
				BitsPerSample: uint8(signal.BitDepth16),
			},
			Subframes: subframes,
		})
		if err != nil {
			enc.Close()
			return err
		}
	}
	return enc.Close()
}
