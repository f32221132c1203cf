// Package aiff decodes AIFF files.
package aiff

import (
	"os"

	"github.com/go-audio/aiff"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/signal"
)

// Decode reads the whole file into an asset.
func Decode(path string) (*asset.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, asset.Errorf(path, "%v", err)
	}
	defer f.Close()

	d := aiff.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, asset.Errorf(path, "aiff is not valid")
	}
	bitDepth := signal.BitDepth(d.BitDepth)
	switch bitDepth {
	case signal.BitDepth8, signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
	default:
		return nil, asset.Errorf(path, "unsupported bit depth %d", d.BitDepth)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, asset.Errorf(path, "%v", err)
	}
	numChannels := int(d.NumChans)
	if numChannels == 0 {
		return nil, asset.Errorf(path, "no channels")
	}
	data := make([]int16, len(buf.Data)-len(buf.Data)%numChannels)
	for i := range data {
		data[i] = bitDepth.ToInt16(buf.Data[i])
	}
	return asset.New(data, int(d.SampleRate), numChannels), nil
}
