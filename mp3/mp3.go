// Package mp3 decodes MP3 files with go-mp3 and encodes them with lame.
package mp3

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
	"github.com/viert/lame"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/signal"
)

// DefaultQuality of lame encoder, 0 is the best and 9 is the worst.
const DefaultQuality = 2

// Decode reads the whole file into an asset. Decoded data is always
// 16-bit stereo.
func Decode(path string) (*asset.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, asset.Errorf(path, "%v", err)
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, asset.Errorf(path, "%v", err)
	}
	b, err := io.ReadAll(d)
	if err != nil {
		return nil, asset.Errorf(path, "%v", err)
	}
	return asset.New(signal.Int16sFromBytes(b), d.SampleRate(), 2), nil
}

// Encoder writes mp3 files with constant bit rate.
type Encoder struct {
	Quality int
}

// Encode writes 16-bit samples into a new file. Bit rate is in kbps.
func (e Encoder) Encode(path string, data []int16, format signal.Format, bitRate int) error {
	if format.NumChannels != 1 && format.NumChannels != 2 {
		return fmt.Errorf("mp3 supports mono and stereo only, got %d channels", format.NumChannels)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	wr := lame.NewWriter(f)
	wr.Encoder.SetBitrate(bitRate)
	wr.Encoder.SetQuality(e.Quality)
	wr.Encoder.SetNumChannels(format.NumChannels)
	wr.Encoder.SetInSamplerate(format.SampleRate)
	if format.NumChannels == 1 {
		wr.Encoder.SetMode(lame.MONO)
	} else {
		wr.Encoder.SetMode(lame.JOINT_STEREO)
	}
	wr.Encoder.SetVBR(lame.VBR_OFF)
	wr.Encoder.InitParams()

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		f.Close()
		return err
	}
	if _, err := wr.Write(buf.Bytes()); err != nil {
		wr.Close()
		f.Close()
		return err
	}
	if err := wr.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
