// Package ogg encodes Opus streams in Ogg container.
package ogg

import (
	"fmt"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"gopkg.in/hraban/opus.v2"

	"github.com/pipelined/timeline/signal"
)

const (
	// SampleRate of encoded stream. Input is resampled to it.
	SampleRate = 48000
	// frameSize is 20ms of audio at SampleRate.
	frameSize = 960
	// maxPacket is the recommended opus packet buffer size.
	maxPacket = 4000
)

// Encode writes 16-bit samples into a new file. Bit rate is in kbps.
func Encode(path string, data []int16, format signal.Format, bitRate int) error {
	numChannels := format.NumChannels
	if numChannels != 1 && numChannels != 2 {
		return fmt.Errorf("opus supports mono and stereo only, got %d channels", numChannels)
	}
	enc, err := opus.NewEncoder(SampleRate, numChannels, opus.AppAudio)
	if err != nil {
		return err
	}
	if bitRate > 0 {
		if err := enc.SetBitrate(bitRate * 1000); err != nil {
			return err
		}
	}
	data = signal.Resample(data, numChannels, format.SampleRate, SampleRate)

	w, err := oggwriter.New(path, SampleRate, uint16(numChannels))
	if err != nil {
		return err
	}
	packet := make([]byte, maxPacket)
	pcm := make([]int16, frameSize*numChannels)
	var (
		timestamp uint32
		seq       uint16
	)
	for pos := 0; pos < len(data); pos += len(pcm) {
		n := copy(pcm, data[pos:])
		// pad last frame with silence
		for i := n; i < len(pcm); i++ {
			pcm[i] = 0
		}
		size, err := enc.Encode(pcm, packet)
		if err != nil {
			w.Close()
			return err
		}
		err = w.WriteRTP(&rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				SequenceNumber: seq,
				Timestamp:      timestamp,
			},
			Payload: packet[:size],
		})
		if err != nil {
			w.Close()
			return err
		}
		seq++
		timestamp += frameSize
	}
	return w.Close()
}
