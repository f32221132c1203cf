// Package portaudio plays audio with the default portaudio output device.
package portaudio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/timeline/signal"
)

// Output writes chunks to blocking portaudio stream. Portaudio is
// initialized on first Open and terminated with Terminate.
type Output struct {
	chunk       time.Duration
	initialized bool
	stream      *portaudio.Stream
	buf         []int16
}

// New returns output with stream buffer sized to the chunk length.
func New(chunk time.Duration) *Output {
	return &Output{chunk: chunk}
}

// Open starts the default output stream in the format.
func (o *Output) Open(format signal.Format) error {
	if !o.initialized {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("initialize portaudio: %w", err)
		}
		o.initialized = true
	}
	framesPerBuffer := format.FramesFor(o.chunk)
	o.buf = make([]int16, framesPerBuffer*format.NumChannels)
	stream, err := portaudio.OpenDefaultStream(0, format.NumChannels, float64(format.SampleRate), framesPerBuffer, &o.buf)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}
	o.stream = stream
	return nil
}

// Write blocks until data is played. Last partial buffer is padded with
// silence.
func (o *Output) Write(b []byte) error {
	samples := signal.Int16sFromBytes(b)
	for len(samples) > 0 {
		n := copy(o.buf, samples)
		for i := n; i < len(o.buf); i++ {
			o.buf[i] = 0
		}
		if err := o.stream.Write(); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return nil
}

// Close stops and closes the stream.
func (o *Output) Close() error {
	if o.stream == nil {
		return nil
	}
	defer func() {
		o.stream = nil
	}()
	if err := o.stream.Stop(); err != nil {
		return err
	}
	return o.stream.Close()
}

// Terminate releases portaudio.
func (o *Output) Terminate() error {
	if !o.initialized {
		return nil
	}
	o.initialized = false
	return portaudio.Terminate()
}
