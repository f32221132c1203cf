// Package oto plays audio with ebitengine/oto.
package oto

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/pipelined/timeline/signal"
)

var (
	// oto allows only one context per process
	contextOnce   sync.Once
	context       *oto.Context
	contextFormat signal.Format
	contextErr    error
)

func getContext(format signal.Format) (*oto.Context, error) {
	contextOnce.Do(func() {
		var ready chan struct{}
		context, ready, contextErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.NumChannels,
			Format:       oto.FormatSignedInt16LE,
		})
		if contextErr != nil {
			contextErr = fmt.Errorf("cannot create oto context: %w", contextErr)
			return
		}
		<-ready
		contextFormat = format
	})
	if contextErr != nil {
		return nil, contextErr
	}
	if contextFormat.SampleRate != format.SampleRate || contextFormat.NumChannels != format.NumChannels {
		return nil, fmt.Errorf("oto context is %d Hz %d channels, requested %d Hz %d channels",
			contextFormat.SampleRate, contextFormat.NumChannels, format.SampleRate, format.NumChannels)
	}
	return context, nil
}

// Output feeds an oto player through a pipe, so writes block until the
// player consumes data.
type Output struct {
	player *oto.Player
	w      *io.PipeWriter
}

// New returns new oto output.
func New() *Output {
	return &Output{}
}

// Open creates a player in the format. The first Open fixes the format
// for the process.
func (o *Output) Open(format signal.Format) error {
	c, err := getContext(format)
	if err != nil {
		return err
	}
	r, w := io.Pipe()
	o.player = c.NewPlayer(r)
	o.w = w
	o.player.Play()
	return nil
}

// Write sends data to the player.
func (o *Output) Write(b []byte) error {
	if _, err := o.w.Write(b); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

// Close disposes of the player.
func (o *Output) Close() error {
	if o.player == nil {
		return nil
	}
	o.w.Close()
	err := o.player.Close()
	o.player = nil
	o.w = nil
	if err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
