//go:build portaudio

package portaudio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/timeline/portaudio"
	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/test"
)

func TestOutput(t *testing.T) {
	chunk := 50 * time.Millisecond
	o := portaudio.New(chunk)
	err := o.Open(signal.DefaultFormat)
	assert.Nil(t, err)

	data := make([]byte, signal.DefaultFormat.BytesFor(chunk))
	signal.PutInt16s(data, test.Sine(signal.DefaultFormat, chunk, 440, 0.1))
	for i := 0; i < 10; i++ {
		assert.Nil(t, o.Write(data))
	}
	assert.Nil(t, o.Close())
	assert.Nil(t, o.Close())
	assert.Nil(t, o.Terminate())
}
