package mock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/timeline/mock"
	"github.com/pipelined/timeline/signal"
)

func TestOutput(t *testing.T) {
	tests := []struct {
		description string
		failOpen    bool
		failAfter   int
		writes      int
		openErr     error
		chunks      int
	}{
		{
			description: "all writes",
			writes:      3,
			chunks:      3,
		},
		{
			description: "write failure",
			failAfter:   2,
			writes:      3,
			chunks:      2,
		},
		{
			description: "open failure",
			failOpen:    true,
			openErr:     mock.ErrOpen,
		},
	}
	for _, test := range tests {
		o := &mock.Output{FailOpen: test.failOpen, FailAfter: test.failAfter}
		err := o.Open(signal.DefaultFormat)
		assert.Equal(t, test.openErr, err, test.description)
		if err != nil {
			continue
		}
		assert.Equal(t, signal.DefaultFormat, o.Format(), test.description)
		for i := 0; i < test.writes; i++ {
			err = o.Write([]byte{1, 2})
		}
		if test.failAfter > 0 {
			assert.Equal(t, mock.ErrWrite, err, test.description)
		}
		assert.Equal(t, test.chunks, o.Chunks(), test.description)
		assert.Len(t, o.Bytes(), 2*test.chunks, test.description)
		assert.NoError(t, o.Close(), test.description)
		assert.False(t, o.IsOpen(), test.description)
		assert.Error(t, o.Write([]byte{1}), test.description)
	}
}

func TestOutputSetFailures(t *testing.T) {
	o := &mock.Output{}
	o.SetFailOpen(true)
	assert.Equal(t, mock.ErrOpen, o.Open(signal.DefaultFormat))
	o.SetFailOpen(false)
	assert.NoError(t, o.Open(signal.DefaultFormat))

	o.SetFailAfter(1)
	assert.NoError(t, o.Write([]byte{1}))
	assert.Equal(t, mock.ErrWrite, o.Write([]byte{1}))
	o.SetFailAfter(0)
	assert.NoError(t, o.Write([]byte{1}))
	assert.Equal(t, 2, o.Chunks())
}
