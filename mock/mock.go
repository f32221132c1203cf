// Package mock provides an output device which records written chunks.
package mock

import (
	"errors"
	"sync"

	"github.com/pipelined/timeline/signal"
)

var (
	// ErrOpen is returned by Open when FailOpen is set.
	ErrOpen = errors.New("mock: open failed")
	// ErrWrite is returned by Write after FailAfter writes.
	ErrWrite = errors.New("mock: write failed")
)

// Output records playback. Zero value is ready to use.
type Output struct {
	// FailOpen makes every Open call fail. Use SetFailOpen once the
	// output is shared.
	FailOpen bool
	// FailAfter makes writes fail once this many chunks were written.
	// Zero disables failures. Use SetFailAfter once the output is shared.
	FailAfter int

	mu         sync.Mutex
	format     signal.Format
	open       bool
	opened     int
	closed     int
	terminated int
	chunks     int
	bytes      []byte
	written    chan struct{}
}

// Open implements project.Output.
func (o *Output) Open(format signal.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailOpen {
		return ErrOpen
	}
	o.format = format
	o.open = true
	o.opened++
	return nil
}

// SetFailOpen sets FailOpen.
func (o *Output) SetFailOpen(fail bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.FailOpen = fail
}

// SetFailAfter sets FailAfter.
func (o *Output) SetFailAfter(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.FailAfter = n
}

// Write implements project.Output.
func (o *Output) Write(b []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.open {
		return errors.New("mock: write to closed output")
	}
	if o.FailAfter > 0 && o.chunks >= o.FailAfter {
		return ErrWrite
	}
	o.chunks++
	o.bytes = append(o.bytes, b...)
	if o.written != nil {
		select {
		case o.written <- struct{}{}:
		default:
		}
	}
	return nil
}

// Close implements project.Output.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open = false
	o.closed++
	return nil
}

// Terminate implements project.Terminator.
func (o *Output) Terminate() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.terminated++
	return nil
}

// Written returns a channel which receives a value after each write.
// Writes aren't blocked if nobody receives.
func (o *Output) Written() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.written == nil {
		o.written = make(chan struct{}, 1)
	}
	return o.written
}

// Format returns format of the last Open call.
func (o *Output) Format() signal.Format {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.format
}

// IsOpen returns true if output is open.
func (o *Output) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

// Counters returns number of open, close and terminate calls.
func (o *Output) Counters() (opened, closed, terminated int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened, o.closed, o.terminated
}

// Chunks returns number of successful writes.
func (o *Output) Chunks() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.chunks
}

// Bytes returns a copy of all written data.
func (o *Output) Bytes() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]byte(nil), o.bytes...)
}
