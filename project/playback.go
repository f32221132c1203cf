package project

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pipelined/timeline/internal/pool"
	"github.com/pipelined/timeline/signal"
)

// idleInterval is the polling interval of paused or seeking loop.
const idleInterval = 10 * time.Millisecond

var (
	// ErrPlaybackActive is returned when playback is started while the
	// previous loop is still running.
	ErrPlaybackActive = errors.New("playback loop is still active")
	// ErrNoOutput is returned when playback is started without device.
	ErrNoOutput = errors.New("output device is not set")
	// ErrClosed is returned when playback is started after cleanup.
	ErrClosed = errors.New("project is closed")
)

type (
	// Output is an audio device which accepts interleaved 16-bit PCM. It
	// must allow to be opened again after close. Written buffers are reused
	// once Write returns.
	Output interface {
		Open(signal.Format) error
		Write([]byte) error
		Close() error
	}

	// Terminator is implemented by outputs which hold global resources to
	// release on cleanup.
	Terminator interface {
		Terminate() error
	}

	// Observer is notified about playback progress changes. Progress is
	// normalized to [0, 1].
	Observer interface {
		ProgressChanged(progress float64)
	}

	// ObserverFunc allows to use ordinary functions as observers.
	ObserverFunc func(progress float64)

	// State of playback.
	State int
)

// ProgressChanged calls f(progress).
func (f ObserverFunc) ProgressChanged(progress float64) {
	f(progress)
}

const (
	// Stopped playback.
	Stopped State = iota
	// Playing playback.
	Playing
	// Paused playback.
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// playback is the state shared between the loop and control calls.
type playback struct {
	stateMu  sync.Mutex
	current  time.Duration
	playing  bool
	paused   bool
	seeking  bool
	closed   bool
	loopDone chan struct{}
}

// device guards the output. Close from control calls never races a write
// of the loop.
type device struct {
	sync.Mutex
	output    Output
	open      bool
	logger    logrus.FieldLogger
	terminate sync.Once
}

func (d *device) write(format signal.Format, b []byte) error {
	d.Lock()
	defer d.Unlock()
	if !d.open {
		if err := d.output.Open(format); err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		d.open = true
	}
	if err := d.output.Write(b); err != nil {
		// reopen on next play
		d.closeLocked()
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (d *device) close() {
	d.Lock()
	defer d.Unlock()
	d.closeLocked()
}

func (d *device) closeLocked() {
	if !d.open {
		return
	}
	d.open = false
	if err := d.output.Close(); err != nil {
		d.logger.WithError(err).Error("close output")
	}
}

func (d *device) release() {
	d.close()
	d.terminate.Do(func() {
		if t, ok := d.output.(Terminator); ok {
			if err := t.Terminate(); err != nil {
				d.logger.WithError(err).Error("terminate output")
			}
		}
	})
}

// TogglePlay starts stopped playback, pauses playing one and resumes paused
// one. Only one playback loop runs at a time.
func (p *Project) TogglePlay() error {
	if p.device.output == nil {
		return ErrNoOutput
	}
	p.stateMu.Lock()
	switch {
	case p.closed:
		p.stateMu.Unlock()
		return ErrClosed
	case !p.playing:
		if p.loopDone != nil {
			select {
			case <-p.loopDone:
			default:
				p.stateMu.Unlock()
				return ErrPlaybackActive
			}
		}
		p.playing = true
		p.paused = false
		done := make(chan struct{})
		p.loopDone = done
		p.stateMu.Unlock()
		p.logger.Debug("playback started")
		go p.loop(done)
	case !p.paused:
		p.paused = true
		p.stateMu.Unlock()
		p.device.close()
		p.logger.Debug("playback paused")
	default:
		p.paused = false
		p.stateMu.Unlock()
		p.logger.Debug("playback resumed")
	}
	return nil
}

// Stop ends playback and waits for the loop to exit. Cursor is kept.
func (p *Project) Stop() {
	done := p.stop(false)
	if done != nil {
		<-done
	}
	p.device.close()
}

// Cleanup stops playback and releases the output. It's safe to call it
// multiple times, but not from the observer callback.
func (p *Project) Cleanup() {
	done := p.stop(true)
	if done != nil {
		<-done
	}
	if p.device.output != nil {
		p.device.release()
	}
}

func (p *Project) stop(closed bool) chan struct{} {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.playing = false
	p.paused = false
	p.closed = p.closed || closed
	return p.loopDone
}

// IsPlaying returns true if playback is active and not paused.
func (p *Project) IsPlaying() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.playing && !p.paused
}

// State returns playback state.
func (p *Project) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	switch {
	case !p.playing:
		return Stopped
	case p.paused:
		return Paused
	default:
		return Playing
	}
}

// Seeking returns true if cursor is being dragged.
func (p *Project) Seeking() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.seeking
}

// CurrentTime returns playback cursor.
func (p *Project) CurrentTime() time.Duration {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.current
}

// Progress returns cursor normalized by duration.
func (p *Project) Progress() float64 {
	return p.progress(p.Duration())
}

func (p *Project) progress(duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	return float64(p.CurrentTime()) / float64(duration)
}

// SetPlaybackTime moves the cursor, clamped to [0, duration]. While seeking
// is set, the loop doesn't advance the cursor. Observer is notified
// synchronously.
func (p *Project) SetPlaybackTime(t time.Duration, seeking bool) {
	duration := p.Duration()
	if t < 0 {
		t = 0
	}
	if t > duration {
		t = duration
	}
	p.stateMu.Lock()
	p.current = t
	p.seeking = seeking
	p.stateMu.Unlock()
	p.notify(progressOf(t, duration))
}

// SetPlaybackPosition moves the cursor to the fraction of duration.
func (p *Project) SetPlaybackPosition(fraction float64, seeking bool) {
	duration := p.Duration()
	p.SetPlaybackTime(time.Duration(fraction*float64(duration)), seeking)
}

func progressOf(current, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	return float64(current) / float64(duration)
}

func (p *Project) notify(progress float64) {
	if p.observer != nil {
		p.observer.ProgressChanged(progress)
	}
}

// loop produces chunks until playback is stopped, the end of timeline is
// reached or the device fails.
func (p *Project) loop(done chan struct{}) {
	defer close(done)
	measure := p.meter()
	frames := int64(p.format.FramesFor(p.chunk))
	buffers := pool.Get(p.format.BytesFor(p.chunk))
	for {
		p.stateMu.Lock()
		if !p.playing {
			p.stateMu.Unlock()
			return
		}
		if p.paused || p.seeking {
			paused := p.paused
			p.stateMu.Unlock()
			if paused {
				p.device.close()
			}
			time.Sleep(idleInterval)
			continue
		}
		current := p.current
		p.stateMu.Unlock()

		duration := p.Duration()
		if current >= duration {
			p.stateMu.Lock()
			p.playing = false
			p.paused = false
			p.current = 0
			p.stateMu.Unlock()
			p.device.close()
			p.logger.Debug("playback finished")
			p.notify(0)
			return
		}

		chunk := buffers.Alloc()
		p.mixTo(chunk, current)
		err := p.device.write(p.format, chunk)
		buffers.Free(chunk)
		if err != nil {
			measure.Error()
			p.logger.WithError(err).WithField("cursor", current).Error("playback stopped")
			p.stateMu.Lock()
			p.playing = false
			p.paused = false
			p.stateMu.Unlock()
			return
		}
		measure.Chunk(frames)

		next := current + p.chunk
		if next > duration {
			next = duration
		}
		p.stateMu.Lock()
		// seek during write wins
		if p.current == current && !p.seeking {
			p.current = next
		}
		current = p.current
		p.stateMu.Unlock()
		p.notify(progressOf(current, duration))
	}
}
