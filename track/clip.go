package track

import (
	"time"

	"github.com/rs/xid"

	"github.com/pipelined/timeline/asset"
)

// MinEdgeLength is the shortest clip an edge trim can leave.
const MinEdgeLength = 100 * time.Millisecond

// Clip is a placed instance of an asset on a track.
//
// Clip refers to an asset, but it's not a copy. Trims are non-destructive:
// they only move the audible window over the asset.
type Clip struct {
	Name   string
	Source string
	// Volume is a linear gain.
	Volume float64

	id               string
	asset            *asset.Asset
	startTime        time.Duration
	duration         time.Duration
	originalDuration time.Duration
	trimStart        time.Duration
	trimEnd          time.Duration
	endTime          time.Duration
}

// NewClip creates a clip of the asset placed at start. Nil or empty asset
// results in inert clip with zero duration.
func NewClip(source, name string, a *asset.Asset, start time.Duration) *Clip {
	if start < 0 {
		start = 0
	}
	d := a.Duration()
	return &Clip{
		Name:             name,
		Source:           source,
		Volume:           1,
		id:               xid.New().String(),
		asset:            a,
		startTime:        start,
		duration:         d,
		originalDuration: d,
		endTime:          start + d,
	}
}

// ID returns unique id of the clip.
func (c *Clip) ID() string {
	return c.id
}

// Asset returns decoded source of the clip.
func (c *Clip) Asset() *asset.Asset {
	return c.asset
}

// StartTime returns position of the clip on the timeline.
func (c *Clip) StartTime() time.Duration {
	return c.startTime
}

// EndTime returns the end position as of last UpdateEndTime call.
func (c *Clip) EndTime() time.Duration {
	return c.endTime
}

// Duration returns audible length of the clip.
func (c *Clip) Duration() time.Duration {
	return c.duration
}

// DisplayDuration returns current duration, trims applied.
func (c *Clip) DisplayDuration() time.Duration {
	return c.duration
}

// OriginalDuration returns length of the untrimmed source.
func (c *Clip) OriginalDuration() time.Duration {
	return c.originalDuration
}

// TrimStart returns amount clipped from the source start.
func (c *Clip) TrimStart() time.Duration {
	return c.trimStart
}

// TrimEnd returns amount clipped from the source end.
func (c *Clip) TrimEnd() time.Duration {
	return c.trimEnd
}

// SetStartTime moves the clip and refreshes its end time. Negative values
// are kept until the position is validated.
func (c *Clip) SetStartTime(start time.Duration) {
	c.startTime = start
	c.UpdateEndTime()
}

// ShiftBy moves the clip by delta and refreshes its end time.
func (c *Clip) ShiftBy(delta time.Duration) {
	c.SetStartTime(c.startTime + delta)
}

// UpdateEndTime recomputes end time. It must be called after duration is
// changed by trims.
func (c *Clip) UpdateEndTime() {
	c.endTime = c.startTime + c.duration
}

// TrimLeft shortens the clip from the left by amount. Negative amount
// restores previously trimmed material. It returns the signed amount which
// was actually applied. Start and end times are not changed.
func (c *Clip) TrimLeft(amount time.Duration) time.Duration {
	old := c.trimStart
	c.trimStart = clampTrim(c.trimStart+amount, c.originalDuration-c.trimEnd)
	c.updateDuration()
	return c.trimStart - old
}

// TrimRight shortens the clip from the right by amount. Negative amount
// restores previously trimmed material. It returns the signed amount which
// was actually applied. End time is not changed.
func (c *Clip) TrimRight(amount time.Duration) time.Duration {
	old := c.trimEnd
	c.trimEnd = clampTrim(c.trimEnd+amount, c.originalDuration-c.trimStart)
	c.updateDuration()
	return c.trimEnd - old
}

// TrimLeftEdge trims the left edge keeping the rest of the clip in place:
// start time follows the applied amount. At least MinEdgeLength of audio
// is kept, unless the clip is already shorter.
func (c *Clip) TrimLeftEdge(amount time.Duration) time.Duration {
	amount = c.edgeAmount(amount)
	applied := c.TrimLeft(amount)
	start := c.startTime + applied
	if start < 0 {
		start = 0
	}
	c.SetStartTime(start)
	return applied
}

// TrimRightEdge trims the right edge. At least MinEdgeLength of audio is
// kept, unless the clip is already shorter.
func (c *Clip) TrimRightEdge(amount time.Duration) time.Duration {
	amount = c.edgeAmount(amount)
	applied := c.TrimRight(amount)
	c.UpdateEndTime()
	return applied
}

func (c *Clip) edgeAmount(amount time.Duration) time.Duration {
	if amount <= 0 {
		return amount
	}
	available := c.duration - MinEdgeLength
	if available < 0 {
		available = 0
	}
	if amount > available {
		return available
	}
	return amount
}

func (c *Clip) updateDuration() {
	c.duration = c.originalDuration - c.trimStart - c.trimEnd
	if c.duration < 0 {
		c.duration = 0
	}
}

func clampTrim(v, max time.Duration) time.Duration {
	if max < 0 {
		max = 0
	}
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}

// Chunk returns samples of the clip-local interval [offset, offset+length)
// with trim start applied as offset bias. The slice refers to asset data
// and must not be modified. False is returned if there is no data for the
// interval.
func (c *Clip) Chunk(offset, length time.Duration) ([]int16, bool) {
	if c.asset.Empty() || offset < 0 || offset >= c.duration {
		return nil, false
	}
	end := offset + length
	if end > c.duration {
		end = c.duration
	}
	numChannels := c.asset.NumChannels
	startSample := c.asset.Format().FramesFor(offset+c.trimStart) * numChannels
	endSample := c.asset.Format().FramesFor(end+c.trimStart) * numChannels
	if endSample > len(c.asset.Data) {
		endSample = len(c.asset.Data) - len(c.asset.Data)%numChannels
	}
	if startSample >= len(c.asset.Data) || startSample >= endSample {
		return nil, false
	}
	return c.asset.Data[startSample:endSample], true
}
