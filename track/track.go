package track

import (
	"sort"
	"time"
)

// Track is a sequence of clips sharing gain and mute state. Clips are kept
// in insertion order; temporal order is derived on demand.
type Track struct {
	Name string
	// Volume is a linear gain applied to every clip of the track.
	Volume float64
	// Pan is stored, but not applied by the mixer.
	Pan   float64
	Muted bool
	// Solo is stored, but not enforced against other tracks.
	Solo bool

	clips []*Clip
}

// New creates an empty track with unity gain.
func New(name string) *Track {
	return &Track{
		Name:   name,
		Volume: 1,
	}
}

// Overlaps reports whether two clips intersect. Adjacent clips, where one
// ends exactly where the other starts, don't overlap.
func Overlaps(a, b *Clip) bool {
	return a.StartTime() < b.EndTime() && a.EndTime() > b.StartTime()
}

// AddClip appends a clip to the track.
func (t *Track) AddClip(c *Clip) {
	t.clips = append(t.clips, c)
}

// RemoveClip removes clip with the index. False is returned if index is out
// of range.
func (t *Track) RemoveClip(index int) (*Clip, bool) {
	if index < 0 || index >= len(t.clips) {
		return nil, false
	}
	c := t.clips[index]
	t.clips = append(t.clips[:index], t.clips[index+1:]...)
	return c, true
}

// Remove removes the clip from the track.
func (t *Track) Remove(c *Clip) bool {
	_, ok := t.RemoveClip(t.Index(c))
	return ok
}

// Index returns index of the clip or -1 if it's not on the track.
func (t *Track) Index(c *Clip) int {
	for i := range t.clips {
		if t.clips[i] == c {
			return i
		}
	}
	return -1
}

// Len returns number of clips.
func (t *Track) Len() int {
	return len(t.clips)
}

// Clip returns clip with the index or nil if index is out of range.
func (t *Track) Clip(index int) *Clip {
	if index < 0 || index >= len(t.clips) {
		return nil
	}
	return t.clips[index]
}

// Clips returns a copy of clips list in insertion order.
func (t *Track) Clips() []*Clip {
	return append([]*Clip(nil), t.clips...)
}

// ClipsSorted returns clips ordered by start time. Clips with equal start
// time keep insertion order.
func (t *Track) ClipsSorted() []*Clip {
	return SortByStart(t.Clips())
}

// SortByStart stable sorts clips by start time in place and returns them.
func SortByStart(clips []*Clip) []*Clip {
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].StartTime() < clips[j].StartTime()
	})
	return clips
}

// ActiveClips returns clips sounding at current time or at current time plus
// lookahead. The latter allows to catch clips which start within the chunk.
func (t *Track) ActiveClips(current, lookahead time.Duration) []*Clip {
	var active []*Clip
	ahead := current + lookahead
	for _, c := range t.clips {
		if c.StartTime() <= current && current < c.EndTime() ||
			c.StartTime() <= ahead && ahead < c.EndTime() {
			active = append(active, c)
		}
	}
	return active
}

// CheckOverlap returns the first other clip overlapping c or nil.
func (t *Track) CheckOverlap(c *Clip) *Clip {
	for _, other := range t.clips {
		if other == c {
			continue
		}
		if Overlaps(c, other) {
			return other
		}
	}
	return nil
}

// ClipsAfter returns clips which start at or after the time.
func (t *Track) ClipsAfter(at time.Duration) []*Clip {
	var after []*Clip
	for _, c := range t.clips {
		if c.StartTime() >= at {
			after = append(after, c)
		}
	}
	return after
}

// End returns the latest end time of all clips.
func (t *Track) End() time.Duration {
	var end time.Duration
	for _, c := range t.clips {
		if c.EndTime() > end {
			end = c.EndTime()
		}
	}
	return end
}
