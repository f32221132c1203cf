// Package conflict detects and repairs temporal overlaps of clips on a
// track.
//
// Moves are atomic: ResolveMove either places the clip and shifts its
// neighbours, or leaves every clip of the track where it was. Batch
// strategies operate on flat clip lists and are bounded by MaxIterations;
// callers must check the remaining conflicts of the returned report.
package conflict

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pipelined/timeline/log"
	"github.com/pipelined/timeline/track"
)

// ErrBeyondTimeline is returned when a repair pushes a clip past the
// resolver limit.
var ErrBeyondTimeline = errors.New("clip is pushed beyond timeline")

type (
	// Resolver repairs overlaps caused by moves.
	Resolver struct {
		limit  time.Duration
		logger logrus.FieldLogger
	}

	// Option of a resolver.
	Option func(*Resolver)

	// Pair is a conflicting pair of clips, First starts not later than
	// Second.
	Pair struct {
		First  *track.Clip
		Second *track.Clip
	}

	// Result of a move.
	Result struct {
		OK      bool
		Message string
		// Moved lists neighbours shifted as a side effect.
		Moved []*track.Clip
		Err   error
	}
)

// WithLimit bounds the timeline. Moves which push any clip end beyond the
// limit are rolled back. Zero limit means unbounded timeline.
func WithLimit(limit time.Duration) Option {
	return func(r *Resolver) {
		r.limit = limit
	}
}

// WithLogger sets resolver logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New returns a new resolver.
func New(options ...Option) *Resolver {
	r := &Resolver{
		logger: log.GetLogger(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// FindConflicting returns all clips of the track overlapping c, c itself
// excluded.
func FindConflicting(t *track.Track, c *track.Clip) []*track.Clip {
	var conflicts []*track.Clip
	for _, other := range t.Clips() {
		if other == c {
			continue
		}
		if track.Overlaps(c, other) {
			conflicts = append(conflicts, other)
		}
	}
	return conflicts
}

// ClipsAfter returns clips of the track starting at or after the time,
// excluded clips are skipped.
func ClipsAfter(t *track.Track, at time.Duration, exclude ...*track.Clip) []*track.Clip {
	var after []*track.Clip
	for _, c := range t.ClipsAfter(at) {
		if !contains(exclude, c) {
			after = append(after, c)
		}
	}
	return after
}

// DetectConflicts returns every overlapping pair of clips, not only
// adjacent ones. Pairs are ordered by start time.
func DetectConflicts(clips []*track.Clip) []Pair {
	sorted := track.SortByStart(append([]*track.Clip(nil), clips...))
	var pairs []Pair
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].EndTime() > sorted[j].StartTime() {
				pairs = append(pairs, Pair{First: sorted[i], Second: sorted[j]})
			}
		}
	}
	return pairs
}

// ResolveMove moves the clip to the new start time. If it overlaps other
// clips, each conflicting clip and everything at or after it is pushed right
// by the overlap width. On failure all clips are restored.
func (r *Resolver) ResolveMove(t *track.Track, c *track.Clip, newStart time.Duration) Result {
	snap := takeSnapshot(t, c)
	if newStart < 0 {
		newStart = 0
	}
	c.SetStartTime(newStart)

	conflicts := FindConflicting(t, c)
	if len(conflicts) == 0 {
		return Result{OK: true, Message: "OK"}
	}

	moved, err := r.shift(t, c, conflicts)
	if err != nil {
		snap.restore()
		r.logger.WithFields(logrus.Fields{
			"track": t.Name,
			"clip":  c.Name,
			"id":    c.ID(),
			"start": newStart,
		}).WithError(err).Warn("move rolled back")
		return Result{
			Message: fmt.Sprintf("move failed: %v", err),
			Err:     err,
		}
	}
	r.logger.WithFields(logrus.Fields{
		"track": t.Name,
		"clip":  c.Name,
		"id":    c.ID(),
		"moved": len(moved),
	}).Debug("move resolved")
	return Result{
		OK:      true,
		Message: fmt.Sprintf("clip moved, %d neighbouring clips shifted", len(moved)),
		Moved:   moved,
	}
}

// TryPlace puts the clip at the target position and resolves conflicts only
// if there are any.
func (r *Resolver) TryPlace(t *track.Track, c *track.Clip, target time.Duration) Result {
	old := c.StartTime()
	if target < 0 {
		target = 0
	}
	c.SetStartTime(target)
	if len(FindConflicting(t, c)) == 0 {
		return Result{OK: true, Message: "position is free"}
	}
	c.SetStartTime(old)
	return r.ResolveMove(t, c, target)
}

func (r *Resolver) shift(t *track.Track, c *track.Clip, conflicts []*track.Clip) ([]*track.Clip, error) {
	var moved []*track.Clip
	for _, conflicting := range track.SortByStart(conflicts) {
		amount := c.EndTime() - conflicting.StartTime()
		if amount <= 0 {
			continue
		}
		pushed := append([]*track.Clip{conflicting}, ClipsAfter(t, conflicting.StartTime(), conflicting, c)...)
		for _, p := range pushed {
			p.ShiftBy(amount)
			if r.limit > 0 && p.EndTime() > r.limit {
				return nil, fmt.Errorf("%w: %q would end at %v, limit %v", ErrBeyondTimeline, p.Name, p.EndTime(), r.limit)
			}
			if !contains(moved, p) {
				moved = append(moved, p)
			}
		}
		if len(FindConflicting(t, c)) == 0 {
			break
		}
	}
	return moved, nil
}

// ValidatePosition clamps negative start time to zero and checks the clip
// for overlaps. It doesn't resolve them.
func ValidatePosition(t *track.Track, c *track.Clip) (bool, string) {
	clamped := false
	if c.StartTime() < 0 {
		c.SetStartTime(0)
		clamped = true
	}
	if n := len(FindConflicting(t, c)); n > 0 {
		return false, fmt.Sprintf("clip overlaps %d other clips", n)
	}
	if clamped {
		return false, "clip moved to timeline start"
	}
	return true, "position is valid"
}

// Reorganize lays clips out back to back from zero in time order, with
// minGap between them.
func Reorganize(t *track.Track, minGap time.Duration) {
	var cursor time.Duration
	for _, c := range t.ClipsSorted() {
		c.SetStartTime(cursor)
		cursor = c.EndTime() + minGap
	}
}

func contains(clips []*track.Clip, c *track.Clip) bool {
	for i := range clips {
		if clips[i] == c {
			return true
		}
	}
	return false
}

// snapshot keeps start times for rollback.
type snapshot []position

type position struct {
	clip  *track.Clip
	start time.Duration
}

func takeSnapshot(t *track.Track, c *track.Clip) snapshot {
	clips := t.Clips()
	if !contains(clips, c) {
		clips = append(clips, c)
	}
	s := make(snapshot, 0, len(clips))
	for _, clip := range clips {
		s = append(s, position{clip: clip, start: clip.StartTime()})
	}
	return s
}

func (s snapshot) restore() {
	for _, p := range s {
		p.clip.SetStartTime(p.start)
	}
}
