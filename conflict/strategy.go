package conflict

import (
	"fmt"

	"github.com/pipelined/timeline/track"
)

// MaxIterations bounds AutoResolve. It's a safety valve against oscillating
// resolutions, reaching it doesn't mean success.
const MaxIterations = 100

// Strategy is a tie-break policy for batch resolution.
type Strategy int

const (
	// ShiftLater moves the later clip to the end of the earlier one.
	ShiftLater Strategy = iota
	// TrimEarlier cuts the earlier clip end at the start of the later one.
	TrimEarlier
	// DeleteShorter removes the shorter clip of the pair.
	DeleteShorter
)

func (s Strategy) String() string {
	switch s {
	case ShiftLater:
		return "shift"
	case TrimEarlier:
		return "trim"
	case DeleteShorter:
		return "delete"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy returns strategy by its name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range []Strategy{ShiftLater, TrimEarlier, DeleteShorter} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown conflict strategy: %q", name)
}

// Report is a result of batch resolution.
type Report struct {
	// Clips left after resolution, deleted ones are excluded.
	Clips      []*track.Clip
	Deleted    []*track.Clip
	Iterations int
	// Remaining conflicts after the iteration cap.
	Remaining []Pair
}

// Resolved returns true if no conflicts left.
func (r Report) Resolved() bool {
	return len(r.Remaining) == 0
}

// ResolveOverlap shifts the later clip to the end of the earlier one.
func ResolveOverlap(p Pair) {
	p.Second.SetStartTime(p.First.EndTime())
}

// ResolveTrim trims the earlier clip end to the later clip start. It's a
// no-op if the overlap isn't smaller than the earlier clip duration.
func ResolveTrim(p Pair) bool {
	overlap := p.First.EndTime() - p.Second.StartTime()
	if overlap <= 0 || overlap >= p.First.Duration() {
		return false
	}
	p.First.TrimRight(overlap)
	p.First.UpdateEndTime()
	return true
}

// ResolveDeleteShorter returns the clip to delete: the shorter one, the
// second on ties.
func ResolveDeleteShorter(p Pair) *track.Clip {
	if p.First.Duration() < p.Second.Duration() {
		return p.First
	}
	return p.Second
}

// AutoResolve iterates detection and one resolution pass until no
// conflicts are left or MaxIterations is reached.
func AutoResolve(clips []*track.Clip, strategy Strategy) Report {
	report := Report{
		Clips: append([]*track.Clip(nil), clips...),
	}
	for report.Iterations < MaxIterations {
		pairs := DetectConflicts(report.Clips)
		if len(pairs) == 0 {
			return report
		}
		report.Iterations++
		var deleted []*track.Clip
		for _, p := range pairs {
			if contains(deleted, p.First) || contains(deleted, p.Second) || !track.Overlaps(p.First, p.Second) {
				continue
			}
			switch strategy {
			case ShiftLater:
				ResolveOverlap(p)
			case TrimEarlier:
				ResolveTrim(p)
			case DeleteShorter:
				deleted = append(deleted, ResolveDeleteShorter(p))
			}
		}
		if len(deleted) > 0 {
			report.Deleted = append(report.Deleted, deleted...)
			report.Clips = without(report.Clips, deleted)
		}
	}
	report.Remaining = DetectConflicts(report.Clips)
	return report
}

// AutoResolveTrack applies AutoResolve to the track clips and removes the
// deleted ones from the track.
func AutoResolveTrack(t *track.Track, strategy Strategy) Report {
	report := AutoResolve(t.Clips(), strategy)
	for _, c := range report.Deleted {
		t.Remove(c)
	}
	return report
}

func without(clips, deleted []*track.Clip) []*track.Clip {
	result := clips[:0]
	for _, c := range clips {
		if !contains(deleted, c) {
			result = append(result, c)
		}
	}
	return result
}
