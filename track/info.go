package track

import (
	"fmt"
	"io"
	"time"
)

// Info describes clips layout of a track.
type Info struct {
	Name  string
	Clips []ClipInfo
}

// ClipInfo describes a single clip placement.
type ClipInfo struct {
	ID               string
	Name             string
	Start            time.Duration
	End              time.Duration
	Duration         time.Duration
	OriginalDuration time.Duration
	TrimStart        time.Duration
	TrimEnd          time.Duration
}

// Info returns layout of the track in time order.
func (t *Track) Info() Info {
	info := Info{
		Name:  t.Name,
		Clips: make([]ClipInfo, 0, len(t.clips)),
	}
	for _, c := range t.ClipsSorted() {
		info.Clips = append(info.Clips, ClipInfo{
			ID:               c.ID(),
			Name:             c.Name,
			Start:            c.StartTime(),
			End:              c.EndTime(),
			Duration:         c.Duration(),
			OriginalDuration: c.OriginalDuration(),
			TrimStart:        c.TrimStart(),
			TrimEnd:          c.TrimEnd(),
		})
	}
	return info
}

// Print writes human readable layout.
func (info Info) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "=== %s: %d clips ===\n", info.Name, len(info.Clips)); err != nil {
		return err
	}
	for i, c := range info.Clips {
		if _, err := fmt.Fprintf(w, "  %d. %s: %v - %v (%v) [%s]\n", i+1, c.Name, c.Start, c.End, c.Duration, c.ID); err != nil {
			return err
		}
		if c.TrimStart > 0 || c.TrimEnd > 0 {
			if _, err := fmt.Fprintf(w, "     trimmed: left %v, right %v\n", c.TrimStart, c.TrimEnd); err != nil {
				return err
			}
		}
	}
	return nil
}
