package domain

import (
	"fmt"
	"time"
)

// DefaultWindowSpan is the length of the "most recent period" synced when no
// explicit window is given.
const DefaultWindowSpan = 24 * time.Hour

// Window is the inclusive [Start, End] range used to select entries.
type Window struct {
	Start time.Time
	End   time.Time
}

// Latest returns the window of the given span ending at now.
func Latest(now time.Time, span time.Duration) Window {
	if span <= 0 {
		span = DefaultWindowSpan
	}
	return Window{Start: now.Add(-span), End: now}
}

// Validate rejects windows whose start is after their end.
func (w Window) Validate() error {
	if w.Start.After(w.End) {
		return fmt.Errorf("window start %s is after end %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether [start, end] intersects the window. Both bounds are
// inclusive, so an entry ending exactly at Start or starting exactly at End
// is included.
func (w Window) Overlaps(start, end time.Time) bool {
	return !start.After(w.End) && !end.Before(w.Start)
}

// Contains reports whether the entry overlaps the window. Entries without an
// end are treated as still running at the window end.
func (w Window) Contains(e TimeEntry) bool {
	end := w.End
	if e.End != nil {
		end = *e.End
	}
	return w.Overlaps(e.Start, end)
}
