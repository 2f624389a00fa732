package app

import (
	"fmt"
	"time"

	"toggl-notion-sync/internal/domain"
)

// ParseStart parses a start boundary that may be RFC3339 or YYYY-MM-DD.
// If empty, defaultVal is returned.
func ParseStart(val string, defaultVal time.Time) (time.Time, error) {
	if val == "" {
		return defaultVal, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	// Try date-only in UTC at 00:00
	if d, err := time.Parse(time.DateOnly, val); err == nil {
		return d, nil
	}
	return time.Time{}, fmt.Errorf("invalid start %q, expected RFC3339 or YYYY-MM-DD", val)
}

// ParseEnd parses an end boundary that may be RFC3339 or YYYY-MM-DD.
// Date-only form is treated as inclusive by converting to next-day 00:00 UTC.
// If empty, defaultVal is returned.
func ParseEnd(val string, defaultVal time.Time) (time.Time, error) {
	if val == "" {
		return defaultVal, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	if d, err := time.Parse(time.DateOnly, val); err == nil {
		return d.AddDate(0, 0, 1), nil
	}
	return time.Time{}, fmt.Errorf("invalid end %q, expected RFC3339 or YYYY-MM-DD", val)
}

// ParseWindow resolves from/to strings against the default window ending at
// now: an empty to means now, an empty from means to minus the span.
func (a *App) ParseWindow(from, to string, now time.Time) (domain.Window, error) {
	end, err := ParseEnd(to, now)
	if err != nil {
		return domain.Window{}, err
	}
	start, err := ParseStart(from, a.LatestWindow(end).Start)
	if err != nil {
		return domain.Window{}, err
	}
	w := domain.Window{Start: start, End: end}
	return w, w.Validate()
}

// NextMidnight returns the next midnight after t in t's location. A t that
// is exactly midnight yields the following day to avoid a double run.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
