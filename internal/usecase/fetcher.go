package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"toggl-notion-sync/internal/domain"
	"toggl-notion-sync/internal/ports"
)

// Fetcher collects the entries of a window from Toggl and enriches them.
type Fetcher struct {
	Log   *slog.Logger
	Toggl ports.TogglClient
	Now   func() time.Time // defaults to time.Now
	Span  time.Duration    // window length used by Latest, default 24h
}

// Latest fetches the most recent period ending now.
func (f *Fetcher) Latest(ctx context.Context) ([]domain.TimeEntry, error) {
	return f.Fetch(ctx, domain.Latest(f.now(), f.Span))
}

// Fetch returns the completed entries overlapping w, followed by the running
// entry when there is one, all enriched with workspace names. Workspace and
// report failures are returned; a failed running-entry lookup is not.
func (f *Fetcher) Fetch(ctx context.Context, w domain.Window) ([]domain.TimeEntry, error) {
	if f.Toggl == nil {
		return nil, errors.New("fetcher not initialized: missing toggl client")
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	cache, err := f.Toggl.Workspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	reported, err := f.reportEntries(ctx, w)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TimeEntry, 0, len(reported)+1)
	seen := make(map[int64]struct{}, len(reported))
	for _, e := range reported {
		if !w.Contains(e) {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, cache.Enrich(e))
	}
	f.log().Debug("window filter applied",
		slog.Int("reported", len(reported)),
		slog.Int("kept", len(out)),
	)

	if cur, ok := f.current(ctx); ok {
		if _, dup := seen[cur.ID]; !dup {
			out = append(out, cache.Enrich(cur))
		}
	}
	return out, nil
}

// reportEntries pages through the report until the accumulated count reaches
// the total reported by the most recent page.
func (f *Fetcher) reportEntries(ctx context.Context, w domain.Window) ([]domain.TimeEntry, error) {
	var all []domain.TimeEntry
	for page := 1; ; page++ {
		res, err := f.Toggl.ReportPage(ctx, w, page)
		if err != nil {
			return nil, fmt.Errorf("fetch report page %d: %w", page, err)
		}
		all = append(all, res.Entries...)
		f.log().Debug("fetched report page",
			slog.Int("page", page),
			slog.Int("entries", len(res.Entries)),
			slog.Int("accumulated", len(all)),
			slog.Int("total", res.TotalCount),
		)
		if len(all) >= res.TotalCount {
			return all, nil
		}
		if len(res.Entries) == 0 {
			f.log().Warn("report page empty before total reached",
				slog.Int("page", page),
				slog.Int("accumulated", len(all)),
				slog.Int("total", res.TotalCount),
			)
			return all, nil
		}
	}
}

// current fetches the running entry and stamps it with the fetch time as its
// end. Absence and failure both yield ok=false.
func (f *Fetcher) current(ctx context.Context) (domain.TimeEntry, bool) {
	res := f.Toggl.CurrentEntry(ctx)
	switch res.State {
	case domain.Failed:
		f.log().Warn("current entry unavailable", slog.String("error", errString(res.Err)))
		return domain.TimeEntry{}, false
	case domain.Absent:
		f.log().Debug("no running entry")
		return domain.TimeEntry{}, false
	}
	e, _ := res.Get()
	now := f.now()
	e.End = &now
	e.DurationMs = now.Sub(e.Start).Milliseconds()
	e.Running = true
	return e, true
}

func (f *Fetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Fetcher) log() *slog.Logger {
	if f.Log != nil {
		return f.Log
	}
	return slog.Default()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
