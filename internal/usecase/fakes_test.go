package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"toggl-notion-sync/internal/adapter/notion"
	"toggl-notion-sync/internal/domain"
)

var (
	windowStart = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.Add(24 * time.Hour)
	testWindow  = domain.Window{Start: windowStart, End: windowEnd}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// entryAt returns an entry with the given id running for 30 minutes from start.
func entryAt(id int64, start time.Time) domain.TimeEntry {
	end := start.Add(30 * time.Minute)
	return domain.TimeEntry{
		ID:          id,
		ProjectID:   ptr(int64(10)),
		UserID:      ptr(int64(1)),
		Description: ptr(fmt.Sprintf("entry %d", id)),
		Start:       start,
		End:         &end,
		DurationMs:  (30 * time.Minute).Milliseconds(),
	}
}

func entriesInWindow(n int) []domain.TimeEntry {
	out := make([]domain.TimeEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, entryAt(int64(1000+i), windowStart.Add(time.Duration(i)*time.Minute)))
	}
	return out
}

// fakeToggl serves entries in pages of 50. totals, when set, overrides the
// total_count reported on each page (index = page-1).
type fakeToggl struct {
	entries   []domain.TimeEntry
	totals    []int
	current   domain.CurrentEntry
	cache     *domain.WorkspaceCache
	cacheErr  error
	pageErr   error
	pageCalls int
}

func (f *fakeToggl) Workspace(ctx context.Context) (*domain.WorkspaceCache, error) {
	if f.cacheErr != nil {
		return nil, f.cacheErr
	}
	if f.cache == nil {
		return domain.NewWorkspaceCache(
			[]domain.User{{ID: 1, FullName: "Ada"}},
			[]domain.Project{{ID: 10, Name: "Engine", ClientID: ptr(int64(100))}},
			[]domain.Client{{ID: 100, Name: "Babbage"}},
		), nil
	}
	return f.cache, nil
}

func (f *fakeToggl) ReportPage(ctx context.Context, w domain.Window, page int) (domain.ReportPage, error) {
	f.pageCalls++
	if f.pageErr != nil {
		return domain.ReportPage{}, f.pageErr
	}
	const size = 50
	lo := (page - 1) * size
	hi := lo + size
	if lo > len(f.entries) {
		lo = len(f.entries)
	}
	if hi > len(f.entries) {
		hi = len(f.entries)
	}
	total := len(f.entries)
	if page-1 < len(f.totals) {
		total = f.totals[page-1]
	}
	return domain.ReportPage{Entries: f.entries[lo:hi], TotalCount: total, PerPage: size}, nil
}

func (f *fakeToggl) CurrentEntry(ctx context.Context) domain.CurrentEntry {
	return f.current
}

type call struct {
	method string
	pageID string
	props  notion.Properties
}

// fakeDest is an in-memory data source keyed by page id.
type fakeDest struct {
	pages   map[string]notion.Properties
	order   []string
	calls   []call
	nextID  int
	findErr map[int64]error
	failAll error
	// createErrs are returned by successive CreatePage calls. When
	// lostResponse is set the page is stored before the error is returned.
	createErrs   []error
	lostResponse bool
}

func newFakeDest() *fakeDest {
	return &fakeDest{pages: map[string]notion.Properties{}, findErr: map[int64]error{}}
}

func (d *fakeDest) FindPageByEntryID(ctx context.Context, entryID int64) (string, error) {
	d.calls = append(d.calls, call{method: "query"})
	if d.failAll != nil {
		return "", d.failAll
	}
	if err := d.findErr[entryID]; err != nil {
		return "", err
	}
	for _, id := range d.order {
		if p := d.pages[id]; p.ID != nil && p.ID.Number == entryID {
			return id, nil
		}
	}
	return "", nil
}

func (d *fakeDest) CreatePage(ctx context.Context, props notion.Properties) (string, error) {
	if props.ID == nil {
		return "", errors.New("create without id")
	}
	var err error
	if len(d.createErrs) > 0 {
		err, d.createErrs = d.createErrs[0], d.createErrs[1:]
	}
	if err != nil && !d.lostResponse {
		d.calls = append(d.calls, call{method: "create", props: props})
		return "", err
	}
	d.nextID++
	id := fmt.Sprintf("page-%d", d.nextID)
	d.pages[id] = props
	d.order = append(d.order, id)
	d.calls = append(d.calls, call{method: "create", pageID: id, props: props})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (d *fakeDest) UpdatePage(ctx context.Context, pageID string, props notion.Properties) error {
	d.calls = append(d.calls, call{method: "update", pageID: pageID, props: props})
	old, ok := d.pages[pageID]
	if !ok {
		return errors.New("no such page")
	}
	props.ID = old.ID
	d.pages[pageID] = props
	return nil
}

func (d *fakeDest) count(method string) int {
	n := 0
	for _, c := range d.calls {
		if c.method == method {
			n++
		}
	}
	return n
}

type fakeLedger struct {
	mirrored []domain.TimeEntry
	runID    string
	outcomes []domain.Outcome
	err      error
}

func (l *fakeLedger) MirrorEntries(ctx context.Context, entries []domain.TimeEntry) error {
	l.mirrored = append(l.mirrored, entries...)
	return l.err
}

func (l *fakeLedger) RecordOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) error {
	l.runID = runID
	l.outcomes = append(l.outcomes, outcomes...)
	return l.err
}
