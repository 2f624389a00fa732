package ports

import (
	"context"

	"toggl-notion-sync/internal/adapter/notion"
	"toggl-notion-sync/internal/domain"
)

// TogglClient defines the reads the fetcher needs from Toggl.
type TogglClient interface {
	Workspace(ctx context.Context) (*domain.WorkspaceCache, error)
	ReportPage(ctx context.Context, w domain.Window, page int) (domain.ReportPage, error)
	CurrentEntry(ctx context.Context) domain.CurrentEntry
}

// Destination is the table rows are upserted into.
type Destination interface {
	FindPageByEntryID(ctx context.Context, entryID int64) (string, error)
	CreatePage(ctx context.Context, props notion.Properties) (string, error)
	UpdatePage(ctx context.Context, pageID string, props notion.Properties) error
}

// Ledger keeps a local record of what each run saw and did. Implementations
// must tolerate being called after a partially failed run.
type Ledger interface {
	MirrorEntries(ctx context.Context, entries []domain.TimeEntry) error
	RecordOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) error
}
