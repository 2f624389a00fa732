package usecase

import (
	"context"
	"log/slog"
	"time"

	"toggl-notion-sync/internal/adapter/httpapi"
	"toggl-notion-sync/internal/adapter/notion"
	"toggl-notion-sync/internal/domain"
	"toggl-notion-sync/internal/ports"
)

// Synchronizer upserts entries into the destination keyed by entry id.
type Synchronizer struct {
	Log  *slog.Logger
	Dest ports.Destination
	Now  func() time.Time
}

// createAttempts bounds how many times Upsert posts a new page for one entry.
const createAttempts = 3

// Upsert updates the page carrying e.ID if one exists and creates it
// otherwise. Errors are captured in the returned outcome, never raised.
//
// Creates are not repeated blindly: after a retryable create failure the
// entry is looked up again, since the failed request may still have
// created the page.
func (s *Synchronizer) Upsert(ctx context.Context, e domain.TimeEntry) domain.Outcome {
	out := domain.Outcome{EntryID: e.ID, At: s.now()}

	for attempt := 1; ; attempt++ {
		pageID, err := s.Dest.FindPageByEntryID(ctx, e.ID)
		if err != nil {
			return s.fail(out, "lookup", err)
		}
		if pageID != "" {
			return s.update(ctx, out, e, pageID)
		}

		created, err := s.Dest.CreatePage(ctx, notion.CreateProperties(e))
		if err == nil {
			out.PageID = created
			out.Action = domain.ActionCreated
			s.log().Info("created entry", slog.Int64("entry_id", e.ID), slog.String("page_id", created))
			return out
		}
		if attempt >= createAttempts || ctx.Err() != nil || !httpapi.Retryable(err) {
			return s.fail(out, "create", err)
		}
		s.log().Warn("create failed, looking entry up again",
			slog.Int64("entry_id", e.ID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Synchronizer) update(ctx context.Context, out domain.Outcome, e domain.TimeEntry, pageID string) domain.Outcome {
	out.PageID = pageID
	if err := s.Dest.UpdatePage(ctx, pageID, notion.UpdateProperties(e)); err != nil {
		return s.fail(out, "update", err)
	}
	out.Action = domain.ActionUpdated
	s.log().Info("updated entry", slog.Int64("entry_id", e.ID), slog.String("page_id", pageID))
	return out
}

func (s *Synchronizer) fail(out domain.Outcome, step string, err error) domain.Outcome {
	out.Action = domain.ActionFailed
	out.Error = step + ": " + err.Error()
	s.log().Error("failed to upsert entry",
		slog.Int64("entry_id", out.EntryID),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
	return out
}

func (s *Synchronizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Synchronizer) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
