package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"toggl-notion-sync/internal/domain"
	"toggl-notion-sync/internal/ports"
)

// Report summarises one run.
type Report struct {
	RunID    string           `json:"run_id"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Fetched  int              `json:"fetched"`
	Created  int              `json:"created"`
	Updated  int              `json:"updated"`
	Failed   int              `json:"failed"`
	Outcomes []domain.Outcome `json:"outcomes,omitempty"`
}

// SyncUseCase coordinates fetching from Toggl and upserting into the
// destination, one entry at a time.
type SyncUseCase struct {
	Log     *slog.Logger
	Fetcher *Fetcher
	Sync    *Synchronizer
	Ledger  ports.Ledger // optional
}

// Run syncs every entry of w. Only fetch-side failures are returned; failed
// upserts are counted in the report.
func (uc *SyncUseCase) Run(ctx context.Context, w domain.Window) (Report, error) {
	if uc.Fetcher == nil || uc.Sync == nil {
		return Report{}, errors.New("usecase not initialized: missing dependencies")
	}
	rep := Report{
		RunID: uuid.NewString(),
		From:  w.Start.UTC().Format(time.RFC3339),
		To:    w.End.UTC().Format(time.RFC3339),
	}
	log := uc.log().With(slog.String("run_id", rep.RunID))
	log.Info("fetching time entries", slog.Time("from", w.Start), slog.Time("to", w.End))

	entries, err := uc.Fetcher.Fetch(ctx, w)
	if err != nil {
		return rep, err
	}
	rep.Fetched = len(entries)
	log.Info("fetched time entries", slog.Int("count", len(entries)))

	if len(entries) == 0 {
		log.Info("no entries to sync")
		return rep, nil
	}
	uc.mirror(ctx, log, entries)

	for _, e := range entries {
		log.Debug("syncing entry",
			slog.Int64("entry_id", e.ID),
			slog.String("project", deref(e.ProjectName)),
			slog.String("description", e.DescriptionText()),
		)
		o := uc.Sync.Upsert(ctx, e)
		switch o.Action {
		case domain.ActionCreated:
			rep.Created++
		case domain.ActionUpdated:
			rep.Updated++
		default:
			rep.Failed++
		}
		rep.Outcomes = append(rep.Outcomes, o)
	}
	uc.record(ctx, log, rep)

	log.Info("sync completed",
		slog.Int("created", rep.Created),
		slog.Int("updated", rep.Updated),
		slog.Int("failed", rep.Failed),
	)
	return rep, nil
}

func (uc *SyncUseCase) mirror(ctx context.Context, log *slog.Logger, entries []domain.TimeEntry) {
	if uc.Ledger == nil {
		return
	}
	if err := uc.Ledger.MirrorEntries(ctx, entries); err != nil {
		log.Warn("ledger mirror failed", slog.String("error", err.Error()))
	}
}

func (uc *SyncUseCase) record(ctx context.Context, log *slog.Logger, rep Report) {
	if uc.Ledger == nil {
		return
	}
	if err := uc.Ledger.RecordOutcomes(ctx, rep.RunID, rep.Outcomes); err != nil {
		log.Warn("ledger record failed", slog.String("error", err.Error()))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (uc *SyncUseCase) log() *slog.Logger {
	if uc.Log != nil {
		return uc.Log
	}
	return slog.Default()
}
