package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	msql "toggl-notion-sync/internal/adapter/mysql"
	"toggl-notion-sync/internal/adapter/notion"
	tg "toggl-notion-sync/internal/adapter/toggl"
	"toggl-notion-sync/internal/config"
	"toggl-notion-sync/internal/domain"
	"toggl-notion-sync/internal/migrate"
	"toggl-notion-sync/internal/usecase"
)

// ErrSyncRunning is returned when a run is requested while another is active.
var ErrSyncRunning = errors.New("sync already running")

// Runner executes one sync over a window.
type Runner interface {
	Run(ctx context.Context, w domain.Window) (usecase.Report, error)
}

// App wires adapters and use cases.
type App struct {
	log    *slog.Logger
	runner Runner
	span   time.Duration
	mu     sync.Mutex
	closer io.Closer
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	togglClient := tg.NewClient(tg.Config{
		BaseURL:     cfg.Toggl.BaseURL,
		ReportsURL:  cfg.Toggl.ReportsURL,
		APIToken:    cfg.Toggl.APIToken,
		WorkspaceID: cfg.Toggl.WorkspaceID,
		UserAgent:   cfg.Toggl.UserAgent,
	}, log)
	notionClient := notion.NewClient(notion.Config{
		BaseURL:      cfg.Notion.BaseURL,
		Version:      cfg.Notion.Version,
		Token:        cfg.Notion.Token,
		DataSourceID: cfg.Notion.DataSourceID,
	}, log)

	uc := &usecase.SyncUseCase{
		Log:     log,
		Fetcher: &usecase.Fetcher{Log: log, Toggl: togglClient, Span: cfg.Sync.Window},
		Sync:    &usecase.Synchronizer{Log: log, Dest: notionClient},
	}

	a := &App{log: log, runner: uc, span: cfg.Sync.Window}
	if cfg.MySQL.DSN == "" {
		log.Debug("no MYSQL_DSN, sync ledger disabled")
		return a, nil
	}
	// Run migrations before opening the ledger for use
	if err := migrate.Run(ctx, cfg.MySQL.DSN, log); err != nil {
		return nil, err
	}
	ledger, err := msql.NewClient(ctx, cfg.MySQL.DSN, log)
	if err != nil {
		return nil, err
	}
	uc.Ledger = ledger
	a.closer = ledger
	return a, nil
}

// NewWithRunner builds an App around an existing runner.
func NewWithRunner(log *slog.Logger, r Runner, span time.Duration) *App {
	return &App{log: log, runner: r, span: span}
}

// LatestWindow returns the default window ending at now.
func (a *App) LatestWindow(now time.Time) domain.Window {
	return domain.Latest(now, a.span)
}

// RunOnce runs a single sync. Concurrent calls fail fast with ErrSyncRunning.
func (a *App) RunOnce(ctx context.Context, w domain.Window) (usecase.Report, error) {
	if !a.mu.TryLock() {
		return usecase.Report{}, ErrSyncRunning
	}
	defer a.mu.Unlock()
	return a.runner.Run(ctx, w)
}

// Close releases the ledger connection, if any.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
