package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"toggl-notion-sync/internal/app"
	"toggl-notion-sync/internal/config"
	"toggl-notion-sync/internal/domain"
)

var (
	flagInterval time.Duration
	flagDaily    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync repeatedly, on an interval or daily at local midnight",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, log *slog.Logger, a *app.App, cfg config.Config) error {
			if flagDaily {
				return runDaily(ctx, log, a, cfg.Sync.Timezone)
			}
			return runPeriodic(ctx, log, a, flagInterval)
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagInterval, "interval", 15*time.Minute, "Sync interval")
	watchCmd.Flags().BoolVar(&flagDaily, "daily", false, "Run at local midnight each day (uses SYNC_TZ, default UTC)")
}

func runPeriodic(ctx context.Context, log *slog.Logger, a *app.App, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info("starting periodic sync", slog.Duration("interval", interval))

	// Kick off immediately
	runLogged(ctx, log, a, a.LatestWindow(time.Now().UTC()), "periodic sync")
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-ticker.C:
			runLogged(ctx, log, a, a.LatestWindow(time.Now().UTC()), "periodic sync")
		}
	}
}

func runDaily(ctx context.Context, log *slog.Logger, a *app.App, tz string) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid SYNC_TZ %q: %w", tz, err)
	}
	log.Info("starting daily sync at midnight", slog.String("tz", tz))
	for {
		next := app.NextMidnight(time.Now().In(loc))
		dur := time.Until(next)
		log.Info("sleeping until next midnight", slog.Time("next", next), slog.Duration("sleep", dur))
		timer := time.NewTimer(dur)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("shutting down")
			return nil
		case <-timer.C:
			// Window is the local day that just ended, expressed in UTC
			end := next.UTC()
			runLogged(ctx, log, a, a.LatestWindow(end), "daily sync")
		}
	}
}

func runLogged(ctx context.Context, log *slog.Logger, a *app.App, w domain.Window, what string) {
	rep, err := a.RunOnce(ctx, w)
	switch {
	case errors.Is(err, app.ErrSyncRunning):
		log.Warn(what+" skipped", slog.String("reason", err.Error()))
	case err != nil:
		log.Error(what+" failed", slog.String("error", err.Error()))
	default:
		log.Info(what+" completed",
			slog.Time("from", w.Start),
			slog.Time("to", w.End),
			slog.Int("created", rep.Created),
			slog.Int("updated", rep.Updated),
			slog.Int("failed", rep.Failed),
		)
	}
}
