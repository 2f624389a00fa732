package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"toggl-notion-sync/internal/app"
	"toggl-notion-sync/internal/config"
	"toggl-notion-sync/internal/logging"
)

// Global flags.
var (
	flagVerbose bool
	flagFrom    string
	flagTo      string
)

var rootCmd = &cobra.Command{
	Use:   "toggl-notion-sync",
	Short: "Sync Toggl Track time entries into a Notion data source",
	Long: `toggl-notion-sync copies the latest Toggl Track time entries, including the
running one, into a Notion data source, creating or updating one page per entry.

Without arguments a single sync of the latest window (SYNC_WINDOW, default 24h)
is run. Use --from/--to for an explicit window.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, log *slog.Logger, a *app.App, _ config.Config) error {
			w, err := a.ParseWindow(flagFrom, flagTo, time.Now().UTC())
			if err != nil {
				return err
			}
			rep, err := a.RunOnce(ctx, w)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			log.Info("all entries processed",
				slog.Int("fetched", rep.Fetched),
				slog.Int("created", rep.Created),
				slog.Int("updated", rep.Updated),
				slog.Int("failed", rep.Failed),
			)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().StringVar(&flagFrom, "from", "", "RFC3339 or YYYY-MM-DD start (default: to - SYNC_WINDOW)")
	rootCmd.Flags().StringVar(&flagTo, "to", "", "RFC3339 or YYYY-MM-DD end, date-only is inclusive (default: now)")
	rootCmd.AddCommand(watchCmd, serveCmd)
}

func main() {
	// Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// withApp loads config, builds the logger and app, and runs fn. Config
// errors abort before any network call.
func withApp(ctx context.Context, fn func(context.Context, *slog.Logger, *app.App, config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		fallback := slog.New(slog.NewTextHandler(os.Stderr, nil))
		fallback.Error("failed to load config", slog.String("error", err.Error()))
		return err
	}
	if flagVerbose {
		cfg.Log.Level = "debug"
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer closeQuietly(logCloser)
	slog.SetDefault(logger)

	application, err := app.New(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to initialize app", slog.String("error", err.Error()))
		return err
	}
	defer closeQuietly(application)

	if err := fn(ctx, logger, application, cfg); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func closeQuietly(c io.Closer) { _ = c.Close() }
