package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"toggl-notion-sync/internal/domain"
	"toggl-notion-sync/internal/migrate"
)

// Client implements ports.Ledger on MySQL: it mirrors fetched entries and
// appends one log row per upsert outcome.
type Client struct {
	db  *sql.DB
	log *slog.Logger
}

// NewClient opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname
func NewClient(ctx context.Context, dsn string, log *slog.Logger) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	dsn, err := migrate.PrepareDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	// One run writes sequentially; a small pool is enough.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Client{db: db, log: log}, nil
}

// MirrorEntries upserts the enriched entries into toggl_time_entries.
func (c *Client) MirrorEntries(ctx context.Context, entries []domain.TimeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	const q = `
INSERT INTO toggl_time_entries
  (id, description, project_id, task_id, user_id, user_name, project_name, client_name,
   tags, billable, currency, start, stop, duration_ms, running, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  description=VALUES(description),
  project_id=VALUES(project_id),
  task_id=VALUES(task_id),
  user_id=VALUES(user_id),
  user_name=VALUES(user_name),
  project_name=VALUES(project_name),
  client_name=VALUES(client_name),
  tags=VALUES(tags),
  billable=VALUES(billable),
  currency=VALUES(currency),
  start=VALUES(start),
  stop=VALUES(stop),
  duration_ms=VALUES(duration_ms),
  running=VALUES(running),
  updated_at=VALUES(updated_at);
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		// Tags are stored as JSON text.
		tagsJSON, _ := json.Marshal(e.Tags)
		if _, err := stmt.ExecContext(
			ctx,
			e.ID,
			nullString(e.Description),
			nullInt(e.ProjectID),
			nullInt(e.TaskID),
			nullInt(e.UserID),
			nullString(e.UserName),
			nullString(e.ProjectName),
			nullString(e.ClientName),
			string(tagsJSON),
			e.Billable,
			nullString(e.Currency),
			e.Start.UTC(),
			nullTime(e.End),
			e.DurationMs,
			e.Running,
			nullTime(e.Updated),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Debug("mysql ledger mirrored entries", slog.Int("count", len(entries)))
	return nil
}

// RecordOutcomes appends the outcomes of a run to notion_sync_log.
func (c *Client) RecordOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	const q = `
INSERT INTO notion_sync_log
  (run_id, entry_id, page_id, action, error, synced_at)
VALUES
  (?, ?, ?, ?, ?, ?);
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		var page, msg any
		if o.PageID != "" {
			page = o.PageID
		}
		if o.Error != "" {
			msg = o.Error
		}
		if _, err := stmt.ExecContext(ctx, runID, o.EntryID, page, string(o.Action), msg, o.At.UTC()); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Debug("mysql ledger recorded outcomes", slog.String("run_id", runID), slog.Int("count", len(outcomes)))
	return nil
}

// Close closes the underlying DB. Not wired via interface to keep ports minimal.
func (c *Client) Close() error { return c.db.Close() }

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
