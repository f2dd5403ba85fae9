package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/model"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("url table: no matching record")

// ErrFrontierEmpty is returned by CheckOut when no URL is waiting.
var ErrFrontierEmpty = errors.New("url table: no url awaiting fetch")

// URLTable is the SQLite-backed crawl frontier. It stores one row per
// discovered URL, deduplicates on the normalized URL string, and hands
// URLs out ordered by priority and insertion.
//
// Design decision: We persist the frontier rather than holding it in
// memory so an interrupted crawl resumes where it stopped: Release
// returns checked-out rows to the todo state at startup and everything
// already done stays done.
type URLTable struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// reg receives queued-url and dequeued-url notifications.
	reg *hook.Registry
}

// Options configures URLTable behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default table options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a URLTable at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
// The queued-url and dequeued-url events are registered on reg.
func Open(dbDir string, reg *hook.Registry, opts Options) (*URLTable, error) {
	dbPath := filepath.Join(dbDir, "skitter.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to refuse creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer, and the frontier is written on
	// every checkout, so a single pooled connection serializes access.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	table := &URLTable{
		db:     db,
		dbPath: dbPath,
		reg:    reg,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := table.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	for _, name := range []hook.Name{hook.QueuedURL, hook.DequeuedURL} {
		if err := reg.Events.Register(name); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to register %s event: %w", name, err)
		}
	}

	return table, nil
}

// Close closes the database connection.
func (t *URLTable) Close() error {
	return t.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (t *URLTable) createTables() error {
	schema := `
	-- One row per discovered URL; url is the normalized string.
	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		parent_url TEXT NOT NULL DEFAULT '',
		root_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'todo',
		try_count INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 0,
		inline_level INTEGER NOT NULL DEFAULT 0,
		link_type TEXT NOT NULL DEFAULT 'html',
		priority INTEGER NOT NULL DEFAULT 0,
		status_code INTEGER NOT NULL DEFAULT 0,
		filename TEXT NOT NULL DEFAULT ''
	);

	-- Checkout scans todo rows by priority then insertion order.
	CREATE INDEX IF NOT EXISTS idx_urls_checkout ON urls(status, priority DESC, id ASC);
	`

	_, err := t.db.ExecContext(context.Background(), schema)
	return err
}

// selectColumns is the column list scanRecord expects, in order.
const selectColumns = "id, url, parent_url, root_url, status, try_count, level, inline_level, link_type, priority, status_code, filename"

// Add inserts records into the frontier, skipping URLs already present.
// Newly inserted records get their ID filled in and announced on the
// queued-url event. It returns how many records were new.
func (t *URLTable) Add(ctx context.Context, records ...*model.URLRecord) (int, error) {
	query := `
	INSERT INTO urls (url, parent_url, root_url, status, level, inline_level, link_type, priority)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`

	added := 0
	for _, record := range records {
		result, err := t.db.ExecContext(ctx, query,
			record.URL,
			record.ParentURL,
			record.RootURL,
			record.Status.String(),
			record.Level,
			record.InlineLevel,
			record.LinkType.String(),
			record.Priority,
		)
		if err != nil {
			return added, fmt.Errorf("failed to add url %s: %w", record.URL, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return added, fmt.Errorf("failed to read insert result: %w", err)
		}
		if rows == 0 {
			continue // already queued
		}

		id, err := result.LastInsertId()
		if err != nil {
			return added, fmt.Errorf("failed to read inserted id: %w", err)
		}
		record.ID = id
		added++

		if err := t.reg.Events.Notify(ctx, hook.QueuedURL, record.Clone()); err != nil {
			return added, fmt.Errorf("queued-url listener: %w", err)
		}
	}
	return added, nil
}

// CheckOut hands out the next URL to fetch: the todo record with the
// highest priority, oldest first within equal priority. The record is
// marked in-progress and announced on the dequeued-url event.
// ErrFrontierEmpty means nothing is waiting.
func (t *URLTable) CheckOut(ctx context.Context) (*model.URLRecord, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
	SELECT ` + selectColumns + `
	FROM urls
	WHERE status = ?
	ORDER BY priority DESC, id ASC
	LIMIT 1
	`

	record, err := scanRecord(tx.QueryRowContext(ctx, query, model.StatusTodo.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFrontierEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check out url: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE urls SET status = ? WHERE id = ?",
		model.StatusInProgress.String(), record.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark url in progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}
	record.Status = model.StatusInProgress

	if err := t.reg.Events.Notify(ctx, hook.DequeuedURL, record.Clone()); err != nil {
		return nil, fmt.Errorf("dequeued-url listener: %w", err)
	}
	return record, nil
}

// CheckIn finalizes a checked-out record: it stores the new status,
// bumps the try count, and persists the status code and filename from
// the record. The in-memory record is updated to match.
func (t *URLTable) CheckIn(ctx context.Context, record *model.URLRecord, status model.URLStatus) error {
	query := `
	UPDATE urls
	SET status = ?, try_count = try_count + 1, status_code = ?, filename = ?
	WHERE id = ?
	`

	if _, err := t.db.ExecContext(ctx, query,
		status.String(),
		record.StatusCode,
		record.Filename,
		record.ID,
	); err != nil {
		return fmt.Errorf("failed to check in url %s: %w", record.URL, err)
	}

	record.Status = status
	record.TryCount++
	return nil
}

// Release returns all in-progress records to the todo state. Called at
// startup so URLs orphaned by a previous interrupted run are retried.
func (t *URLTable) Release(ctx context.Context) (int64, error) {
	result, err := t.db.ExecContext(ctx,
		"UPDATE urls SET status = ? WHERE status = ?",
		model.StatusTodo.String(), model.StatusInProgress.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to release in-progress urls: %w", err)
	}
	return result.RowsAffected()
}

// Get retrieves the record for a normalized URL string.
// ErrNotFound means the URL was never queued.
func (t *URLTable) Get(ctx context.Context, url string) (*model.URLRecord, error) {
	query := `
	SELECT ` + selectColumns + `
	FROM urls
	WHERE url = ?
	`

	record, err := scanRecord(t.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get url %s: %w", url, err)
	}
	return record, nil
}

// Counts returns how many records sit in each status.
func (t *URLTable) Counts(ctx context.Context) (map[model.URLStatus]int64, error) {
	rows, err := t.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM urls GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count urls: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.URLStatus]int64)
	for rows.Next() {
		var statusText string
		var count int64
		if err := rows.Scan(&statusText, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		status, err := model.ParseURLStatus(statusText)
		if err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row in selectColumns order.
func scanRecord(row scanner) (*model.URLRecord, error) {
	var record model.URLRecord
	var statusText, linkTypeText string

	if err := row.Scan(
		&record.ID,
		&record.URL,
		&record.ParentURL,
		&record.RootURL,
		&statusText,
		&record.TryCount,
		&record.Level,
		&record.InlineLevel,
		&linkTypeText,
		&record.Priority,
		&record.StatusCode,
		&record.Filename,
	); err != nil {
		return nil, err
	}

	status, err := model.ParseURLStatus(statusText)
	if err != nil {
		return nil, err
	}
	record.Status = status

	linkType, err := model.ParseLinkType(linkTypeText)
	if err != nil {
		return nil, err
	}
	record.LinkType = linkType

	return &record, nil
}
