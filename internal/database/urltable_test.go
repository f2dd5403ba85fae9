package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/model"
)

// setupTestTable creates a temporary URL table for testing.
func setupTestTable(t *testing.T) (*URLTable, *hook.Registry) {
	t.Helper()

	reg := hook.NewRegistry()
	table, err := Open(t.TempDir(), reg, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open url table: %v", err)
	}
	t.Cleanup(func() { _ = table.Close() })

	return table, reg
}

func todoRecord(url string, priority int) *model.URLRecord {
	return &model.URLRecord{
		URL:      url,
		RootURL:  url,
		Status:   model.StatusTodo,
		Priority: priority,
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		table, err := Open(dbDir, hook.NewRegistry(), DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open url table: %v", err)
		}
		defer table.Close()

		if _, err := os.Stat(filepath.Join(dbDir, "skitter.db")); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false requires an existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")
		opts := Options{CreateIfNotExists: false, EnableWAL: true}

		if _, err := Open(dbDir, hook.NewRegistry(), opts); err == nil {
			t.Fatal("expected error when the database does not exist")
		}
		if _, err := os.Stat(dbDir); !os.IsNotExist(err) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens an existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		table, err := Open(dbDir, hook.NewRegistry(), DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create url table: %v", err)
		}
		if _, err := table.Add(context.Background(), todoRecord("http://example.com/", 0)); err != nil {
			t.Fatalf("failed to add url: %v", err)
		}
		if err := table.Close(); err != nil {
			t.Fatalf("failed to close url table: %v", err)
		}

		reopened, err := Open(dbDir, hook.NewRegistry(), Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen url table: %v", err)
		}
		defer reopened.Close()

		record, err := reopened.Get(context.Background(), "http://example.com/")
		if err != nil {
			t.Fatalf("failed to get url after reopen: %v", err)
		}
		if record.URL != "http://example.com/" {
			t.Errorf("URL = %q, want %q", record.URL, "http://example.com/")
		}
	})
}

func TestURLTableAdd(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates by url", func(t *testing.T) {
		t.Parallel()

		table, _ := setupTestTable(t)
		ctx := context.Background()

		added, err := table.Add(ctx,
			todoRecord("http://example.com/", 0),
			todoRecord("http://example.com/about", 0),
			todoRecord("http://example.com/", 3), // duplicate
		)
		if err != nil {
			t.Fatalf("Add() error = %v, want nil", err)
		}
		if added != 2 {
			t.Errorf("Add() = %d, want 2 new records", added)
		}

		counts, err := table.Counts(ctx)
		if err != nil {
			t.Fatalf("Counts() error = %v, want nil", err)
		}
		if counts[model.StatusTodo] != 2 {
			t.Errorf("todo count = %d, want 2", counts[model.StatusTodo])
		}
	})

	t.Run("fires queued-url for new records only", func(t *testing.T) {
		t.Parallel()

		table, reg := setupTestTable(t)
		ctx := context.Background()

		var queued []string
		_, err := reg.Events.AddListener(hook.QueuedURL, func(_ context.Context, args ...any) error {
			queued = append(queued, args[0].(*model.URLRecord).URL)
			return nil
		})
		if err != nil {
			t.Fatalf("AddListener() error = %v, want nil", err)
		}

		if _, err := table.Add(ctx, todoRecord("http://example.com/", 0)); err != nil {
			t.Fatalf("Add() error = %v, want nil", err)
		}
		if _, err := table.Add(ctx, todoRecord("http://example.com/", 0)); err != nil {
			t.Fatalf("Add() duplicate error = %v, want nil", err)
		}

		if len(queued) != 1 || queued[0] != "http://example.com/" {
			t.Errorf("queued-url fired for %v, want exactly one notification", queued)
		}
	})

	t.Run("fills in the record id", func(t *testing.T) {
		t.Parallel()

		table, _ := setupTestTable(t)
		record := todoRecord("http://example.com/", 0)

		if _, err := table.Add(context.Background(), record); err != nil {
			t.Fatalf("Add() error = %v, want nil", err)
		}
		if record.ID == 0 {
			t.Error("record.ID = 0 after Add, want assigned row id")
		}
	})
}

func TestURLTableCheckOutOrder(t *testing.T) {
	t.Parallel()

	table, _ := setupTestTable(t)
	ctx := context.Background()

	_, err := table.Add(ctx,
		todoRecord("http://example.com/low-first", 1),
		todoRecord("http://example.com/high", 5),
		todoRecord("http://example.com/low-second", 1),
	)
	if err != nil {
		t.Fatalf("Add() error = %v, want nil", err)
	}

	want := []string{
		"http://example.com/high",       // highest priority
		"http://example.com/low-first",  // FIFO within equal priority
		"http://example.com/low-second",
	}
	for i, wantURL := range want {
		record, err := table.CheckOut(ctx)
		if err != nil {
			t.Fatalf("CheckOut() #%d error = %v, want nil", i, err)
		}
		if record.URL != wantURL {
			t.Errorf("CheckOut() #%d = %q, want %q", i, record.URL, wantURL)
		}
		if record.Status != model.StatusInProgress {
			t.Errorf("CheckOut() #%d status = %v, want in_progress", i, record.Status)
		}
	}

	if _, err := table.CheckOut(ctx); !errors.Is(err, ErrFrontierEmpty) {
		t.Errorf("CheckOut() on empty frontier error = %v, want ErrFrontierEmpty", err)
	}
}

func TestURLTableCheckOutEvent(t *testing.T) {
	t.Parallel()

	table, reg := setupTestTable(t)
	ctx := context.Background()

	var dequeued []string
	_, err := reg.Events.AddListener(hook.DequeuedURL, func(_ context.Context, args ...any) error {
		dequeued = append(dequeued, args[0].(*model.URLRecord).URL)
		return nil
	})
	if err != nil {
		t.Fatalf("AddListener() error = %v, want nil", err)
	}

	if _, err := table.Add(ctx, todoRecord("http://example.com/", 0)); err != nil {
		t.Fatalf("Add() error = %v, want nil", err)
	}
	if _, err := table.CheckOut(ctx); err != nil {
		t.Fatalf("CheckOut() error = %v, want nil", err)
	}

	if len(dequeued) != 1 || dequeued[0] != "http://example.com/" {
		t.Errorf("dequeued-url fired for %v, want exactly one notification", dequeued)
	}
}

func TestURLTableCheckIn(t *testing.T) {
	t.Parallel()

	table, _ := setupTestTable(t)
	ctx := context.Background()

	if _, err := table.Add(ctx, todoRecord("http://example.com/", 0)); err != nil {
		t.Fatalf("Add() error = %v, want nil", err)
	}
	record, err := table.CheckOut(ctx)
	if err != nil {
		t.Fatalf("CheckOut() error = %v, want nil", err)
	}

	record.StatusCode = 200
	record.Filename = "index.html"
	if err := table.CheckIn(ctx, record, model.StatusDone); err != nil {
		t.Fatalf("CheckIn() error = %v, want nil", err)
	}
	if record.TryCount != 1 {
		t.Errorf("record.TryCount = %d after CheckIn, want 1", record.TryCount)
	}

	stored, err := table.Get(ctx, "http://example.com/")
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if stored.Status != model.StatusDone {
		t.Errorf("stored Status = %v, want done", stored.Status)
	}
	if stored.TryCount != 1 {
		t.Errorf("stored TryCount = %d, want 1", stored.TryCount)
	}
	if stored.StatusCode != 200 {
		t.Errorf("stored StatusCode = %d, want 200", stored.StatusCode)
	}
	if stored.Filename != "index.html" {
		t.Errorf("stored Filename = %q, want %q", stored.Filename, "index.html")
	}
}

func TestURLTableRelease(t *testing.T) {
	t.Parallel()

	table, _ := setupTestTable(t)
	ctx := context.Background()

	_, err := table.Add(ctx,
		todoRecord("http://example.com/a", 0),
		todoRecord("http://example.com/b", 0),
	)
	if err != nil {
		t.Fatalf("Add() error = %v, want nil", err)
	}
	if _, err := table.CheckOut(ctx); err != nil {
		t.Fatalf("CheckOut() error = %v, want nil", err)
	}

	released, err := table.Release(ctx)
	if err != nil {
		t.Fatalf("Release() error = %v, want nil", err)
	}
	if released != 1 {
		t.Errorf("Release() = %d, want 1", released)
	}

	counts, err := table.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v, want nil", err)
	}
	if counts[model.StatusTodo] != 2 {
		t.Errorf("todo count after release = %d, want 2", counts[model.StatusTodo])
	}
}

func TestURLTableGetNotFound(t *testing.T) {
	t.Parallel()

	table, _ := setupTestTable(t)

	if _, err := table.Get(context.Background(), "http://never.invalid/"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestURLTableRoundTripsRecordFields(t *testing.T) {
	t.Parallel()

	table, _ := setupTestTable(t)
	ctx := context.Background()

	record := &model.URLRecord{
		URL:         "http://example.com/style.css",
		ParentURL:   "http://example.com/",
		RootURL:     "http://example.com/",
		Status:      model.StatusTodo,
		Level:       2,
		InlineLevel: 1,
		LinkType:    model.LinkTypeCSS,
		Priority:    4,
	}
	if _, err := table.Add(ctx, record); err != nil {
		t.Fatalf("Add() error = %v, want nil", err)
	}

	stored, err := table.Get(ctx, record.URL)
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if stored.ParentURL != record.ParentURL {
		t.Errorf("ParentURL = %q, want %q", stored.ParentURL, record.ParentURL)
	}
	if stored.Level != 2 || stored.InlineLevel != 1 {
		t.Errorf("Level/InlineLevel = %d/%d, want 2/1", stored.Level, stored.InlineLevel)
	}
	if stored.LinkType != model.LinkTypeCSS {
		t.Errorf("LinkType = %v, want css", stored.LinkType)
	}
	if stored.Priority != 4 {
		t.Errorf("Priority = %d, want 4", stored.Priority)
	}
}
