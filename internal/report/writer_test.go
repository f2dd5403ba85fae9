package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/skitterhq/skitter/internal/errs"
	"github.com/skitterhq/skitter/internal/model"
	"github.com/skitterhq/skitter/internal/stats"
)

// createTestSummary creates a summary with sample data for testing.
func createTestSummary() *Summary {
	start := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &Summary{
		Stats: stats.Snapshot{
			StartTime: start,
			StopTime:  start.Add(2*time.Minute + 31*time.Second),
			Duration:  2*time.Minute + 31*time.Second,
			Files:     12,
			Bytes:     345678,
			Errors: map[errs.Category]int64{
				errs.CategoryServer:  2,
				errs.CategoryNetwork: 3,
			},
		},
		Counts: map[model.URLStatus]int64{
			model.StatusTodo:  3,
			model.StatusDone:  12,
			model.StatusError: 5,
		},
	}
}

// TestSummaryTotalErrors tests the error count aggregation.
func TestSummaryTotalErrors(t *testing.T) {
	t.Parallel()

	t.Run("sums all categories", func(t *testing.T) {
		t.Parallel()

		summary := createTestSummary()
		if got := summary.TotalErrors(); got != 5 {
			t.Errorf("expected 5 total errors, got %d", got)
		}
	})

	t.Run("zero without errors", func(t *testing.T) {
		t.Parallel()

		summary := &Summary{}
		if got := summary.TotalErrors(); got != 0 {
			t.Errorf("expected 0 total errors, got %d", got)
		}
	})
}

// TestTextWriter tests the human-readable summary writer.
func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CRAWL SUMMARY") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "2026-03-14") {
			t.Error("expected output to contain the start date")
		}
		if !strings.Contains(output, "Documents:  12 (337.6 KiB)") {
			t.Error("expected output to contain document count and size")
		}
	})

	t.Run("writes frontier counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "FRONTIER") {
			t.Error("expected output to contain frontier section")
		}
		if !strings.Contains(output, "done:") {
			t.Error("expected output to contain done count")
		}
		if !strings.Contains(output, "todo:") {
			t.Error("expected output to contain todo count")
		}
	})

	t.Run("writes error counts in fixed order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ERRORS") {
			t.Error("expected output to contain errors section")
		}
		if !strings.Contains(output, "TOTAL:               5") {
			t.Error("expected output to contain error total")
		}

		server := strings.Index(output, "Server Error:")
		network := strings.Index(output, "Network Failure:")
		if server < 0 || network < 0 {
			t.Fatal("expected both category rows in output")
		}
		if server > network {
			t.Error("expected server errors to be listed before network failures")
		}
	})

	t.Run("skips empty sections by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)

		_, err := w.Write(&Summary{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CRAWL SUMMARY") {
			t.Error("expected output to contain header")
		}
		if strings.Contains(output, "FRONTIER") {
			t.Error("expected frontier section to be omitted without counts")
		}
		if strings.Contains(output, "ERRORS") {
			t.Error("expected errors section to be omitted without errors")
		}
	})

	t.Run("show empty lists every row", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf, WithShowEmpty(true))

		_, err := w.Write(&Summary{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "in_progress:") {
			t.Error("expected in_progress row with showEmpty")
		}
		if !strings.Contains(output, "Generic Error:") {
			t.Error("expected generic error row with showEmpty")
		}
	})
}

// TestJSONWriter tests the JSON summary writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed map[string]any
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed["files"] != float64(12) {
			t.Errorf("expected 12 files, got %v", parsed["files"])
		}
		if parsed["duration"] != "2m31s" {
			t.Errorf("expected duration 2m31s, got %v", parsed["duration"])
		}
		if parsed["total_errors"] != float64(5) {
			t.Errorf("expected 5 total errors, got %v", parsed["total_errors"])
		}
	})

	t.Run("keys maps by name", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed struct {
			Errors   map[string]int64 `json:"errors"`
			Frontier map[string]int64 `json:"frontier"`
		}
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Errors["server-error"] != 2 {
			t.Errorf("expected 2 server errors, got %d", parsed.Errors["server-error"])
		}
		if parsed.Frontier["done"] != 12 {
			t.Errorf("expected 12 done URLs, got %d", parsed.Frontier["done"])
		}
	})

	t.Run("omits empty fields", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(&Summary{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed map[string]any
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		for _, key := range []string{"start_time", "stop_time", "errors", "frontier"} {
			if _, ok := parsed[key]; ok {
				t.Errorf("expected %q to be omitted from empty summary", key)
			}
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Compact JSON should be on fewer lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Pretty printed JSON should have multiple lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})

	t.Run("uses custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent(">>", "\t"))

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, ">>") {
			t.Error("expected custom prefix '>>' in output")
		}
		if !strings.Contains(output, "\t") {
			t.Error("expected tab indentation in output")
		}
	})
}

// TestMarkdownWriter tests the Markdown summary writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Crawl Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "337.6 KiB") {
			t.Error("expected output to contain download size")
		}
	})

	t.Run("writes frontier table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Frontier") {
			t.Error("expected output to contain frontier header")
		}
		if !strings.Contains(output, "`done`") {
			t.Error("expected output to contain done status")
		}
	})

	t.Run("writes error table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Errors") {
			t.Error("expected output to contain errors header")
		}
		if !strings.Contains(output, "Server Error") {
			t.Error("expected output to contain server error row")
		}
		if !strings.Contains(output, "**Total**") {
			t.Error("expected output to contain total row")
		}
	})

	t.Run("includes pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "```mermaid") {
			t.Error("expected output to contain mermaid code block")
		}
		if !strings.Contains(output, "pie") {
			t.Error("expected output to contain pie chart")
		}
	})

	t.Run("includes GitHub alert for server errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected WARNING alert when server errors occurred")
		}
	})

	t.Run("important alert without server errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()
		summary.Stats.Errors = map[errs.Category]int64{
			errs.CategoryNetwork: 1,
		}

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!IMPORTANT]") {
			t.Error("expected IMPORTANT alert for non-server errors")
		}
	})

	t.Run("tip when no errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()
		summary.Stats.Errors = nil

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected TIP alert for clean crawl")
		}
		if !strings.Contains(output, "No errors recorded") {
			t.Error("expected message about no errors")
		}
	})

	t.Run("handles summary with no frontier counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := createTestSummary()
		summary.Counts = nil

		_, err := w.Write(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No frontier counts available") {
			t.Error("expected message about missing frontier counts")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "https://github.com/skitterhq/skitter") {
			t.Error("expected footer with repository link")
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		w1 := NewTextWriter(&buf1)
		w2 := NewJSONWriter(&buf2)

		multi := NewMultiWriter(w1, w2)

		_, err := multi.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Check both buffers have content
		if buf1.Len() == 0 {
			t.Error("expected buf1 to have content")
		}
		if buf2.Len() == 0 {
			t.Error("expected buf2 to have content")
		}

		// Verify formats are different
		if strings.Contains(buf1.String(), "{") {
			t.Error("expected buf1 (text) to not be JSON")
		}
		if !strings.Contains(buf2.String(), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		multi := NewMultiWriter()

		n, err := multi.Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes written for empty writers, got %d", n)
		}
	})
}

// TestFormatBytes tests the byte size formatting helper.
func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{5368709120, "5.0 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			result := formatBytes(tt.input)
			if result != tt.expected {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestCategoryTitle tests the category display label helper.
func TestCategoryTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category errs.Category
		expected string
	}{
		{errs.CategoryServer, "Server Error"},
		{errs.CategoryNetwork, "Network Failure"},
		{errs.CategoryCanceled, "Canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			result := categoryTitle(tt.category)
			if result != tt.expected {
				t.Errorf("categoryTitle(%q) = %q, want %q", tt.category, result, tt.expected)
			}
		})
	}
}
