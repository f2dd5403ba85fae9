package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/skitterhq/skitter/internal/errs"
	"github.com/skitterhq/skitter/internal/model"
	"github.com/skitterhq/skitter/internal/stats"
)

// Summary is everything a report writer needs about a finished crawl:
// the statistics snapshot and the frontier state counts.
type Summary struct {
	// Stats holds the crawl counters.
	Stats stats.Snapshot

	// Counts maps frontier statuses to record counts. May be nil when
	// the frontier was unavailable at summary time.
	Counts map[model.URLStatus]int64
}

// TotalErrors returns the number of errors across all categories.
func (s *Summary) TotalErrors() int64 {
	var total int64
	for _, n := range s.Stats.Errors {
		total += n
	}
	return total
}

// Writer outputs a crawl summary to its configured destination.
//
// Design decision: We use an interface so the same summary can go to a
// terminal, a file, or both, in any format, behind one API.
type Writer interface {
	// Write outputs the summary. Returns the number of bytes written
	// and any error encountered.
	Write(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers in order, stopping on the
// first error. Useful for writing to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers. Returns the
// total bytes written across all of them.
func (m *MultiWriter) Write(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// categoryOrder fixes the display order of error categories, roughly
// most actionable first. Maps iterate randomly; reports must not.
var categoryOrder = []errs.Category{
	errs.CategoryServer,
	errs.CategorySSL,
	errs.CategoryAuthentication,
	errs.CategoryProtocol,
	errs.CategoryDNS,
	errs.CategoryNetwork,
	errs.CategoryFileIO,
	errs.CategoryCanceled,
	errs.CategoryGeneric,
}

// statusOrder fixes the display order of frontier statuses.
var statusOrder = []model.URLStatus{
	model.StatusTodo,
	model.StatusInProgress,
	model.StatusDone,
	model.StatusError,
	model.StatusSkipped,
}

// categoryTitle turns a category name like "network-failure" into a
// display label like "Network Failure".
var titleCaser = cases.Title(language.English)

func categoryTitle(c errs.Category) string {
	return titleCaser.String(strings.ReplaceAll(c.String(), "-", " "))
}

// formatBytes renders a byte count with a binary-unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
