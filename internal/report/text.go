package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// TextWriter outputs human-readable crawl summaries.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
//  1. It works in all terminals without compatibility issues
//  2. It's easier to pipe to files or other tools
//  3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// showEmpty controls whether zero-count rows are shown.
	showEmpty bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show zero-count rows.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *TextWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeFrontier(&sb, summary)
	w.writeErrors(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header with timing and volume counters.
func (w *TextWriter) writeHeader(sb *strings.Builder, summary *Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	snap := summary.Stats
	if !snap.StartTime.IsZero() {
		sb.WriteString(fmt.Sprintf("Started:    %s\n", snap.StartTime.Format("2006-01-02 15:04:05 MST")))
	}
	if !snap.StopTime.IsZero() {
		sb.WriteString(fmt.Sprintf("Finished:   %s\n", snap.StopTime.Format("2006-01-02 15:04:05 MST")))
	}
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", snap.Duration.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Documents:  %d (%s)\n", snap.Files, formatBytes(snap.Bytes)))
	sb.WriteString("\n")
}

// writeFrontier writes the frontier status counts.
func (w *TextWriter) writeFrontier(sb *strings.Builder, summary *Summary) {
	if summary.Counts == nil && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FRONTIER\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, status := range statusOrder {
		count := summary.Counts[status]
		if count == 0 && !w.showEmpty {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-12s %d\n", status.String()+":", count))
	}
	sb.WriteString("\n")
}

// writeErrors writes the per-category error counts.
func (w *TextWriter) writeErrors(sb *strings.Builder, summary *Summary) {
	total := summary.TotalErrors()
	if total == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ERRORS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, category := range categoryOrder {
		count := summary.Stats.Errors[category]
		if count == 0 && !w.showEmpty {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-20s %d\n", categoryTitle(category)+":", count))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:               %d\n", total))
	sb.WriteString("\n")
}

// writeFooter closes the summary block.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
