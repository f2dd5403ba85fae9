package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/skitterhq/skitter/internal/errs"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, summary)

	// Frontier state
	w.writeFrontier(md, summary)

	// Errors by category
	w.writeErrors(md, summary)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("Crawl Report")
	md.PlainText("")

	snap := summary.Stats
	started := "-"
	if !snap.StartTime.IsZero() {
		started = snap.StartTime.Format("2006-01-02 15:04:05 MST")
	}
	finished := "-"
	if !snap.StopTime.IsZero() {
		finished = snap.StopTime.Format("2006-01-02 15:04:05 MST")
	}

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", started},
			{"Finished", finished},
			{"Duration", snap.Duration.Round(time.Millisecond).String()},
			{"Documents", strconv.FormatInt(snap.Files, 10)},
			{"Downloaded", formatBytes(snap.Bytes)},
		},
	})
	md.PlainText("")
}

// writeFrontier writes the frontier status counts.
func (w *MarkdownWriter) writeFrontier(md *markdown.Markdown, summary *Summary) {
	md.H2("Frontier")
	md.PlainText("")

	var rows [][]string
	for _, status := range statusOrder {
		count := summary.Counts[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{"`" + status.String() + "`", strconv.FormatInt(count, 10)})
	}

	if len(rows) == 0 {
		md.PlainText("No frontier counts available.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Status", "URLs"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeErrors writes the error summary section.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, summary *Summary) {
	md.H2("Errors")
	md.PlainText("")

	total := summary.TotalErrors()
	if total == 0 {
		md.Tip("No errors recorded during the crawl.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(categoryOrder)+1)
	for _, category := range categoryOrder {
		count := summary.Stats.Errors[category]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{categoryTitle(category), strconv.FormatInt(count, 10)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.FormatInt(total, 10) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, summary)
	w.writeAlert(md, summary, total)
}

// writePieChart writes a mermaid pie chart for the error distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Error Category Distribution"),
		piechart.WithShowData(true),
	)

	for _, category := range categoryOrder {
		count := summary.Stats.Errors[category]
		if count == 0 {
			continue
		}
		chart.LabelAndIntValue(categoryTitle(category), uint64(count))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the error counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *Summary, total int64) {
	serverErrors := summary.Stats.Errors[errs.CategoryServer]
	switch {
	case serverErrors > 0:
		md.Warningf(
			"%d fetch(es) failed, including %d server error(s). Those documents are missing from the mirror.",
			total, serverErrors,
		)
	default:
		md.Importantf("%d fetch(es) failed. Those documents are missing from the mirror.", total)
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [skitter](https://github.com/skitterhq/skitter)*")
}
