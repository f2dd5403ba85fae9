package report

import (
	"encoding/json"
	"io"
	"time"
)

// JSONWriter outputs summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonSummary is the serialized view of a Summary.
//
// Design decision: We marshal a view rather than the Summary itself
// because the raw counters use typed integer map keys, which encode as
// "0", "1", ... in JSON. The view keys both maps by name and renders
// the duration in its human-readable form.
type jsonSummary struct {
	// StartTime is when the crawl started; omitted if it never did.
	StartTime time.Time `json:"start_time,omitzero"`

	// StopTime is when the crawl stopped; omitted while it runs.
	StopTime time.Time `json:"stop_time,omitzero"`

	// Duration is the elapsed crawl time, e.g. "2m31.5s".
	Duration string `json:"duration"`

	// Files is the number of fetched documents.
	Files int64 `json:"files"`

	// Bytes is the total size of fetched documents.
	Bytes int64 `json:"bytes"`

	// Errors maps error category names to occurrence counts.
	Errors map[string]int64 `json:"errors,omitempty"`

	// TotalErrors is the sum of all error counts.
	TotalErrors int64 `json:"total_errors"`

	// Frontier maps URL status names to row counts.
	Frontier map[string]int64 `json:"frontier,omitempty"`
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(summary *Summary) (int, error) {
	view := jsonSummary{
		StartTime:   summary.Stats.StartTime,
		StopTime:    summary.Stats.StopTime,
		Duration:    summary.Stats.Duration.String(),
		Files:       summary.Stats.Files,
		Bytes:       summary.Stats.Bytes,
		TotalErrors: summary.TotalErrors(),
	}

	if len(summary.Stats.Errors) > 0 {
		view.Errors = make(map[string]int64, len(summary.Stats.Errors))
		for category, count := range summary.Stats.Errors {
			view.Errors[category.String()] = count
		}
	}

	if len(summary.Counts) > 0 {
		view.Frontier = make(map[string]int64, len(summary.Counts))
		for status, count := range summary.Counts {
			view.Frontier[status.String()] = count
		}
	}

	return w.writeJSON(view)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
