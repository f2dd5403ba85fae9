package model

import (
	"errors"
	"fmt"
)

// ErrUnknownStatus is returned when parsing an unrecognized status string.
var ErrUnknownStatus = errors.New("unknown url status")

// ErrUnknownLinkType is returned when parsing an unrecognized link type
// string.
var ErrUnknownLinkType = errors.New("unknown link type")

// URLStatus tracks a frontier entry through its lifecycle.
//
// Design decision: Statuses are iota constants with a string form because
// the URL table persists them as text; ParseURLStatus is the inverse used
// when loading records back.
type URLStatus int

const (
	// StatusTodo marks a URL waiting to be fetched.
	StatusTodo URLStatus = iota

	// StatusInProgress marks a URL checked out by a worker.
	StatusInProgress

	// StatusDone marks a URL fetched successfully.
	StatusDone

	// StatusError marks a URL whose fetch failed permanently.
	StatusError

	// StatusSkipped marks a URL rejected before fetching.
	StatusSkipped
)

// String returns the persisted form of the status.
func (s URLStatus) String() string {
	switch s {
	case StatusTodo:
		return "todo"
	case StatusInProgress:
		return "in_progress"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ParseURLStatus converts a persisted status string back to a URLStatus.
func ParseURLStatus(s string) (URLStatus, error) {
	switch s {
	case "todo":
		return StatusTodo, nil
	case "in_progress":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	case "error":
		return StatusError, nil
	case "skipped":
		return StatusSkipped, nil
	default:
		return StatusTodo, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// LinkType classifies how a URL was discovered.
type LinkType int

const (
	// LinkTypeHTML marks a page link followed for its own sake.
	LinkTypeHTML LinkType = iota

	// LinkTypeCSS marks a stylesheet requisite.
	LinkTypeCSS

	// LinkTypeJavaScript marks a script requisite.
	LinkTypeJavaScript

	// LinkTypeMedia marks an image or other media requisite.
	LinkTypeMedia

	// LinkTypeFile marks an FTP file listing entry.
	LinkTypeFile
)

// String returns the persisted form of the link type.
func (t LinkType) String() string {
	switch t {
	case LinkTypeHTML:
		return "html"
	case LinkTypeCSS:
		return "css"
	case LinkTypeJavaScript:
		return "javascript"
	case LinkTypeMedia:
		return "media"
	case LinkTypeFile:
		return "file"
	default:
		return "unknown"
	}
}

// ParseLinkType converts a persisted link type string back to a
// LinkType.
func ParseLinkType(s string) (LinkType, error) {
	switch s {
	case "html":
		return LinkTypeHTML, nil
	case "css":
		return LinkTypeCSS, nil
	case "javascript":
		return LinkTypeJavaScript, nil
	case "media":
		return LinkTypeMedia, nil
	case "file":
		return LinkTypeFile, nil
	default:
		return LinkTypeHTML, fmt.Errorf("%w: %q", ErrUnknownLinkType, s)
	}
}

// IsInline reports whether the link is a page requisite rather than a
// document in its own right. Inline links track their own depth so page
// resources load even at the crawl depth limit.
func (t LinkType) IsInline() bool {
	switch t {
	case LinkTypeCSS, LinkTypeJavaScript, LinkTypeMedia:
		return true
	default:
		return false
	}
}

// URLRecord is one frontier entry: a URL together with its crawl
// bookkeeping. Records are persisted in the URL table and handed to
// hooks alongside the parsed URLInfo.
type URLRecord struct {
	// ID is the table row identifier, zero before insertion.
	ID int64 `json:"id"`

	// URL is the normalized URL string.
	URL string `json:"url"`

	// ParentURL is the page this URL was discovered on, if any.
	ParentURL string `json:"parent_url,omitempty"`

	// RootURL is the seed the crawl reached this URL from.
	RootURL string `json:"root_url,omitempty"`

	// Status is the lifecycle state.
	Status URLStatus `json:"status"`

	// TryCount is the number of fetch attempts so far.
	TryCount int `json:"try_count"`

	// Level is the link depth from the seed, zero for seeds.
	Level int `json:"level"`

	// InlineLevel is the requisite depth, zero for page links.
	InlineLevel int `json:"inline_level"`

	// LinkType records how the URL was discovered.
	LinkType LinkType `json:"link_type"`

	// Priority orders frontier checkout; higher runs first.
	Priority int `json:"priority"`

	// StatusCode is the last response status, zero before any fetch.
	StatusCode int `json:"status_code,omitempty"`

	// Filename is the local file the body was written to, if any.
	Filename string `json:"filename,omitempty"`
}

// Clone returns an independent copy. Hooks receive clones so callback
// mutations never leak into engine state.
func (r *URLRecord) Clone() *URLRecord {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}
