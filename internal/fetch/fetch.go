package fetch

import (
	"context"
	"errors"
	"net/http"

	"github.com/skitterhq/skitter/internal/model"
)

// ErrSkipBody is returned by a PreResponse callback to complete the
// fetch without consuming the body. The fetcher returns the response
// with its metadata filled and Body nil.
var ErrSkipBody = errors.New("skip response body")

// Response is the outcome of one successful fetch. HTTP fetches fill
// the status, header, and body fields; FTP probes fill Banner and leave
// the HTTP fields zero.
type Response struct {
	// URL is the normalized URL that was fetched.
	URL string

	// StatusCode is the HTTP response status, zero for FTP.
	StatusCode int

	// ContentType is the Content-Type header value, if any.
	ContentType string

	// Header holds the response headers, nil for FTP.
	Header http.Header

	// Body is the response body, capped at the fetcher's size limit.
	Body []byte

	// Size is the body length in bytes.
	Size int64

	// Banner is the FTP welcome banner, empty for HTTP.
	Banner string
}

// PreResponse is consulted once response metadata arrives and before
// the body is read. Returning nil continues the transfer, ErrSkipBody
// completes it with an empty body, and any other error aborts the
// fetch. The Response passed in has no Body yet.
type PreResponse func(ctx context.Context, resp *Response) error

// Fetcher retrieves one document. Implementations are safe for
// concurrent use; the crawl workers share one fetcher per scheme.
type Fetcher interface {
	// Fetch retrieves the document at info. A non-nil error means the
	// transfer itself failed; an HTTP error status is a valid Response.
	// pre may be nil.
	Fetch(ctx context.Context, info *model.URLInfo, pre PreResponse) (*Response, error)

	// Schemes returns the URL schemes this fetcher serves.
	Schemes() []string
}
