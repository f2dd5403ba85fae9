// Package fetch retrieves documents for the crawl.
//
// The crawl processor depends on the Fetcher interface and picks an
// implementation by URL scheme: HTTPFetcher covers http and https,
// FTPFetcher covers ftp with a control-channel availability probe. The
// Waiter paces requests between fetches: a politeness delay, a retry
// backoff, and an optional global rate cap.
//
// Fetchers translate transport failures into the error types of
// internal/errs so the statistics counters and the exit-code table see
// one vocabulary: dial and read failures become NetworkError,
// certificate failures and cancellations stay visible through the
// wrapped cause. An HTTP error status is not a fetch error; the
// processor decides what a 404 means.
package fetch
