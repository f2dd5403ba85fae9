package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when no seed URL is specified.
	// This error occurs when neither --input-file nor a positional
	// argument provides a URL to start from.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --input-file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	// A concurrency of zero would mean no fetching at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxTries is returned when the retry budget is not positive.
	// Every URL needs at least one attempt to be fetched.
	ErrInvalidMaxTries = errors.New("invalid max tries: must be positive")

	// ErrNoDatabaseDir is returned when the frontier database directory
	// is empty. The database is where crawl state lives; there is no
	// in-memory fallback.
	ErrNoDatabaseDir = errors.New("no database directory: the crawl frontier needs somewhere to live")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingAddressFamilies is returned when both --inet4-only and
	// --inet6-only are specified. The two restrictions cancel each other out.
	ErrConflictingAddressFamilies = errors.New("conflicting address families: --inet4-only and --inet6-only cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidRateLimit is returned when the request rate cap is negative.
	// A negative rate is invalid; use 0 for an unlimited rate.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidQuota is returned when the download quota is negative.
	// A negative quota is invalid; use 0 for an unlimited crawl.
	ErrInvalidQuota = errors.New("invalid quota: must be non-negative")

	// ErrInvalidRegexPattern is returned when --accept-regex or
	// --reject-regex does not compile as a regular expression.
	ErrInvalidRegexPattern = errors.New("invalid regex pattern: check --accept-regex and --reject-regex")

	// ErrInvalidGlobPattern is returned when a pattern given to
	// --accept or --reject is not a valid glob.
	ErrInvalidGlobPattern = errors.New("invalid glob pattern: check --accept and --reject")
)
