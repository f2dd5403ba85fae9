package config

import (
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values follow common recursive-download conventions so that users
// coming from other mirroring tools find familiar behavior.
const (
	// DefaultTimeout is the per-request timeout. 30 seconds accommodates
	// slow servers without letting a single stuck connection hold a
	// worker for minutes.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxLevel is the recursion depth for page links. Five levels
	// is the conventional recursive-retrieval default and covers most
	// site structures without wandering off into archives.
	DefaultMaxLevel = 5

	// DefaultConcurrency is the number of simultaneous fetches. Two keeps
	// a crawl moving while staying gentle on small servers. Users can
	// raise it via the --concurrency flag for hosts that tolerate more.
	DefaultConcurrency = 2

	// DefaultMaxTries is the attempt budget per URL before it is marked
	// failed. Twenty retries matches the conventional default for
	// download tools and rides out transient network trouble.
	DefaultMaxTries = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "skitter"

	// DefaultCrawlDelay is the pause between requests to the same crawl.
	// Zero means no politeness delay, matching conventional defaults.
	// Operators crawling shared infrastructure should set --delay.
	DefaultCrawlDelay = 0 * time.Second

	// DefaultUserAgent identifies skitter in HTTP requests. A descriptive
	// User-Agent lets site operators identify crawler traffic in their
	// logs and reach the project if the crawler misbehaves.
	DefaultUserAgent = "skitter/1.0 (+https://github.com/skitterhq/skitter)"

	// DefaultMaxBodySize limits the response body size to read.
	// 10MB covers HTML pages and most page requisites while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	// DefaultSaveDir is where fetched documents are written. The current
	// directory mirrors the behavior of classic recursive downloaders,
	// which build a host-named tree where they are invoked.
	DefaultSaveDir = "."
)

// Config holds all configuration options for skitter.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Targets is the list of seed URLs to crawl.
	// Must contain at least one URL. Bare host names are accepted and
	// normalized to http:// during seeding.
	Targets []string

	// Timeout is the timeout for each HTTP/FTP request.
	// This applies to individual requests, not the overall crawl duration.
	Timeout time.Duration

	// MaxLevel is the maximum recursion depth for page links.
	// Level 0 means only fetch the seed URLs. Page requisites (images,
	// stylesheets) have their own inline depth and are not limited by
	// this value.
	MaxLevel int

	// Concurrency is the number of URLs fetched simultaneously.
	// Higher values increase throughput but put more load on the
	// remote servers and the local network.
	Concurrency int

	// MaxTries is the number of fetch attempts per URL before it is
	// marked failed. Only transient failures (network trouble, server
	// errors) consume retries.
	MaxTries int

	// CrawlDelay is the pause between consecutive requests.
	// This is a politeness setting to avoid overwhelming servers.
	// Zero disables the delay.
	CrawlDelay time.Duration

	// RandomWait perturbs CrawlDelay by a random factor between 0.5x
	// and 1.5x so that request timing does not form an obvious pattern.
	RandomWait bool

	// RateLimit caps the request rate in requests per second across
	// all workers. Zero means unlimited.
	RateLimit float64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory
	// exhaustion. Zero means use the default.
	MaxBodySize int64

	// Quota is the total download byte budget for the whole crawl.
	// Once fetched bytes exceed it the crawl winds down gracefully.
	// Zero means unlimited.
	Quota int64

	// SpanHosts permits the crawl to follow links onto hosts other than
	// those of the seed URLs. When false (default), the crawl stays on
	// the seed hosts.
	SpanHosts bool

	// AcceptRegex keeps only URLs matching this pattern. Empty accepts
	// everything not rejected.
	AcceptRegex string

	// RejectRegex skips URLs matching this pattern.
	RejectRegex string

	// AcceptGlobs keeps only file names matching one of these glob
	// patterns (e.g. "*.html"). Empty accepts everything not rejected.
	AcceptGlobs []string

	// RejectGlobs skips file names matching one of these glob patterns.
	RejectGlobs []string

	// Proxy is the address of a SOCKS5 proxy in "host:port" format.
	// When empty, connections are made directly.
	Proxy string

	// InsecureTLS disables TLS certificate verification.
	// Useful for hosts with self-signed certificates; fetches then
	// never fail with a certificate error.
	InsecureTLS bool

	// RotateDNS cycles through a host's addresses across requests
	// instead of always dialing the first resolved address.
	RotateDNS bool

	// IPv4Only restricts DNS resolution to A records.
	// Mutually exclusive with IPv6Only.
	IPv4Only bool

	// IPv6Only restricts DNS resolution to AAAA records.
	// Mutually exclusive with IPv4Only.
	IPv6Only bool

	// SaveDir is the directory where fetched documents are written,
	// one subdirectory per host. Empty disables saving, which turns
	// the run into a link check.
	SaveDir string

	// DBDir is the directory for the crawl frontier database. The
	// database holds every discovered URL and its status, so an
	// interrupted crawl can resume where it stopped.
	// Defaults to the XDG data directory (~/.local/share/skitter on Linux).
	DBDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .skitter in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// HostConfigs holds per-host settings loaded from the config file.
	// This is populated by LoadConfigFile and consulted during crawling.
	HostConfigs *File

	// JSONReport enables JSON summary output instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown summary output with tables and a
	// status pie chart. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the crawl summary.
	// When set, the summary is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, retry
// budget). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxLevel:    DefaultMaxLevel,
		Concurrency: DefaultConcurrency,
		MaxTries:    DefaultMaxTries,
		CrawlDelay:  DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		SaveDir:     DefaultSaveDir,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for skitter.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/skitter
// On macOS: ~/Library/Application Support/skitter
// On Windows: %LOCALAPPDATA%\skitter
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for skitter.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/skitter
// On macOS: ~/Library/Application Support/skitter
// On Windows: %APPDATA%\skitter
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for skitter.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/skitter
// On macOS: ~/Library/Caches/skitter
// On Windows: %LOCALAPPDATA%\skitter\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one seed URL to crawl
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Concurrency must be positive; zero would mean no fetching
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// MaxTries must be positive; every URL needs at least one attempt
	if c.MaxTries <= 0 {
		return ErrInvalidMaxTries
	}

	// The frontier database is where the crawl state lives; without it
	// nothing can be queued or resumed
	if c.DBDir == "" {
		return ErrNoDatabaseDir
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// IPv4Only and IPv6Only are mutually exclusive
	if c.IPv4Only && c.IPv6Only {
		return ErrConflictingAddressFamilies
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	// RateLimit must be non-negative; zero means unlimited
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	// MaxBodySize must be non-negative; zero means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// Quota must be non-negative; zero means unlimited
	if c.Quota < 0 {
		return ErrInvalidQuota
	}

	// Patterns must compile now; a typo would otherwise surface only
	// after the crawl has started
	for _, pattern := range []string{c.AcceptRegex, c.RejectRegex} {
		if pattern == "" {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return ErrInvalidRegexPattern
		}
	}
	for _, pattern := range append(append([]string{}, c.AcceptGlobs...), c.RejectGlobs...) {
		if _, err := path.Match(pattern, ""); err != nil {
			return ErrInvalidGlobPattern
		}
	}

	return nil
}
