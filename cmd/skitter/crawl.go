package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skitterhq/skitter/internal/app"
	"github.com/skitterhq/skitter/internal/config"
	"github.com/skitterhq/skitter/internal/crawl"
	"github.com/skitterhq/skitter/internal/database"
	"github.com/skitterhq/skitter/internal/dns"
	"github.com/skitterhq/skitter/internal/fetch"
	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/log"
	"github.com/skitterhq/skitter/internal/model"
	"github.com/skitterhq/skitter/internal/pipeline"
	"github.com/skitterhq/skitter/internal/report"
	"github.com/skitterhq/skitter/internal/semaphore"
	"github.com/skitterhq/skitter/internal/stats"
	"github.com/skitterhq/skitter/internal/urlfilter"
	"github.com/spf13/cobra"
)

// Retry pacing for failed fetches. Each retry of a URL waits retryBackoff
// longer than the previous one, capped at maxBackoff, so a flaky server
// sees progressively gentler traffic instead of a hammering loop.
const (
	retryBackoff = 1 * time.Second
	maxBackoff   = 10 * time.Second
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Recursively crawl one or more URLs",
		Long: `Crawl fetches the given URLs, follows their links to a configurable
depth, and mirrors the documents into the output directory.

Every URL is recorded in an on-disk frontier database, so a crawl that is
interrupted (Ctrl-C, network outage, reboot) picks up where it left off
when re-run with the same database directory.

Examples:
  # Crawl a site three levels deep
  skitter crawl --level 3 https://example.com/

  # Mirror into ./mirror with a polite two-second delay
  skitter crawl -P mirror -w 2s --random-wait https://example.com/

  # Check links without saving anything
  skitter crawl --spider https://example.com/

  # Crawl seeds listed in a file, one per line
  skitter crawl --input-file seeds.txt

Configuration file (.skitter) example:
  defaults:
    delay: 1s
  hosts:
    slow.example.com:
      delay: 10s
      userAgent: "archival-bot/1.0"
    intranet.example.com:
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("level", "l", config.DefaultMaxLevel,
		"Maximum link recursion depth (0 for unlimited)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of URLs fetched in parallel")
	cmd.Flags().IntP("tries", "T", config.DefaultMaxTries,
		"Maximum fetch attempts per URL (0 for unlimited)")
	cmd.Flags().Int64P("quota", "Q", 0,
		"Stop crawling after this many bytes have been downloaded (0 for no limit)")

	// Politeness flags
	cmd.Flags().DurationP("delay", "w", config.DefaultCrawlDelay,
		"Pause between requests")
	cmd.Flags().Bool("random-wait", false,
		"Randomize the pause between 0.5x and 1.5x of --delay")
	cmd.Flags().Float64("rate-limit", 0,
		"Maximum requests per second across all workers (0 for no limit)")

	// Scope flags
	cmd.Flags().BoolP("span-hosts", "H", false,
		"Follow links onto hosts other than the seeds")
	cmd.Flags().String("accept-regex", "",
		"Only follow URLs matching this regular expression")
	cmd.Flags().String("reject-regex", "",
		"Skip URLs matching this regular expression")
	cmd.Flags().StringSliceP("accept", "A", nil,
		"Only save files whose names match these glob patterns")
	cmd.Flags().StringSliceP("reject", "R", nil,
		"Skip files whose names match these glob patterns")

	// Transport flags
	cmd.Flags().StringP("user-agent", "U", config.DefaultUserAgent,
		"User-Agent header sent with every HTTP request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Largest response body to download, in bytes")
	cmd.Flags().StringP("proxy", "p", "",
		"SOCKS5 proxy address to route requests through (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("no-check-certificate", false,
		"Skip TLS certificate verification")

	// DNS flags
	cmd.Flags().Bool("rotate-dns", false,
		"Rotate between resolved addresses instead of always using the first")
	cmd.Flags().BoolP("inet4-only", "4", false,
		"Connect only to IPv4 addresses")
	cmd.Flags().BoolP("inet6-only", "6", false,
		"Connect only to IPv6 addresses")

	// Output flags
	cmd.Flags().StringP("output-dir", "P", config.DefaultSaveDir,
		"Directory documents are saved under")
	cmd.Flags().Bool("spider", false,
		"Check links without saving any documents")
	cmd.Flags().String("database-dir", config.XDGDataDir(),
		"Directory the frontier database lives in")

	// Input flags
	cmd.Flags().StringP("input-file", "i", "",
		"Read seed URLs from this file, one per line ('#' starts a comment)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .skitter in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := setupLogger(getVerboseFlag(cmd), getLogJSONFlag(cmd))
	slog.SetDefault(logger)

	// Signal handling lives inside the application: the first interrupt
	// finishes in-flight work, the second tears the crawl down.
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := runCrawl(ctx, cfg, logger); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			// The crawl already logged its outcome; just carry the code.
			return err
		}
		code, _ := app.Classify(err)
		fmt.Fprintf(cmd.ErrOrStderr(), "skitter: %v\n", err)
		return &exitCodeError{code: code}
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogJSONFlag retrieves the log-json flag from the command or its parent.
func getLogJSONFlag(cmd *cobra.Command) bool {
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		jsonLogs, err = cmd.Root().PersistentFlags().GetBool("log-json")
		if err != nil {
			return false
		}
	}
	return jsonLogs
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxLevel, err = cmd.Flags().GetInt("level")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.MaxTries, err = cmd.Flags().GetInt("tries")
	if err != nil {
		return nil, err
	}

	cfg.Quota, err = cmd.Flags().GetInt64("quota")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.RandomWait, err = cmd.Flags().GetBool("random-wait")
	if err != nil {
		return nil, err
	}

	cfg.RateLimit, err = cmd.Flags().GetFloat64("rate-limit")
	if err != nil {
		return nil, err
	}

	cfg.SpanHosts, err = cmd.Flags().GetBool("span-hosts")
	if err != nil {
		return nil, err
	}

	cfg.AcceptRegex, err = cmd.Flags().GetString("accept-regex")
	if err != nil {
		return nil, err
	}

	cfg.RejectRegex, err = cmd.Flags().GetString("reject-regex")
	if err != nil {
		return nil, err
	}

	cfg.AcceptGlobs, err = cmd.Flags().GetStringSlice("accept")
	if err != nil {
		return nil, err
	}

	cfg.RejectGlobs, err = cmd.Flags().GetStringSlice("reject")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.Proxy, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.InsecureTLS, err = cmd.Flags().GetBool("no-check-certificate")
	if err != nil {
		return nil, err
	}

	cfg.RotateDNS, err = cmd.Flags().GetBool("rotate-dns")
	if err != nil {
		return nil, err
	}

	cfg.IPv4Only, err = cmd.Flags().GetBool("inet4-only")
	if err != nil {
		return nil, err
	}

	cfg.IPv6Only, err = cmd.Flags().GetBool("inet6-only")
	if err != nil {
		return nil, err
	}

	cfg.SaveDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	spider, err := cmd.Flags().GetBool("spider")
	if err != nil {
		return nil, err
	}
	if spider {
		// Spider mode checks links without saving; an empty save
		// directory is how the processor spells that.
		cfg.SaveDir = ""
	}

	cfg.DBDir, err = cmd.Flags().GetString("database-dir")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load host-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.HostConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.HostConfigs = &config.File{
			Hosts: make(map[string]config.HostConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are seed URLs; --input-file appends more.
	cfg.Targets = args

	inputFile, err := cmd.Flags().GetString("input-file")
	if err != nil {
		return nil, err
	}
	if inputFile != "" {
		fromFile, err := readTargets(inputFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, fromFile...)
	}

	return cfg, nil
}

// readTargets reads seed URLs from a file, one per line. Blank lines and
// lines starting with '#' are skipped.
func readTargets(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the --input-file flag
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	return targets, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Both shapes go through the sanitizing handler so credentials embedded
// in crawled URLs never reach the log stream.
func setupLogger(verbose, jsonLogs bool) *slog.Logger {
	if jsonLogs {
		return log.NewSecureJSONLogger(os.Stderr, verbose)
	}
	return log.NewSecureLogger(os.Stderr, verbose)
}

// normalizeTarget fills in a missing scheme. A bare "example.com" typed
// at a prompt means "http://example.com", so that is what it becomes.
func normalizeTarget(target string) string {
	if !strings.Contains(target, "://") {
		return "http://" + target
	}
	return target
}

// parseSeeds validates and parses the configured targets into seed URLs.
func parseSeeds(targets []string) ([]*model.URLInfo, error) {
	seeds := make([]*model.URLInfo, 0, len(targets))
	for _, target := range targets {
		info, err := model.ParseURL(normalizeTarget(target))
		if err != nil {
			return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
		}
		seeds = append(seeds, info)
	}
	return seeds, nil
}

// hostConfigFor picks the host configuration the crawl is assembled with.
//
// When every seed lives on one host, that host's merged configuration
// applies to the whole crawl. With seeds on several hosts a single
// User-Agent or header set cannot be right for all of them, so only the
// defaults apply and a warning says so. Per-host delays still work in
// that case; they are applied per request through the wait-time hook.
func hostConfigFor(cfg *config.Config, seeds []*model.URLInfo, logger *slog.Logger) config.HostConfig {
	if cfg.HostConfigs == nil {
		return config.HostConfig{}
	}

	hosts := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		hosts[seed.Host] = struct{}{}
	}
	if len(hosts) == 1 {
		for host := range hosts {
			return cfg.HostConfigs.GetHostConfig(host)
		}
	}

	if len(cfg.HostConfigs.Hosts) > 0 {
		logger.Warn("seeds span multiple hosts; host-specific settings apply to delays only, defaults cover the rest",
			"hostCount", len(cfg.HostConfigs.Hosts))
	}
	return cfg.HostConfigs.Defaults
}

// hostDelaysConfigured reports whether any host carries its own delay.
func hostDelaysConfigured(hosts *config.File) bool {
	if hosts == nil {
		return false
	}
	for _, hc := range hosts.Hosts {
		if hc.Delay > 0 {
			return true
		}
	}
	return false
}

// connectHostDelays connects a wait-time callback that swaps in the
// per-host delay for hosts that have one. The waiter's computed pause
// stands for everything else.
func connectHostDelays(reg *hook.Registry, hosts *config.File) error {
	return reg.Hooks.Connect(hook.WaitTime, func(_ context.Context, args ...any) (any, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("wait-time callback expects (pause, record), got %d arguments", len(args))
		}
		pause, ok := args[0].(time.Duration)
		if !ok {
			return nil, fmt.Errorf("wait-time callback expects a duration, got %T", args[0])
		}
		record, ok := args[1].(*model.URLRecord)
		if !ok {
			return pause, nil
		}

		info, err := model.ParseURL(record.URL)
		if err != nil {
			return pause, nil
		}
		if d := hosts.GetHostConfig(info.Host).Delay; d > 0 {
			return d, nil
		}
		return pause, nil
	})
}

// buildResolver assembles the DNS resolver from the address-family and
// rotation flags.
func buildResolver(reg *hook.Registry, cfg *config.Config, logger *slog.Logger) (*dns.Resolver, error) {
	family := dns.FamilyAny
	switch {
	case cfg.IPv4Only:
		family = dns.FamilyIPv4Only
	case cfg.IPv6Only:
		family = dns.FamilyIPv6Only
	}

	resolver, err := dns.NewResolver(reg, dns.NewClient(nil),
		dns.WithFamilyPreference(family),
		dns.WithRotate(cfg.RotateDNS),
		dns.WithTimeout(cfg.Timeout),
		dns.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble resolver: %w", err)
	}
	return resolver, nil
}

// buildFetchers assembles the HTTP and FTP fetchers.
func buildFetchers(cfg *config.Config, hostCfg config.HostConfig) ([]fetch.Fetcher, error) {
	userAgent := cfg.UserAgent
	if hostCfg.UserAgent != "" {
		userAgent = hostCfg.UserAgent
	}

	headers := make(map[string]string, len(hostCfg.Headers)+1)
	for k, v := range hostCfg.Headers {
		headers[k] = v
	}
	if hostCfg.Cookie != "" {
		headers["Cookie"] = hostCfg.Cookie
	}

	httpOpts := []fetch.HTTPOption{
		fetch.WithUserAgent(userAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithHTTPTimeout(cfg.Timeout),
	}
	if len(headers) > 0 {
		httpOpts = append(httpOpts, fetch.WithHeaders(headers))
	}
	if cfg.Proxy != "" {
		httpOpts = append(httpOpts, fetch.WithProxy(cfg.Proxy))
	}
	if cfg.InsecureTLS {
		httpOpts = append(httpOpts, fetch.WithInsecureTLS())
	}

	httpFetcher, err := fetch.NewHTTPFetcher(httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble HTTP fetcher: %w", err)
	}

	ftpFetcher := fetch.NewFTPFetcher(fetch.WithFTPTimeout(cfg.Timeout))

	return []fetch.Fetcher{httpFetcher, ftpFetcher}, nil
}

// buildWaiter assembles the politeness waiter. The base delay comes from
// the flag unless the host configuration carries its own.
func buildWaiter(reg *hook.Registry, cfg *config.Config, hostCfg config.HostConfig, logger *slog.Logger) (*fetch.Waiter, error) {
	delay := cfg.CrawlDelay
	if hostCfg.Delay > 0 {
		delay = hostCfg.Delay
	}

	waiterOpts := []fetch.WaiterOption{
		fetch.WithDelay(delay),
		fetch.WithRetryWait(retryBackoff),
		fetch.WithMaxWait(maxBackoff),
		fetch.WithWaiterLogger(logger),
	}
	if cfg.RandomWait {
		waiterOpts = append(waiterOpts, fetch.WithRandomWait())
	}
	if cfg.RateLimit > 0 {
		waiterOpts = append(waiterOpts, fetch.WithRateLimit(cfg.RateLimit, 1))
	}

	waiter, err := fetch.NewWaiter(reg, waiterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble waiter: %w", err)
	}
	return waiter, nil
}

// buildFilters assembles the URL filter chain from the scope flags and
// the host configuration.
func buildFilters(cfg *config.Config, seeds []*model.URLInfo, hostCfg config.HostConfig) ([]urlfilter.Filter, error) {
	maxLevel := cfg.MaxLevel
	if hostCfg.MaxLevel > 0 {
		maxLevel = hostCfg.MaxLevel
	}

	filters := []urlfilter.Filter{
		urlfilter.NewSchemeFilter("http", "https", "ftp"),
		urlfilter.NewLevelFilter(maxLevel),
	}

	if !cfg.SpanHosts {
		seedHosts := make([]string, 0, len(seeds))
		for _, seed := range seeds {
			seedHosts = append(seedHosts, seed.Host)
		}
		filters = append(filters, urlfilter.NewHostFilter(seedHosts...))
	}

	if cfg.AcceptRegex != "" || cfg.RejectRegex != "" {
		regexFilter, err := urlfilter.NewRegexFilter(cfg.AcceptRegex, cfg.RejectRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid URL pattern: %w", err)
		}
		filters = append(filters, regexFilter)
	}

	acceptGlobs := append(append([]string{}, cfg.AcceptGlobs...), hostCfg.FollowPatterns...)
	rejectGlobs := append(append([]string{}, cfg.RejectGlobs...), hostCfg.IgnorePatterns...)
	if len(acceptGlobs) > 0 || len(rejectGlobs) > 0 {
		globFilter, err := urlfilter.NewGlobFilter(acceptGlobs, rejectGlobs)
		if err != nil {
			return nil, fmt.Errorf("invalid file name pattern: %w", err)
		}
		filters = append(filters, globFilter)
	}

	return filters, nil
}

// buildPrioritiser assembles the frontier prioritiser. Page assets (CSS,
// images, scripts) check out ahead of ordinary pages so a document and
// the resources it needs arrive together rather than pages first and
// their assets at the tail of the crawl.
func buildPrioritiser(reg *hook.Registry, logger *slog.Logger) (*urlfilter.Prioritiser, error) {
	assetFilter, err := urlfilter.NewRegexFilter(`\.(css|js|png|jpe?g|gif|ico|svg|woff2?)$`, "")
	if err != nil {
		return nil, fmt.Errorf("failed to assemble prioritiser: %w", err)
	}

	prioritiser, err := urlfilter.NewPrioritiser(reg,
		[]urlfilter.Rule{{Filter: assetFilter, Priority: 1}},
		urlfilter.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble prioritiser: %w", err)
	}
	return prioritiser, nil
}

// reportOutput opens the report destination: the configured file with
// secure permissions, or standard output.
func reportOutput(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return os.Stdout, func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Create/overwrite the output file with secure permissions (0600).
	// Crawl reports list every URL visited, which the owner may not want
	// other local users reading.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // G304: path comes from the --output flag
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// buildReportWriter picks the report format from the flags.
func buildReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewTextWriter(output)
	}
}

// runCrawl assembles the crawl from the configuration and runs it.
//
// A non-zero exit status from a completed run comes back as an
// exitCodeError; the run has already logged its outcome, so the error
// exists only to carry the code to os.Exit. Plain errors mean assembly
// never finished.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	seeds, err := parseSeeds(cfg.Targets)
	if err != nil {
		return err
	}

	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"concurrency", cfg.Concurrency,
		"maxLevel", cfg.MaxLevel,
		"saveDir", cfg.SaveDir,
	)

	reg := hook.NewRegistry()

	table, err := database.Open(cfg.DBDir, reg, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open frontier database: %w", err)
	}
	defer func() {
		if err := table.Close(); err != nil {
			logger.Error("failed to close frontier database", "error", err)
		}
	}()
	logger.Info("frontier database opened", "dir", cfg.DBDir)

	var statOpts []stats.Option
	if cfg.Quota > 0 {
		statOpts = append(statOpts, stats.WithQuota(cfg.Quota))
	}
	st := stats.New(statOpts...)

	hostCfg := hostConfigFor(cfg, seeds, logger)

	resolver, err := buildResolver(reg, cfg, logger)
	if err != nil {
		return err
	}

	fetchers, err := buildFetchers(cfg, hostCfg)
	if err != nil {
		return err
	}

	waiter, err := buildWaiter(reg, cfg, hostCfg, logger)
	if err != nil {
		return err
	}

	// Per-host delays ride the wait-time hook so they follow each
	// request to its host, whatever host the crawl assembly picked.
	if hostDelaysConfigured(cfg.HostConfigs) {
		if err := connectHostDelays(reg, cfg.HostConfigs); err != nil {
			return fmt.Errorf("failed to connect host delays: %w", err)
		}
	}

	filters, err := buildFilters(cfg, seeds, hostCfg)
	if err != nil {
		return err
	}

	prioritiser, err := buildPrioritiser(reg, logger)
	if err != nil {
		return err
	}

	processorOpts := []crawl.ProcessorOption{
		crawl.WithFetchers(fetchers...),
		crawl.WithFilters(filters...),
		crawl.WithResolver(resolver),
		crawl.WithPrioritiser(prioritiser),
		crawl.WithWaiter(waiter),
		crawl.WithMaxTries(cfg.MaxTries),
		crawl.WithProcessorLogger(logger),
	}
	if cfg.SaveDir != "" {
		processorOpts = append(processorOpts, crawl.WithSaveDir(cfg.SaveDir))
	}
	processor, err := crawl.NewProcessor(reg, table, st, processorOpts...)
	if err != nil {
		return fmt.Errorf("failed to assemble processor: %w", err)
	}

	sem, err := semaphore.New(cfg.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to assemble worker semaphore: %w", err)
	}

	output, closeOutput, err := reportOutput(cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	statisticsPhase, err := crawl.NewStatisticsPhase(reg, table, st,
		crawl.WithReportWriters(buildReportWriter(cfg, output)),
		crawl.WithStatisticsLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to assemble statistics phase: %w", err)
	}

	phases := []pipeline.Pipeline{
		crawl.NewSeedPhase(table, st, seeds,
			crawl.WithSeedPrioritiser(prioritiser),
			crawl.WithSeedLogger(logger),
		),
		crawl.NewCrawlPhase(processor, table, sem, st,
			crawl.WithCrawlLogger(logger),
		),
		statisticsPhase,
		crawl.NewClosePhase(table),
	}

	engine, err := pipeline.NewEngine(reg, phases, pipeline.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to assemble engine: %w", err)
	}

	application, err := app.New(reg, engine, st, app.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to assemble application: %w", err)
	}

	if status := application.Run(ctx); status != app.ExitOK {
		return &exitCodeError{code: status}
	}
	return nil
}
