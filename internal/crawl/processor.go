package crawl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/skitterhq/skitter/internal/database"
	"github.com/skitterhq/skitter/internal/dns"
	"github.com/skitterhq/skitter/internal/errs"
	"github.com/skitterhq/skitter/internal/fetch"
	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/model"
	"github.com/skitterhq/skitter/internal/scrape"
	"github.com/skitterhq/skitter/internal/stats"
	"github.com/skitterhq/skitter/internal/urlfilter"
)

// DefaultMaxTries is how many fetch attempts a URL gets before its
// record is marked failed.
const DefaultMaxTries = 20

// InjectFunc adds one URL to the frontier on behalf of a get-urls
// listener. Injected URLs are trusted: they are parsed and recorded but
// not run through the filter chain.
type InjectFunc func(rawURL string) error

// Processor runs one checked-out URL through its full lifecycle:
// acceptance, resolution, politeness wait, fetch, verdict handling,
// document saving, scraping, and check-in.
//
// Design decision: The processor absorbs item-level failures into the
// statistics and the frontier instead of returning them because:
//  1. One bad URL must never abort a crawl of thousands
//  2. The retry budget lives in the frontier record, so a failed fetch
//     is bookkeeping, not control flow
//  3. Only infrastructure failures (frontier unavailable, run canceled)
//     stop the run, and those are the errors ProcessOne returns
type Processor struct {
	reg      *hook.Registry
	table    *database.URLTable
	stats    *stats.Stats
	fetchers map[string]fetch.Fetcher
	filters  []urlfilter.Filter
	resolver *dns.Resolver
	prio     *urlfilter.Prioritiser
	waiter   *fetch.Waiter
	saveDir  string
	maxTries int
	logger   *slog.Logger
	stopped  atomic.Bool
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithFetchers sets the fetchers, indexed by the schemes they serve.
func WithFetchers(fetchers ...fetch.Fetcher) ProcessorOption {
	return func(p *Processor) {
		for _, f := range fetchers {
			for _, scheme := range f.Schemes() {
				p.fetchers[scheme] = f
			}
		}
	}
}

// WithFilters sets the filter chain applied to checked-out and
// discovered URLs. Every filter must pass.
func WithFilters(filters ...urlfilter.Filter) ProcessorOption {
	return func(p *Processor) {
		p.filters = filters
	}
}

// WithResolver enables a pre-fetch resolution check.
func WithResolver(resolver *dns.Resolver) ProcessorOption {
	return func(p *Processor) {
		p.resolver = resolver
	}
}

// WithPrioritiser assigns frontier priorities to discovered URLs.
func WithPrioritiser(prio *urlfilter.Prioritiser) ProcessorOption {
	return func(p *Processor) {
		p.prio = prio
	}
}

// WithWaiter enables the politeness pause before each fetch.
func WithWaiter(waiter *fetch.Waiter) ProcessorOption {
	return func(p *Processor) {
		p.waiter = waiter
	}
}

// WithSaveDir writes fetched documents under dir, mirroring each URL's
// host and path. Empty keeps documents in memory only.
func WithSaveDir(dir string) ProcessorOption {
	return func(p *Processor) {
		p.saveDir = dir
	}
}

// WithMaxTries sets the per-URL fetch attempt budget.
func WithMaxTries(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxTries = n
		}
	}
}

// WithProcessorLogger sets the logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a Processor. It registers the accept-url,
// handle-pre-response, handle-response, and handle-error hooks and the
// get-urls event on reg. At least one fetcher is required.
func NewProcessor(reg *hook.Registry, table *database.URLTable, st *stats.Stats, opts ...ProcessorOption) (*Processor, error) {
	p := &Processor{
		reg:      reg,
		table:    table,
		stats:    st,
		fetchers: make(map[string]fetch.Fetcher),
		maxTries: DefaultMaxTries,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.fetchers) == 0 {
		return nil, fmt.Errorf("processor needs at least one fetcher")
	}

	for _, name := range []hook.Name{
		hook.AcceptURL,
		hook.HandlePreResponse,
		hook.HandleResponse,
		hook.HandleError,
	} {
		if err := reg.Hooks.Register(name); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	if err := reg.Events.Register(hook.GetURLs); err != nil {
		return nil, fmt.Errorf("register %s: %w", hook.GetURLs, err)
	}
	return p, nil
}

// Stopped reports whether a callback verdict asked the crawl to wind
// down.
func (p *Processor) Stopped() bool {
	return p.stopped.Load()
}

// ProcessOne takes a checked-out record through acceptance, fetch, and
// check-in. It returns an error only when the run cannot continue: the
// context ended or the frontier is unreachable. On cancellation the
// record stays checked out so the next run reclaims it.
func (p *Processor) ProcessOne(ctx context.Context, record *model.URLRecord) error {
	info, err := model.ParseURL(record.URL)
	if err != nil {
		p.logger.Warn("dropping unparsable frontier url", "url", record.URL, "error", err)
		return p.table.CheckIn(ctx, record, model.StatusSkipped)
	}

	fetcher, ok := p.fetchers[info.Scheme]
	if !ok {
		p.logger.Debug("no fetcher for scheme", "url", record.URL, "scheme", info.Scheme)
		return p.table.CheckIn(ctx, record, model.StatusSkipped)
	}

	if !p.accept(ctx, info, record) {
		p.logger.Debug("url rejected", "url", record.URL)
		return p.table.CheckIn(ctx, record, model.StatusSkipped)
	}

	if err := p.preResolve(ctx, info); err != nil {
		return p.finishError(ctx, info, record, err)
	}

	if p.waiter != nil {
		if err := p.waiter.Wait(ctx, record); err != nil {
			return err
		}
	}

	resp, verdict, err := p.fetchURL(ctx, fetcher, info, record)
	if err != nil {
		return p.finishError(ctx, info, record, err)
	}

	record.StatusCode = resp.StatusCode
	if verdict == VerdictNormal {
		verdict = p.verdictFor(ctx, hook.HandleResponse, VerdictNormal, info.Clone(), resp)
	}

	switch verdict {
	case VerdictRetry:
		return p.retryOrFail(ctx, record)
	case VerdictFinish:
		return p.table.CheckIn(ctx, record, model.StatusDone)
	case VerdictStop:
		p.logger.Info("stop requested by callback", "url", record.URL)
		p.stopped.Store(true)
		return p.table.CheckIn(ctx, record, model.StatusDone)
	}
	return p.completeFetch(ctx, info, record, resp)
}

// fetchURL runs the fetch with the handle-pre-response hook wired into
// the metadata point. A non-normal pre-response verdict skips the body
// and is returned for the caller to act on.
func (p *Processor) fetchURL(ctx context.Context, fetcher fetch.Fetcher, info *model.URLInfo, record *model.URLRecord) (*fetch.Response, Verdict, error) {
	verdict := VerdictNormal
	pre := func(ctx context.Context, resp *fetch.Response) error {
		verdict = p.verdictFor(ctx, hook.HandlePreResponse, VerdictNormal, info.Clone(), resp)
		if verdict == VerdictNormal {
			return nil
		}
		return fetch.ErrSkipBody
	}

	p.logger.Debug("fetching url", "url", record.URL, "try", record.TryCount+1)
	resp, err := fetcher.Fetch(ctx, info, pre)
	if err != nil {
		return nil, VerdictNormal, err
	}
	return resp, verdict, nil
}

// completeFetch handles a response under the normal verdict: error
// documents are counted and consumed, everything else is saved,
// scraped, and marked done.
func (p *Processor) completeFetch(ctx context.Context, info *model.URLInfo, record *model.URLRecord, resp *fetch.Response) error {
	if resp.StatusCode >= 400 {
		p.stats.AddError(&errs.ServerError{StatusCode: resp.StatusCode, URL: info.Raw})
		p.logger.Debug("document error", "url", info.Raw, "status", resp.StatusCode)
		return p.table.CheckIn(ctx, record, model.StatusError)
	}

	if p.saveDir != "" && resp.Body != nil {
		filename, err := p.save(info, resp.Body)
		if err != nil {
			p.stats.AddError(err)
			p.logger.Warn("failed to save document", "url", info.Raw, "error", err)
			return p.table.CheckIn(ctx, record, model.StatusError)
		}
		record.Filename = filename
	}

	p.stats.AddFile(resp.Size)

	if len(resp.Body) > 0 && scrape.IsHTML(resp.ContentType) {
		p.scrapeAndEnqueue(ctx, info, record, resp)
	}
	p.notifyGetURLs(ctx, info, record)

	return p.table.CheckIn(ctx, record, model.StatusDone)
}

// finishError settles a failed item: count the error, consult the
// handle-error hook, and retry or consume the record per the verdict.
// Cancellation is not a failure; the record is left checked out.
func (p *Processor) finishError(ctx context.Context, info *model.URLInfo, record *model.URLRecord, fetchErr error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	p.stats.AddError(fetchErr)
	p.logger.Debug("fetch failed",
		"url", record.URL,
		"category", errs.Categorize(fetchErr).String(),
		"error", fetchErr)

	verdict := p.verdictFor(ctx, hook.HandleError, defaultErrorVerdict(fetchErr), info.Clone(), fetchErr)
	switch verdict {
	case VerdictRetry:
		return p.retryOrFail(ctx, record)
	case VerdictFinish:
		return p.table.CheckIn(ctx, record, model.StatusDone)
	case VerdictStop:
		p.logger.Info("stop requested by callback", "url", record.URL)
		p.stopped.Store(true)
		return p.table.CheckIn(ctx, record, model.StatusError)
	default:
		return p.table.CheckIn(ctx, record, model.StatusError)
	}
}

// defaultErrorVerdict maps a failure to its retry default. Transient
// transport failures retry; failures that will not heal within a crawl
// (bad name, bad certificate, rejected credentials) consume the URL.
func defaultErrorVerdict(err error) Verdict {
	switch errs.Categorize(err) {
	case errs.CategoryNetwork, errs.CategoryServer, errs.CategoryProtocol:
		return VerdictRetry
	default:
		return VerdictNormal
	}
}

// retryOrFail re-queues the record while attempts remain, and marks it
// failed once the try budget is spent. Check-in counts the attempt.
func (p *Processor) retryOrFail(ctx context.Context, record *model.URLRecord) error {
	if record.TryCount+1 >= p.maxTries {
		p.logger.Warn("retries exhausted", "url", record.URL, "tries", record.TryCount+1)
		return p.table.CheckIn(ctx, record, model.StatusError)
	}
	return p.table.CheckIn(ctx, record, model.StatusTodo)
}

// accept runs the filter chain and gives a connected accept-url hook
// the final say. Hook failures fall back to the filter verdict.
func (p *Processor) accept(ctx context.Context, info *model.URLInfo, record *model.URLRecord) bool {
	verdict := p.passesFilters(info, record)
	if !p.reg.Hooks.IsConnected(hook.AcceptURL) {
		return verdict
	}
	value, err := p.reg.Hooks.Call(ctx, hook.AcceptURL, info.Clone(), record.Clone())
	if err != nil {
		p.logger.Warn("accept-url hook failed", "url", info.Raw, "error", err)
		return verdict
	}
	if decision, ok := value.(bool); ok {
		return decision
	}
	return verdict
}

// passesFilters reports whether every configured filter admits the URL.
func (p *Processor) passesFilters(info *model.URLInfo, record *model.URLRecord) bool {
	for _, f := range p.filters {
		if !f.Test(info, record) {
			return false
		}
	}
	return true
}

// preResolve fails fast when the hostname does not resolve. Address
// literals and resolver-less processors skip the check.
func (p *Processor) preResolve(ctx context.Context, info *model.URLInfo) error {
	if p.resolver == nil || net.ParseIP(info.Host) != nil {
		return nil
	}
	_, err := p.resolver.Resolve(ctx, info.Host)
	return err
}

// verdictFor consults the named hook and parses its verdict string.
// A disconnected hook, a hook failure, a nil return, or an unknown
// verdict all fall back to the given default.
func (p *Processor) verdictFor(ctx context.Context, name hook.Name, fallback Verdict, args ...any) Verdict {
	if !p.reg.Hooks.IsConnected(name) {
		return fallback
	}
	value, err := p.reg.Hooks.Call(ctx, name, args...)
	if err != nil {
		p.logger.Warn("hook failed", "hook", string(name), "error", err)
		return fallback
	}
	if value == nil {
		return fallback
	}
	s, ok := value.(string)
	if !ok {
		p.logger.Warn("hook returned a non-string verdict", "hook", string(name))
		return fallback
	}
	verdict, err := ParseVerdict(s)
	if err != nil {
		p.logger.Warn("hook returned an unknown verdict", "hook", string(name), "verdict", s)
		return fallback
	}
	return verdict
}

// scrapeAndEnqueue extracts links from an HTML body and adds the ones
// that pass the filter chain to the frontier.
func (p *Processor) scrapeAndEnqueue(ctx context.Context, info *model.URLInfo, record *model.URLRecord, resp *fetch.Response) {
	scraper, err := scrape.NewScraper(info.Raw)
	if err != nil {
		p.logger.Warn("failed to create scraper", "url", info.Raw, "error", err)
		return
	}
	result, err := scraper.Scrape(bytes.NewReader(resp.Body))
	if err != nil {
		p.logger.Debug("scrape failed", "url", info.Raw, "error", err)
		return
	}

	children := make([]*model.URLRecord, 0, len(result.Links))
	for _, link := range result.Links {
		childInfo, child := p.buildChild(ctx, record, link.URL, link.Type)
		if child == nil || !p.passesFilters(childInfo, child) {
			continue
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return
	}

	added, err := p.table.Add(ctx, children...)
	if err != nil {
		p.logger.Warn("failed to enqueue discovered urls", "url", info.Raw, "error", err)
		return
	}
	p.logger.Debug("enqueued discovered urls",
		"url", info.Raw,
		"found", len(result.Links),
		"added", added)
}

// buildChild constructs the frontier record for a URL discovered on
// parent. Page links advance the crawl level; requisites advance the
// inline level too. Returns nils when the URL does not parse.
func (p *Processor) buildChild(ctx context.Context, parent *model.URLRecord, rawURL string, linkType model.LinkType) (*model.URLInfo, *model.URLRecord) {
	info, err := model.ParseURL(rawURL)
	if err != nil {
		return nil, nil
	}
	child := &model.URLRecord{
		URL:       info.Raw,
		ParentURL: parent.URL,
		RootURL:   parent.RootURL,
		Status:    model.StatusTodo,
		Level:     parent.Level + 1,
		LinkType:  linkType,
	}
	if child.RootURL == "" {
		child.RootURL = parent.URL
	}
	if linkType.IsInline() {
		child.InlineLevel = parent.InlineLevel + 1
	}
	if p.prio != nil {
		child.Priority = p.prio.Priority(ctx, info, child)
	}
	return info, child
}

// notifyGetURLs invites listeners to inject follow-up URLs for a
// completed item.
func (p *Processor) notifyGetURLs(ctx context.Context, info *model.URLInfo, record *model.URLRecord) {
	inject := InjectFunc(func(rawURL string) error {
		_, child := p.buildChild(ctx, record, rawURL, model.LinkTypeHTML)
		if child == nil {
			return fmt.Errorf("unparsable injected url %q", rawURL)
		}
		_, err := p.table.Add(ctx, child)
		return err
	})
	if err := p.reg.Events.Notify(ctx, hook.GetURLs, info.Clone(), inject); err != nil {
		p.logger.Warn("get-urls listener failed", "url", info.Raw, "error", err)
	}
}
