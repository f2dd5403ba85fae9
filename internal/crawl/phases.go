package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skitterhq/skitter/internal/database"
	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/model"
	"github.com/skitterhq/skitter/internal/pipeline"
	"github.com/skitterhq/skitter/internal/report"
	"github.com/skitterhq/skitter/internal/semaphore"
	"github.com/skitterhq/skitter/internal/stats"
	"github.com/skitterhq/skitter/internal/urlfilter"
)

// defaultPoll is how long the checkout loop sleeps when the frontier is
// empty but workers are still running.
const defaultPoll = 100 * time.Millisecond

// Compile-time interface checks.
var (
	_ pipeline.Pipeline = (*SeedPhase)(nil)
	_ pipeline.Pipeline = (*CrawlPhase)(nil)
	_ pipeline.Pipeline = (*StatisticsPhase)(nil)
	_ pipeline.Pipeline = (*ClosePhase)(nil)
)

// SeedPhase primes the frontier for a run: it reclaims URLs orphaned by
// an interrupted run, queues the seed URLs, and starts the crawl clock.
// Seeds skip the filter chain; filters judge them at checkout, so a
// resumed crawl honors the current configuration.
type SeedPhase struct {
	table  *database.URLTable
	stats  *stats.Stats
	prio   *urlfilter.Prioritiser
	seeds  []*model.URLInfo
	logger *slog.Logger
}

// SeedOption configures a SeedPhase.
type SeedOption func(*SeedPhase)

// WithSeedPrioritiser assigns frontier priorities to the seed URLs.
func WithSeedPrioritiser(prio *urlfilter.Prioritiser) SeedOption {
	return func(s *SeedPhase) {
		s.prio = prio
	}
}

// WithSeedLogger sets the logger.
func WithSeedLogger(logger *slog.Logger) SeedOption {
	return func(s *SeedPhase) {
		s.logger = logger
	}
}

// NewSeedPhase creates a SeedPhase queuing the given URLs.
func NewSeedPhase(table *database.URLTable, st *stats.Stats, seeds []*model.URLInfo, opts ...SeedOption) *SeedPhase {
	s := &SeedPhase{
		table:  table,
		stats:  st,
		seeds:  seeds,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process reclaims orphaned URLs, queues the seeds, and starts the
// clock.
func (s *SeedPhase) Process(ctx context.Context) error {
	reclaimed, err := s.table.Release(ctx)
	if err != nil {
		return fmt.Errorf("reclaim in-progress urls: %w", err)
	}
	if reclaimed > 0 {
		s.logger.Info("reclaimed urls from a previous run", "count", reclaimed)
	}

	records := make([]*model.URLRecord, 0, len(s.seeds))
	for _, seed := range s.seeds {
		record := &model.URLRecord{
			URL:      seed.Raw,
			RootURL:  seed.Raw,
			Status:   model.StatusTodo,
			LinkType: model.LinkTypeHTML,
		}
		if s.prio != nil {
			record.Priority = s.prio.Priority(ctx, seed, record)
		}
		records = append(records, record)
	}
	added, err := s.table.Add(ctx, records...)
	if err != nil {
		return fmt.Errorf("queue seed urls: %w", err)
	}
	s.logger.Info("seeded frontier", "seeds", len(s.seeds), "added", added)

	s.stats.Start()
	return nil
}

// Name returns the phase name.
func (s *SeedPhase) Name() string { return "seed" }

// Skippable reports that seeding may be skipped while stopping.
func (s *SeedPhase) Skippable() bool { return true }

// Stop is a no-op; seeding is quick and not worth interrupting.
func (s *SeedPhase) Stop() {}

// CrawlPhase drains the frontier. The checkout loop takes a concurrency
// permit, checks a URL out, and hands it to a worker goroutine; the
// loop ends when the frontier is empty and no worker is running, or
// when a stop is requested.
//
// Design decision: The semaphore is taken before the checkout rather
// than around the fetch because:
//  1. A lowered maximum must stop URLs leaving the frontier, not just
//     stop them being fetched
//  2. A checked-out URL waiting for a permit would sit in limbo,
//     invisible to the loop's empty-frontier exit test
//  3. errgroup's SetLimit is fixed at startup; the semaphore is the one
//     concurrency authority, and hooks may move its ceiling mid-run
type CrawlPhase struct {
	processor *Processor
	table     *database.URLTable
	sem       *semaphore.Semaphore
	stats     *stats.Stats
	poll      time.Duration
	logger    *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// CrawlOption configures a CrawlPhase.
type CrawlOption func(*CrawlPhase)

// WithCrawlPoll sets the idle poll interval of the checkout loop.
func WithCrawlPoll(d time.Duration) CrawlOption {
	return func(c *CrawlPhase) {
		if d > 0 {
			c.poll = d
		}
	}
}

// WithCrawlLogger sets the logger.
func WithCrawlLogger(logger *slog.Logger) CrawlOption {
	return func(c *CrawlPhase) {
		c.logger = logger
	}
}

// NewCrawlPhase creates a CrawlPhase over the given frontier and
// processor. The semaphore bounds how many URLs are in flight at once.
func NewCrawlPhase(processor *Processor, table *database.URLTable, sem *semaphore.Semaphore, st *stats.Stats, opts ...CrawlOption) *CrawlPhase {
	c := &CrawlPhase{
		processor: processor,
		table:     table,
		sem:       sem,
		stats:     st,
		poll:      defaultPoll,
		logger:    slog.Default(),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process runs the checkout loop until the frontier drains or a stop
// is requested, then waits for in-flight workers to finish.
func (c *CrawlPhase) Process(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	var inflight atomic.Int64
	idle := false

	for {
		if err := c.sem.Acquire(ctx); err != nil {
			if werr := g.Wait(); werr != nil {
				return werr
			}
			return err
		}

		// The halt test runs after the permit wait so a stop that landed
		// while this loop was blocked is seen before more work leaves
		// the frontier.
		if reason := c.haltReason(); reason != "" {
			c.release()
			c.logger.Info("halting checkout", "reason", reason)
			break
		}

		record, err := c.table.CheckOut(ctx)
		if errors.Is(err, database.ErrFrontierEmpty) {
			c.release()

			// One empty read is not the end: a worker that finished
			// between the read and this check may have queued children.
			// Only a second empty read with no workers running means the
			// frontier is drained.
			if inflight.Load() == 0 {
				if idle {
					break
				}
				idle = true
				continue
			}

			select {
			case <-ctx.Done():
				if werr := g.Wait(); werr != nil {
					return werr
				}
				return ctx.Err()
			case <-c.stop:
			case <-time.After(c.poll):
			}
			continue
		}
		if err != nil {
			c.release()
			if werr := g.Wait(); werr != nil {
				return werr
			}
			return fmt.Errorf("check out url: %w", err)
		}
		idle = false

		inflight.Add(1)
		g.Go(func() error {
			defer c.release()
			defer inflight.Add(-1)

			// Don't start new work if the run was cancelled; the record
			// stays checked out and the next run reclaims it.
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			return c.processor.ProcessOne(ctx, record)
		})
	}

	return g.Wait()
}

// haltReason reports why the checkout loop should end, or "" to keep
// going. All three halts are graceful: running workers finish.
func (c *CrawlPhase) haltReason() string {
	select {
	case <-c.stop:
		return "stop requested"
	default:
	}
	if c.processor.Stopped() {
		return "callback verdict"
	}
	if c.stats.QuotaExceeded() {
		return "download quota reached"
	}
	return ""
}

// release returns a concurrency permit. An over-release is unbalanced
// bookkeeping and worth a loud log line.
func (c *CrawlPhase) release() {
	if err := c.sem.Release(); err != nil {
		c.logger.Error("semaphore bookkeeping error", "error", err)
	}
}

// Name returns the phase name.
func (c *CrawlPhase) Name() string { return "crawl" }

// Skippable reports that crawling may be skipped while stopping.
func (c *CrawlPhase) Skippable() bool { return true }

// Stop ends the checkout loop after in-flight fetches complete. Safe to
// call more than once.
func (c *CrawlPhase) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("finishing in-flight fetches before stopping")
		close(c.stop)
	})
}

// StatisticsPhase closes the books on a run: it stops the crawl clock,
// announces the final snapshot on the finishing-statistics event, and
// renders the summary through the configured report writers. It is not
// skippable; an interrupted crawl still reports what it did.
type StatisticsPhase struct {
	reg     *hook.Registry
	table   *database.URLTable
	stats   *stats.Stats
	writers []report.Writer
	logger  *slog.Logger
}

// StatisticsOption configures a StatisticsPhase.
type StatisticsOption func(*StatisticsPhase)

// WithReportWriters sets the writers the summary is rendered through.
func WithReportWriters(writers ...report.Writer) StatisticsOption {
	return func(s *StatisticsPhase) {
		s.writers = writers
	}
}

// WithStatisticsLogger sets the logger.
func WithStatisticsLogger(logger *slog.Logger) StatisticsOption {
	return func(s *StatisticsPhase) {
		s.logger = logger
	}
}

// NewStatisticsPhase creates a StatisticsPhase. It registers the
// finishing-statistics event on reg.
func NewStatisticsPhase(reg *hook.Registry, table *database.URLTable, st *stats.Stats, opts ...StatisticsOption) (*StatisticsPhase, error) {
	s := &StatisticsPhase{
		reg:    reg,
		table:  table,
		stats:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := reg.Events.Register(hook.FinishingStatistics); err != nil {
		return nil, fmt.Errorf("register %s event: %w", hook.FinishingStatistics, err)
	}
	return s, nil
}

// Process stops the clock, announces the snapshot, and writes the
// summary. A failing report writer is logged, not fatal; a failing
// listener ends the run.
func (s *StatisticsPhase) Process(ctx context.Context) error {
	s.stats.Stop()
	snap := s.stats.Snapshot()

	counts, err := s.table.Counts(ctx)
	if err != nil {
		s.logger.Warn("failed to count frontier rows", "error", err)
	}

	if err := s.reg.Events.Notify(ctx, hook.FinishingStatistics, &snap); err != nil {
		return fmt.Errorf("finishing-statistics listener: %w", err)
	}

	summary := &report.Summary{Stats: snap, Counts: counts}
	for _, w := range s.writers {
		if _, err := w.Write(summary); err != nil {
			s.logger.Warn("failed to write summary", "error", err)
		}
	}

	s.logger.Info("crawl finished",
		"duration", snap.Duration.Round(time.Millisecond),
		"files", snap.Files,
		"bytes", snap.Bytes,
		"errors", summary.TotalErrors())
	return nil
}

// Name returns the phase name.
func (s *StatisticsPhase) Name() string { return "statistics" }

// Skippable reports that statistics always run.
func (s *StatisticsPhase) Skippable() bool { return false }

// Stop is a no-op.
func (s *StatisticsPhase) Stop() {}

// ClosePhase releases the frontier database. It always runs, even
// during a graceful stop, so the journal is checkpointed cleanly.
type ClosePhase struct {
	table *database.URLTable
}

// NewClosePhase creates a ClosePhase for the given table.
func NewClosePhase(table *database.URLTable) *ClosePhase {
	return &ClosePhase{table: table}
}

// Process closes the frontier database.
func (c *ClosePhase) Process(_ context.Context) error {
	if err := c.table.Close(); err != nil {
		return fmt.Errorf("close url table: %w", err)
	}
	return nil
}

// Name returns the phase name.
func (c *ClosePhase) Name() string { return "close" }

// Skippable reports that cleanup always runs.
func (c *ClosePhase) Skippable() bool { return false }

// Stop is a no-op.
func (c *ClosePhase) Stop() {}
