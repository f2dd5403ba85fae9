// Package crawl contains the phases of a crawl run and the per-URL
// processor they share.
//
// A run is four phases executed by the pipeline engine in order:
//
//   - SeedPhase reclaims interrupted work and queues the seed URLs
//   - CrawlPhase drains the frontier through a bounded worker pool
//   - StatisticsPhase reports what happened
//   - ClosePhase releases the frontier database
//
// The Processor is where one URL becomes one document: acceptance
// filtering, hostname resolution, the politeness wait, the fetch,
// verdict handling, document saving, and link discovery. Callbacks
// steer individual items by returning a Verdict; "retry" re-queues the
// URL, "finish" consumes it, and "stop" winds the whole crawl down
// after in-flight work completes.
//
// Item-level failures never end a run. They are counted, the frontier
// record is settled, and the loop moves on; only infrastructure
// failures (an unreachable frontier, a cancelled context) propagate.
package crawl
