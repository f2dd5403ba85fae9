// Package stats accumulates crawl statistics: wall-clock span, fetched
// file and byte counts, and error tallies keyed by error category.
//
// A single Stats value is shared by the fetch workers and read by the
// runner when the crawl ends, so all methods are safe for concurrent
// use. The runner folds the error tally into the process exit code and
// the report writers render the snapshot; neither mutates it.
package stats
