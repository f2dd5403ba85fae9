// Package urlfilter decides which discovered URLs join the crawl and at
// what priority. Filters are composable predicates over a parsed URL and
// its frontier record; the Prioritiser consults the get-priority hook
// first and falls back to an ordered list of (filter, priority) rules.
package urlfilter
