// Package model defines the core data structures shared across the
// crawler.
//
// This package contains the following main types:
//   - URLInfo: A parsed, normalized crawl URL
//   - URLRecord: One frontier entry with its lifecycle status
//   - URLStatus: The frontier lifecycle vocabulary
//   - LinkType: How a URL was discovered, for depth accounting
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. Multiple packages (database, crawl, scrape,
// urlfilter, fetch) need these types, so centralizing them prevents
// import cycles.
//
// The models are designed to be serializable to JSON for report output
// and database storage.
package model
