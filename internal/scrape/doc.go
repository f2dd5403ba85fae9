// Package scrape extracts follow-up URLs from fetched documents.
//
// The HTML scraper walks the parsed DOM, resolves every reference
// against the page URL (honoring the first <base href>), and labels each
// result with the model.LinkType the crawl uses for depth accounting.
// Page links advance the crawl level; requisites (stylesheets, scripts,
// media) advance the inline level instead so a page renders completely
// even when it sits at the depth limit.
package scrape
