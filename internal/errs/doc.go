// Package errs defines the crawl error taxonomy shared by the resolver,
// the fetchers, the statistics counters, and the exit-code policy.
// Errors are classified into a small set of categories that map onto
// wget-compatible exit codes.
package errs
