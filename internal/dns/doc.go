// Package dns resolves crawl hostnames. The resolver layers a hostname
// override hook, a bounded FIFO cache, per-family queries against
// configured DNS servers, and a one-shot system-resolver fallback. It
// distinguishes "the name resolves to nothing" (DNSNotFoundError) from
// "the network broke while asking" (NetworkError) because the two drive
// different retry decisions and exit codes.
package dns
