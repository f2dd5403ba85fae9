// Package main provides the entry point for the skitter CLI.
//
// Skitter is a recursive web and FTP crawler. It fetches pages, follows
// their links, mirrors documents to disk, and records every URL it has
// seen in a resumable frontier database.
//
// Usage:
//
//	skitter crawl <url>
//	skitter crawl --input-file <file>
//
// See --help for all available options.
package main

// main is the entry point for skitter.
func main() {
	Execute()
}
