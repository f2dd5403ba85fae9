// Package database provides SQLite-based storage for the crawl
// frontier.
//
// This package implements the URLTable, which stores one row per
// discovered URL: its lifecycle status, crawl depth, link type,
// checkout priority, and fetch outcome. Checkout order is priority
// descending, then insertion order, so equal-priority URLs crawl
// first-in first-out.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of an
// in-memory frontier or other databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. A persisted frontier lets an interrupted crawl resume
// 4. WAL mode provides good concurrent read performance
package database
