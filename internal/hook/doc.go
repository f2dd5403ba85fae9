// Package hook provides the crawl engine's named extension points.
// A hook is a single-slot callback that owns a decision (at most one
// callback, calling an empty slot is an error). An event is a broadcast
// notification with any number of listeners (notifying with none is a
// no-op). The set of valid names is a closed catalog checked at
// registration time.
package hook
