// Package cache provides a small bounded cache with first-in-first-out
// eviction and lazy time-to-live expiry. The resolver uses it to hold
// recent lookups; eviction order deliberately ignores access patterns so
// cached entries age out predictably.
package cache
