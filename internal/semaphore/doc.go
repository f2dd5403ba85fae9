// Package semaphore provides a counting semaphore whose maximum can be
// adjusted while permits are held. The crawl engine uses it to gate
// concurrent fetches, and a connected hook may raise or lower the limit
// mid-crawl without disturbing work already in flight.
package semaphore
