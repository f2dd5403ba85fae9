package stats

import (
	"maps"
	"sync"
	"time"

	"github.com/skitterhq/skitter/internal/errs"
)

// Stats tracks counters for one crawl run.
type Stats struct {
	mu        sync.Mutex
	startTime time.Time
	stopTime  time.Time
	files     int64
	bytes     int64
	errors    map[errs.Category]int64
	quota     int64

	now func() time.Time
}

// Option configures a Stats.
type Option func(*Stats)

// WithQuota stops the crawl once the total downloaded size reaches
// bytes. Zero means unlimited.
func WithQuota(bytes int64) Option {
	return func(s *Stats) { s.quota = bytes }
}

// New returns an empty Stats.
func New(opts ...Option) *Stats {
	s := &Stats{
		errors: make(map[errs.Category]int64),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start records the crawl start time.
func (s *Stats) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = s.now()
}

// Stop records the crawl stop time.
func (s *Stats) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTime = s.now()
}

// AddFile counts one fetched document of the given size in bytes.
func (s *Stats) AddFile(size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files++
	if size > 0 {
		s.bytes += size
	}
}

// AddError tallies err under its category. Uncategorized errors count
// as generic.
func (s *Stats) AddError(err error) {
	category := errs.Categorize(err)
	if category == errs.CategoryNone {
		category = errs.CategoryGeneric
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[category]++
}

// QuotaExceeded reports whether the downloaded size has reached the
// configured quota. Always false without a quota.
func (s *Stats) QuotaExceeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quota > 0 && s.bytes >= s.quota
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	// StartTime is when the crawl started; zero if it never did.
	StartTime time.Time `json:"start_time"`

	// StopTime is when the crawl stopped; zero while it runs.
	StopTime time.Time `json:"stop_time"`

	// Duration is StopTime minus StartTime, or time since start for a
	// crawl still running.
	Duration time.Duration `json:"duration"`

	// Files is the number of fetched documents.
	Files int64 `json:"files"`

	// Bytes is the total size of fetched documents.
	Bytes int64 `json:"bytes"`

	// Errors maps error categories to occurrence counts.
	Errors map[errs.Category]int64 `json:"errors"`
}

// Snapshot returns a copy of the current counters. The returned value
// shares no state with the Stats.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		StartTime: s.startTime,
		StopTime:  s.stopTime,
		Files:     s.files,
		Bytes:     s.bytes,
		Errors:    make(map[errs.Category]int64, len(s.errors)),
	}
	maps.Copy(snap.Errors, s.errors)

	switch {
	case s.startTime.IsZero():
	case s.stopTime.IsZero():
		snap.Duration = s.now().Sub(s.startTime)
	default:
		snap.Duration = s.stopTime.Sub(s.startTime)
	}
	return snap
}
