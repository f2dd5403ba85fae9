package semaphore

import (
	"container/list"
	"context"
	"errors"
	"sync"
)

// Semaphore errors.
var (
	// ErrNegativeMax is returned when the requested maximum is negative.
	// Zero is valid and means no permits are available until raised.
	ErrNegativeMax = errors.New("invalid maximum: must be non-negative")

	// ErrTimeout is returned by Acquire when the context deadline expires
	// before a permit becomes available.
	ErrTimeout = errors.New("timed out waiting for a permit")

	// ErrOverRelease is returned by Release when no permit is held.
	// Releasing more than was acquired indicates unbalanced bookkeeping
	// in the caller, never a condition to paper over.
	ErrOverRelease = errors.New("release without a held permit")
)

// Semaphore is an adjustable counting semaphore. Waiters queue in FIFO
// order; SetMax takes effect immediately for future acquisitions and
// never revokes permits already held, so the held count may transiently
// exceed a lowered maximum until permits drain back.
//
// Design decision: golang.org/x/sync/semaphore fixes its capacity at
// construction. The crawl engine must honor concurrency changes made by
// a hook mid-run, so this implementation keeps the same waiter-list
// discipline but lets the ceiling move.
type Semaphore struct {
	mu       sync.Mutex
	max      int
	acquired int
	waiters  list.List
}

// New returns a Semaphore admitting at most max concurrent holders.
func New(max int) (*Semaphore, error) {
	if max < 0 {
		return nil, ErrNegativeMax
	}
	return &Semaphore{max: max}, nil
}

// Acquire blocks until a permit is available or ctx ends. A deadline
// expiry is reported as ErrTimeout; a plain cancellation returns
// ctx.Err(). Permits are granted in request order.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return acquireErr(err)
	}

	s.mu.Lock()
	if s.acquired < s.max && s.waiters.Len() == 0 {
		s.acquired++
		s.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	elem := s.waiters.PushBack(ready)
	s.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		select {
		case <-ready:
			// Granted while cancelling: give the permit back and
			// pass it to the next waiter.
			s.acquired--
			s.wake()
		default:
			s.waiters.Remove(elem)
		}
		s.mu.Unlock()
		return acquireErr(ctx.Err())
	}
}

// TryAcquire takes a permit without blocking and reports whether it got
// one. Queued waiters keep their place: TryAcquire never jumps the line.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquired < s.max && s.waiters.Len() == 0 {
		s.acquired++
		return true
	}
	return false
}

// Release returns a permit. Releasing when nothing is held fails with
// ErrOverRelease.
func (s *Semaphore) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquired == 0 {
		return ErrOverRelease
	}
	s.acquired--
	s.wake()
	return nil
}

// SetMax changes the maximum. Raising it wakes queued waiters that now
// fit; lowering it only constrains future acquisitions.
func (s *Semaphore) SetMax(max int) error {
	if max < 0 {
		return ErrNegativeMax
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.max = max
	s.wake()
	return nil
}

// Max returns the current maximum.
func (s *Semaphore) Max() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

// InUse returns the number of permits currently held.
func (s *Semaphore) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}

// Waiting returns the number of queued acquirers.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Len()
}

// wake grants permits to queued waiters while capacity allows.
// The caller must hold s.mu.
func (s *Semaphore) wake() {
	for s.waiters.Len() > 0 && s.acquired < s.max {
		front := s.waiters.Front()
		s.waiters.Remove(front)
		s.acquired++
		close(front.Value.(chan struct{}))
	}
}

// acquireErr maps a context error to the semaphore's failure vocabulary.
func acquireErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
