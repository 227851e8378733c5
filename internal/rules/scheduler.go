package rules

import (
	"sync"
	"time"

	"gorm.io/gorm"
)

// DefaultDebounce is how long a pattern has to stay unchanged before its
// preview query is issued. Every preview is a full scan of the transaction
// set, so rapid typing must not trigger a query per keystroke.
const DefaultDebounce = 500 * time.Millisecond

// Scheduler coalesces preview requests per key.
//
// Scheduling a preview for a key supersedes any earlier request for the same
// key: the earlier timer is stopped if it has not fired, and if its query is
// already running, its result is dropped. The caller therefore only ever
// observes the result of the latest request per key.
type Scheduler struct {
	db    *gorm.DB
	delay time.Duration

	mu     sync.Mutex
	seq    map[string]uint64
	timers map[string]*time.Timer
}

// NewScheduler returns a preview scheduler. A delay of zero or less uses
// DefaultDebounce.
func NewScheduler(db *gorm.DB, delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	return &Scheduler{
		db:     db,
		delay:  delay,
		seq:    make(map[string]uint64),
		timers: make(map[string]*time.Timer),
	}
}

// Schedule queues a preview of pattern under key. deliver is called with the
// result after the debounce delay, unless a newer request for the same key
// supersedes this one first.
func (s *Scheduler) Schedule(key, pattern string, limit int, deliver func(Preview, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq[key]++
	current := s.seq[key]

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}

	s.timers[key] = time.AfterFunc(s.delay, func() {
		preview, err := PreviewByPattern(s.db, pattern, limit)

		s.mu.Lock()
		latest := s.seq[key] == current
		if latest {
			delete(s.timers, key)
		}
		s.mu.Unlock()

		// Last write wins, stale results are dropped
		if latest {
			deliver(preview, err)
		}
	})
}

// Cancel drops any pending preview for the key, for example when the
// transaction leaves the review set.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq[key]++
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}
