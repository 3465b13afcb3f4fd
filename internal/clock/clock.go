// Package clock provides the Scheduler implementations behind all
// time-driven behavior: the real one for production and a manually
// advanced one so tests can simulate time without sleeping.
package clock

import (
	"sync"
	"time"

	"github.com/platewise/cookalong/internal/domain"
)

// System returns a Scheduler backed by the runtime clock.
func System() domain.Scheduler { return systemScheduler{} }

type systemScheduler struct{}

var _ domain.Scheduler = systemScheduler{}

func (systemScheduler) Now() time.Time { return time.Now() }

func (systemScheduler) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Manual is a Scheduler whose time only moves when Advance is called.
// Due callbacks run synchronously on the Advance caller's goroutine,
// in deadline order, so tests observe every intermediate state without
// real delays. Safe for concurrent use.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*job
}

type job struct {
	at  time.Time
	seq int
	fn  func()
}

var _ domain.Scheduler = (*Manual)(nil)

// NewManual creates a manual scheduler starting at the current wall
// clock time.
func NewManual() *Manual {
	return &Manual{now: time.Now()}
}

// Now returns the simulated current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set repositions the simulated clock without firing callbacks.
// Scheduled jobs keep their deadlines; use Advance to run them.
func (m *Manual) Set(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AfterFunc schedules f to run when the simulated clock reaches now+d.
// The returned cancel removes the job if it has not run yet.
func (m *Manual) AfterFunc(d time.Duration, f func()) func() {
	m.mu.Lock()
	j := &job{at: m.now.Add(d), seq: m.seq, fn: f}
	m.seq++
	m.pending = append(m.pending, j)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, p := range m.pending {
			if p == j {
				m.pending = append(m.pending[:i], m.pending[i+1:]...)
				return
			}
		}
	}
}

// Pending returns the number of scheduled jobs that have not fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the simulated clock forward by d, running every due
// callback in deadline order (FIFO within the same deadline). Callbacks
// run without the scheduler lock held, so they may schedule or cancel
// further jobs; jobs they schedule inside the advanced window run too.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		j := m.popDue(target)
		if j == nil {
			return
		}
		j.fn()
	}
}

// popDue removes and returns the earliest job due at or before target,
// moving the clock to its deadline. When no job is due the clock jumps
// to target and nil is returned.
func (m *Manual) popDue(target time.Time) *job {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, p := range m.pending {
		if p.at.After(target) {
			continue
		}
		if idx == -1 || p.at.Before(m.pending[idx].at) ||
			(p.at.Equal(m.pending[idx].at) && p.seq < m.pending[idx].seq) {
			idx = i
		}
	}
	if idx == -1 {
		m.now = target
		return nil
	}

	j := m.pending[idx]
	m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
	if j.at.After(m.now) {
		m.now = j.at
	}
	return j
}
