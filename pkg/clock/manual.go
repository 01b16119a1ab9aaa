package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a controllable clock for tests. Callbacks run synchronously on
// the goroutine calling Advance, in deadline order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	c       *Manual
	when    time.Time
	seq     uint64
	f       func()
	stopped bool
	fired   bool
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current mocked time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules f to run once Advance passes now+d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{c: m, when: m.now.Add(d), seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves time forward by d, firing every timer that comes due,
// including timers scheduled by callbacks within the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.popDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		if next.when.After(m.now) {
			m.now = next.when
		}
		next.fired = true
		m.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of timers that have neither fired nor stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manual) popDueLocked(target time.Time) *manualTimer {
	if len(m.pending) == 0 {
		return nil
	}
	sort.Slice(m.pending, func(i, j int) bool {
		a, b := m.pending[i], m.pending[j]
		if a.when.Equal(b.when) {
			return a.seq < b.seq
		}
		return a.when.Before(b.when)
	})
	first := m.pending[0]
	if first.when.After(target) {
		return nil
	}
	m.pending = m.pending[1:]
	return first
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	for i, p := range t.c.pending {
		if p == t {
			t.c.pending = append(t.c.pending[:i], t.c.pending[i+1:]...)
			break
		}
	}
	return true
}
