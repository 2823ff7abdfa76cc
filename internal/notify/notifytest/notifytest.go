// Package notifytest provides a manual clock and a recording surface for
// tests that drive notifications and delayed redirects.
package notifytest

import (
	"sort"
	"sync"
	"time"

	"storefront/internal/notify"
)

type task struct {
	at  time.Duration
	seq int
	f   func()
}

// Scheduler fires scheduled functions only when Advance is called.
type Scheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []task
}

func (s *Scheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.tasks = append(s.tasks, task{at: s.now + d, seq: s.seq, f: f})
}

// Advance moves the clock forward and runs everything that became due, in
// due-time order, including work scheduled by the callbacks themselves.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		sort.SliceStable(s.tasks, func(i, j int) bool {
			if s.tasks[i].at == s.tasks[j].at {
				return s.tasks[i].seq < s.tasks[j].seq
			}
			return s.tasks[i].at < s.tasks[j].at
		})
		if len(s.tasks) == 0 || s.tasks[0].at > target {
			s.now = target
			s.mu.Unlock()
			return
		}
		next := s.tasks[0]
		s.tasks = s.tasks[1:]
		s.now = next.at
		s.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of scheduled, not yet fired functions.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Surface records mounts and the latest render.
type Surface struct {
	mu      sync.Mutex
	Mounts  int
	Renders int
	last    []notify.Notification
}

func (s *Surface) Mount() {
	s.mu.Lock()
	s.Mounts++
	s.mu.Unlock()
}

func (s *Surface) Render(items []notify.Notification) {
	s.mu.Lock()
	s.Renders++
	s.last = items
	s.mu.Unlock()
}

// Last returns what the surface currently shows.
func (s *Surface) Last() []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Texts returns the texts currently shown.
func (s *Surface) Texts() []string {
	items := s.Last()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Text)
	}
	return out
}
