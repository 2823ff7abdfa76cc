package client

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

// Guard lets at most one request per key be outstanding. Later attempts for
// the same key are dropped until the first one releases its slot.
type Guard struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func NewGuard() *Guard {
	return &Guard{slots: make(map[string]*slot)}
}

// TryAcquire never blocks. When ok is true the caller must call release.
// A key's slot is dropped once nobody references it.
func (g *Guard) TryAcquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	s, exists := g.slots[key]
	if !exists {
		s = &slot{sem: semaphore.NewWeighted(1)}
		g.slots[key] = s
	}
	s.refs++
	g.mu.Unlock()

	if !s.sem.TryAcquire(1) {
		g.unref(key, s)
		return func() {}, false
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			s.sem.Release(1)
			g.unref(key, s)
		})
	}, true
}

func (g *Guard) unref(key string, s *slot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s.refs--
	if s.refs == 0 && g.slots[key] == s {
		delete(g.slots, key)
	}
}
