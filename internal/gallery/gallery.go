// Package gallery keeps track of which product photo is shown and whether
// the full-screen viewer is open. It never touches the network.
package gallery

import (
	"strconv"
	"sync"
)

// SwipeThreshold минимальный сдвиг в пикселях, чтобы жест считался свайпом
const SwipeThreshold = 50.0

// Mode режим галереи
type Mode int

const (
	ModeInline Mode = iota
	ModeViewer
)

func (m Mode) String() string {
	if m == ModeViewer {
		return "viewer"
	}
	return "inline"
}

// Key клавиши, на которые реагирует галерея
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyEnter
	KeySpace
	KeyEscape
)

// State снимок состояния галереи
type State struct {
	Photos       []string
	Index        int
	Mode         Mode
	ScrollLocked bool
}

// Current returns the URL of the photo at Index, or "" when there are none.
func (s State) Current() string {
	if len(s.Photos) == 0 {
		return ""
	}
	return s.Photos[s.Index]
}

// Counter formats the viewer counter as "n / total".
func (s State) Counter() string {
	if len(s.Photos) == 0 {
		return "0 / 0"
	}
	return strconv.Itoa(s.Index+1) + " / " + strconv.Itoa(len(s.Photos))
}

// Gallery is safe for concurrent use. Listeners run synchronously after
// every change, outside the lock.
type Gallery struct {
	mu        sync.Mutex
	photos    []string
	index     int
	mode      Mode
	locked    bool
	nextSub   int
	listeners map[int]func(State)
	threshold float64
}

func New(photos []string) *Gallery {
	cp := make([]string, len(photos))
	copy(cp, photos)
	return &Gallery{photos: cp, listeners: make(map[int]func(State)), threshold: SwipeThreshold}
}

// State returns a snapshot.
func (g *Gallery) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// Subscribe registers fn for change notifications. Call the returned func to
// deregister.
func (g *Gallery) Subscribe(fn func(State)) (unsubscribe func()) {
	g.mu.Lock()
	g.nextSub++
	id := g.nextSub
	g.listeners[id] = fn
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// SelectThumbnail makes photo i the main image. Only valid inline.
func (g *Gallery) SelectThumbnail(i int) bool {
	return g.mutate(func() bool {
		if g.mode != ModeInline || !g.inBounds(i) {
			return false
		}
		g.index = i
		return true
	})
}

// OpenViewer switches to full-screen at photo i and locks page scroll.
func (g *Gallery) OpenViewer(i int) bool {
	return g.mutate(func() bool { return g.open(i) })
}

// CloseViewer returns to the inline layout and unlocks scroll.
func (g *Gallery) CloseViewer() bool {
	return g.mutate(func() bool {
		if g.mode != ModeViewer {
			return false
		}
		g.mode = ModeInline
		g.locked = false
		return true
	})
}

// Prev steps back, wrapping from the first photo to the last.
func (g *Gallery) Prev() bool { return g.mutate(func() bool { return g.step(-1) }) }

// Next steps forward, wrapping from the last photo to the first.
func (g *Gallery) Next() bool { return g.mutate(func() bool { return g.step(1) }) }

// HandleKey maps keyboard input onto transitions.
func (g *Gallery) HandleKey(k Key) bool {
	switch k {
	case KeyLeft:
		return g.Prev()
	case KeyRight:
		return g.Next()
	case KeyEnter, KeySpace:
		return g.mutate(func() bool {
			if g.mode == ModeViewer {
				return false
			}
			return g.open(g.index)
		})
	case KeyEscape:
		return g.CloseViewer()
	}
	return false
}

// Swipe handles a horizontal touch gesture. Moving left (start > end) shows
// the next photo; moves shorter than the threshold are ignored.
func (g *Gallery) Swipe(startX, endX float64) bool {
	diff := startX - endX
	switch {
	case diff > g.threshold:
		return g.Next()
	case diff < -g.threshold:
		return g.Prev()
	}
	return false
}

// ClickBackdrop closes the viewer when the click landed outside the image.
func (g *Gallery) ClickBackdrop(onImage bool) bool {
	if onImage {
		return false
	}
	return g.CloseViewer()
}

func (g *Gallery) step(delta int) bool {
	n := len(g.photos)
	if n <= 1 {
		return false
	}
	g.index = (g.index + delta + n) % n
	return true
}

// open expects g.mu to be held.
func (g *Gallery) open(i int) bool {
	if len(g.photos) == 0 || !g.inBounds(i) {
		return false
	}
	g.index = i
	g.mode = ModeViewer
	g.locked = true
	return true
}

func (g *Gallery) inBounds(i int) bool { return i >= 0 && i < len(g.photos) }

func (g *Gallery) snapshot() State {
	return State{Photos: g.photos, Index: g.index, Mode: g.mode, ScrollLocked: g.locked}
}

func (g *Gallery) mutate(fn func() bool) bool {
	g.mu.Lock()
	changed := fn()
	if !changed {
		g.mu.Unlock()
		return false
	}
	st := g.snapshot()
	listeners := make([]func(State), 0, len(g.listeners))
	for _, l := range g.listeners {
		listeners = append(listeners, l)
	}
	g.mu.Unlock()
	for _, l := range listeners {
		l(st)
	}
	return true
}
