// Package notify shows transient status messages on a single lazily created
// container. Every message removes itself after its display duration unless it
// was dismissed earlier.
package notify

import (
	"sync"
	"time"
)

// Severity уровень уведомления
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

const (
	// DefaultDuration используется, если длительность не задана
	DefaultDuration = 3 * time.Second
	// TransitionDuration время анимации появления и исчезновения
	TransitionDuration = 300 * time.Millisecond
)

// Phase стадия жизни уведомления в контейнере
type Phase int

const (
	PhaseEntering Phase = iota
	PhaseShown
	PhaseLeaving
)

// Notification одно сообщение в контейнере
type Notification struct {
	ID       uint64
	Text     string
	Severity Severity
	Duration time.Duration
	Phase    Phase
}

// Surface draws the container. Mount is called once, when the container is
// first needed. Render receives the full list in insertion order and is
// called with the notifier lock held, so it must not call back into Notifier.
type Surface interface {
	Mount()
	Render(items []Notification)
}

// Scheduler runs f once after d. Scheduled work cannot be cancelled.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// Notifier владеет единственным контейнером уведомлений
type Notifier struct {
	mu         sync.Mutex
	surface    Surface
	sched      Scheduler
	transition time.Duration
	mounted    bool
	nextID     uint64
	items      []Notification
}

type Option func(*Notifier)

// WithTransition overrides the entrance/exit transition length.
func WithTransition(d time.Duration) Option {
	return func(n *Notifier) { n.transition = d }
}

func New(surface Surface, sched Scheduler, opts ...Option) *Notifier {
	n := &Notifier{surface: surface, sched: sched, transition: TransitionDuration}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify appends a message and schedules its removal. A zero or negative
// duration falls back to DefaultDuration.
func (n *Notifier) Notify(text string, severity Severity, duration time.Duration) uint64 {
	if duration <= 0 {
		duration = DefaultDuration
	}
	n.mu.Lock()
	if !n.mounted {
		n.surface.Mount()
		n.mounted = true
	}
	n.nextID++
	id := n.nextID
	n.items = append(n.items, Notification{ID: id, Text: text, Severity: severity, Duration: duration, Phase: PhaseEntering})
	n.render()
	n.mu.Unlock()

	n.sched.AfterFunc(n.transition, func() { n.setPhase(id, PhaseEntering, PhaseShown) })
	n.sched.AfterFunc(duration, func() { n.leave(id) })
	return id
}

// Dismiss removes a message right away. It reports whether the message was
// still on screen.
func (n *Notifier) Dismiss(id uint64) bool { return n.remove(id) }

// Visible returns a snapshot of the container in insertion order.
func (n *Notifier) Visible() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

func (n *Notifier) leave(id uint64) {
	n.mu.Lock()
	idx := n.indexOf(id)
	if idx < 0 {
		n.mu.Unlock()
		return
	}
	n.items[idx].Phase = PhaseLeaving
	n.render()
	n.mu.Unlock()
	n.sched.AfterFunc(n.transition, func() { n.remove(id) })
}

func (n *Notifier) setPhase(id uint64, from, to Phase) {
	n.mu.Lock()
	defer n.mu.Unlock()
	idx := n.indexOf(id)
	if idx < 0 || n.items[idx].Phase != from {
		return
	}
	n.items[idx].Phase = to
	n.render()
}

func (n *Notifier) remove(id uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	idx := n.indexOf(id)
	if idx < 0 {
		return false
	}
	n.items = append(n.items[:idx], n.items[idx+1:]...)
	n.render()
	return true
}

func (n *Notifier) indexOf(id uint64) int {
	for i, it := range n.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (n *Notifier) render() {
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	n.surface.Render(out)
}
