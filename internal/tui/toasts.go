// Package tui renders the storefront feedback in a terminal: toasts on a
// writer and the product photo viewer as a bubbletea program.
package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"storefront/internal/notify"
)

var (
	toastBase = lipgloss.NewStyle().Padding(0, 2).MarginBottom(1).Bold(true)

	severityStyles = map[notify.Severity]lipgloss.Style{
		notify.SeveritySuccess: toastBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4CAF50")),
		notify.SeverityError:   toastBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#F44336")),
		notify.SeverityInfo:    toastBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#2196F3")),
	}

	navStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

// ToastSurface prints each notification once, when it enters the container.
// A line-oriented terminal cannot take text back, so leaving and removal
// are not drawn.
type ToastSurface struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	shown map[uint64]bool
}

func NewToastSurface(w io.Writer, color bool) *ToastSurface {
	return &ToastSurface{w: w, color: color}
}

func (s *ToastSurface) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shown == nil {
		s.shown = make(map[uint64]bool)
	}
}

func (s *ToastSurface) Render(items []notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	present := make(map[uint64]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
		if s.shown[it.ID] {
			continue
		}
		s.shown[it.ID] = true
		fmt.Fprintln(s.w, s.format(it))
	}
	for id := range s.shown {
		if !present[id] {
			delete(s.shown, id)
		}
	}
}

func (s *ToastSurface) format(it notify.Notification) string {
	if !s.color {
		return fmt.Sprintf("[%s] %s", it.Severity, it.Text)
	}
	style, ok := severityStyles[it.Severity]
	if !ok {
		style = toastBase
	}
	return style.Render(it.Text)
}

// PrintNavigator "navigates" by printing the target URL.
type PrintNavigator struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	last  string
}

func NewPrintNavigator(w io.Writer, color bool) *PrintNavigator {
	return &PrintNavigator{w: w, color: color}
}

func (n *PrintNavigator) Navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = url
	line := "→ " + url
	if n.color {
		line = navStyle.Render(line)
	}
	fmt.Fprintln(n.w, line)
}

// Last returns the most recent navigation target.
func (n *PrintNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}
