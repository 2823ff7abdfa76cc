package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"storefront/internal/gallery"
)

// cellPixels approximates one terminal column in CSS pixels so mouse drags
// can use the same swipe threshold as touch input.
const cellPixels = 8

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5C3A00"))
	thumbStyle     = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	thumbActive    = thumbStyle.BorderForeground(lipgloss.Color("#FF9800")).Bold(true)
	viewerStyle    = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(1, 4).Align(lipgloss.Center)
	counterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	viewerTopLines = 1
)

// galleryView receives gallery changes through a subscription owned by the
// model. It is shared by every copy of the (value type) model.
type galleryView struct {
	mu          sync.Mutex
	state       gallery.State
	unsubscribe func()
}

func (v *galleryView) set(s gallery.State) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}

func (v *galleryView) get() gallery.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// GalleryModel bubbletea-модель галереи товара
type GalleryModel struct {
	g      *gallery.Gallery
	title  string
	view   *galleryView
	pressX int
	press  bool
}

// NewGalleryModel subscribes to g; call Close when the program ends.
func NewGalleryModel(g *gallery.Gallery, title string) GalleryModel {
	v := &galleryView{state: g.State()}
	v.unsubscribe = g.Subscribe(v.set)
	return GalleryModel{g: g, title: title, view: v}
}

// Close deregisters the model's gallery listener.
func (m GalleryModel) Close() {
	if m.view != nil && m.view.unsubscribe != nil {
		m.view.unsubscribe()
		m.view.unsubscribe = nil
	}
}

// State returns what the model currently renders.
func (m GalleryModel) State() gallery.State { return m.view.get() }

func (m GalleryModel) Init() tea.Cmd { return nil }

func (m GalleryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.g.HandleKey(gallery.KeyLeft)
		case "right", "l":
			m.g.HandleKey(gallery.KeyRight)
		case "enter":
			m.g.HandleKey(gallery.KeyEnter)
		case " ":
			m.g.HandleKey(gallery.KeySpace)
		case "esc":
			m.g.HandleKey(gallery.KeyEscape)
		default:
			if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
				m.g.SelectThumbnail(int(s[0] - '1'))
			}
		}
	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
			break
		}
		switch msg.Action {
		case tea.MouseActionPress:
			m.press, m.pressX = true, msg.X
		case tea.MouseActionRelease:
			if !m.press {
				break
			}
			m.press = false
			if m.g.Swipe(float64(m.pressX*cellPixels), float64(msg.X*cellPixels)) {
				break
			}
			if m.view.get().Mode == gallery.ModeViewer {
				m.g.ClickBackdrop(m.onImage(msg.Y))
			}
		}
	}
	return m, nil
}

// onImage reports whether row y falls inside the viewer frame.
func (m GalleryModel) onImage(y int) bool {
	frame := lipgloss.Height(m.viewerFrame(m.view.get()))
	return y >= viewerTopLines && y < viewerTopLines+frame
}

func (m GalleryModel) viewerFrame(s gallery.State) string {
	body := s.Current() + "\n\n" + counterStyle.Render(s.Counter())
	return viewerStyle.Render(body)
}

func (m GalleryModel) View() string {
	s := m.view.get()
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	if len(s.Photos) == 0 {
		b.WriteString(hintStyle.Render("Нет изображений · q — выход"))
		return b.String()
	}
	if s.Mode == gallery.ModeViewer {
		b.WriteString(m.viewerFrame(s))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("←/→ — листать · esc или клик по фону — закрыть · q — выход"))
		return b.String()
	}
	b.WriteString(s.Current())
	b.WriteString("\n")
	thumbs := make([]string, 0, len(s.Photos))
	for i := range s.Photos {
		label := fmt.Sprintf("%d", i+1)
		if i == s.Index {
			thumbs = append(thumbs, thumbActive.Render(label))
		} else {
			thumbs = append(thumbs, thumbStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, thumbs...))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("1-9 — миниатюра · ←/→ — листать · enter/space — на весь экран · q — выход"))
	return b.String()
}

// RunGallery runs the interactive viewer until the user quits or ctx ends.
func RunGallery(ctx context.Context, g *gallery.Gallery, title string, opts ...tea.ProgramOption) error {
	model := NewGalleryModel(g, title)
	defer model.Close()
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}, opts...)
	_, err := tea.NewProgram(model, opts...).Run()
	return err
}
