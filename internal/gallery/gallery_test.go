package gallery

import (
	"sync"
	"testing"
)

func abc() *Gallery { return New([]string{"A", "B", "C"}) }

func TestPrevNext_Wraps(t *testing.T) {
	g := abc()
	if !g.Prev() {
		t.Fatalf("prev should move")
	}
	if got := g.State().Index; got != 2 {
		t.Fatalf("prev from 0: expected 2, got %d", got)
	}
	g.Prev()
	g.Prev()
	if got := g.State().Index; got != 0 {
		t.Fatalf("three prevs should return to 0, got %d", got)
	}

	g.OpenViewer(2)
	g.Next()
	if got := g.State().Index; got != 0 {
		t.Fatalf("next from 2: expected 0, got %d", got)
	}
}

func TestPrevNext_SinglePhotoNoop(t *testing.T) {
	g := New([]string{"only"})
	if g.Next() || g.Prev() {
		t.Fatalf("single photo must not move")
	}
	if g.State().Index != 0 {
		t.Fatalf("index changed")
	}
}

func TestOpenViewer_EmptyIsNoop(t *testing.T) {
	g := New(nil)
	before := g.State()
	if g.OpenViewer(0) {
		t.Fatalf("open on empty gallery should be a no-op")
	}
	after := g.State()
	if after.Mode != before.Mode || after.Index != before.Index || after.ScrollLocked {
		t.Fatalf("state changed: %+v", after)
	}
	if g.HandleKey(KeyEnter) || g.HandleKey(KeyRight) || g.Swipe(200, 0) {
		t.Fatalf("input on empty gallery should be ignored")
	}
	if after.Current() != "" || after.Counter() != "0 / 0" {
		t.Fatalf("unexpected empty view: %q %q", after.Current(), after.Counter())
	}
}

func TestViewer_OpenClose(t *testing.T) {
	g := abc()
	if !g.OpenViewer(1) {
		t.Fatalf("open failed")
	}
	st := g.State()
	if st.Mode != ModeViewer || !st.ScrollLocked || st.Index != 1 || st.Counter() != "2 / 3" {
		t.Fatalf("unexpected viewer state: %+v", st)
	}
	if g.OpenViewer(7) {
		t.Fatalf("out of range open must be ignored")
	}
	if !g.CloseViewer() {
		t.Fatalf("close failed")
	}
	if g.CloseViewer() {
		t.Fatalf("closing a closed viewer must be a no-op")
	}
	if st := g.State(); st.Mode != ModeInline || st.ScrollLocked {
		t.Fatalf("scroll should be unlocked: %+v", st)
	}
}

func TestSelectThumbnail(t *testing.T) {
	g := abc()
	if !g.SelectThumbnail(2) || g.State().Current() != "C" {
		t.Fatalf("select failed")
	}
	if g.SelectThumbnail(3) || g.SelectThumbnail(-1) {
		t.Fatalf("out of bounds select must be ignored")
	}
	g.OpenViewer(0)
	if g.SelectThumbnail(1) {
		t.Fatalf("thumbnails are inline only")
	}
}

func TestHandleKey(t *testing.T) {
	g := abc()
	g.HandleKey(KeyRight)
	if g.State().Index != 1 {
		t.Fatalf("right arrow inline should advance")
	}
	if g.HandleKey(KeyEscape) {
		t.Fatalf("escape with closed viewer must be ignored")
	}
	g.HandleKey(KeySpace)
	if st := g.State(); st.Mode != ModeViewer || st.Index != 1 {
		t.Fatalf("space should open viewer at current index: %+v", st)
	}
	if g.HandleKey(KeyEnter) {
		t.Fatalf("enter with open viewer must be ignored")
	}
	g.HandleKey(KeyLeft)
	if g.State().Index != 0 {
		t.Fatalf("left arrow in viewer should go back")
	}
	g.HandleKey(KeyEscape)
	if g.State().Mode != ModeInline {
		t.Fatalf("escape should close viewer")
	}
}

func TestSwipe_Threshold(t *testing.T) {
	g := abc()
	if g.Swipe(100, 60) {
		t.Fatalf("40px swipe must be ignored")
	}
	if g.Swipe(100, 50) {
		t.Fatalf("exactly threshold must be ignored")
	}
	g.Swipe(200, 100)
	if g.State().Index != 1 {
		t.Fatalf("swipe left should go next")
	}
	g.Swipe(0, 100)
	g.Swipe(0, 100)
	if g.State().Index != 2 {
		t.Fatalf("swipe right twice from 1 should wrap to 2, got %d", g.State().Index)
	}
}

func TestClickBackdrop(t *testing.T) {
	g := abc()
	g.OpenViewer(0)
	if g.ClickBackdrop(true) {
		t.Fatalf("click on image must not close")
	}
	if !g.ClickBackdrop(false) || g.State().Mode != ModeInline {
		t.Fatalf("backdrop click should close")
	}
}

func TestSubscribe(t *testing.T) {
	g := abc()
	var seen []int
	unsubscribe := g.Subscribe(func(s State) { seen = append(seen, s.Index) })
	g.Next()
	g.Next()
	g.SelectThumbnail(5) // no change, no event
	unsubscribe()
	g.Next()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected events: %v", seen)
	}
}

func TestHandleKey_OpenKeepsConcurrentSteps(t *testing.T) {
	g := abc()
	const steps = 301
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < steps; i++ {
			g.Next()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < steps; i++ {
			g.HandleKey(KeyEnter)
			g.HandleKey(KeyEscape)
		}
	}()
	wg.Wait()
	if got := g.State().Index; got != steps%3 {
		t.Fatalf("opening the viewer must not rewind the index: expected %d, got %d", steps%3, got)
	}
}
