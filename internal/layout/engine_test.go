package layout

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeSaver struct {
	mu    sync.Mutex
	saved map[string]Position
	fail  map[string]bool
}

func newFakeSaver() *fakeSaver {
	return &fakeSaver{saved: map[string]Position{}, fail: map[string]bool{}}
}

func (s *fakeSaver) SaveWidgetPosition(_ context.Context, id string, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[id] {
		return errors.New("boom")
	}
	s.saved[id] = pos
	return nil
}

func twoWidgets() []WidgetPosition {
	return []WidgetPosition{
		{ID: "a", Position: Position{X: 0, Y: 0, W: 6, H: 4}},
		{ID: "b", Position: Position{X: 6, Y: 0, W: 6, H: 4}},
	}
}

func TestApplyRejectedInViewMode(t *testing.T) {
	e := NewEngine(newFakeSaver(), twoWidgets())
	if err := e.Apply(Lg, e.Items(Lg)); !errors.Is(err, ErrViewMode) {
		t.Fatalf("expected ErrViewMode, got %v", err)
	}
}

func TestSaveReloadIdempotent(t *testing.T) {
	s := newFakeSaver()
	e := NewEngine(s, twoWidgets())
	e.BeginEdit()
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if e.Mode() != ModeView {
		t.Fatal("save must leave edit mode")
	}

	reloaded := make([]WidgetPosition, 0, len(s.saved))
	for _, id := range []string{"a", "b"} {
		reloaded = append(reloaded, WidgetPosition{ID: id, Position: s.saved[id]})
	}
	e2 := NewEngine(s, reloaded)
	want := map[string]Position{"a": {0, 0, 6, 4}, "b": {6, 0, 6, 4}}
	for _, it := range e2.Items(Lg) {
		if it.Position() != want[it.ID] {
			t.Fatalf("widget %s = %+v, want %+v", it.ID, it.Position(), want[it.ID])
		}
	}
}

func TestSaveFailureKeepsEditModeAndPartialWrites(t *testing.T) {
	s := newFakeSaver()
	s.fail["b"] = true
	e := NewEngine(s, twoWidgets())
	e.BeginEdit()

	moved := e.Items(Lg)
	for i := range moved {
		if moved[i].ID == "a" {
			moved[i].X = 2
		}
	}
	if err := e.Apply(Lg, moved); err != nil {
		t.Fatal(err)
	}

	if err := e.Save(context.Background()); err == nil {
		t.Fatal("expected aggregate save failure")
	}
	if e.Mode() != ModeEdit {
		t.Fatal("failed save must keep edit mode so the user can retry")
	}
	// the successful write is not rolled back
	if got := s.saved["a"]; got.X != 2 {
		t.Fatalf("widget a position = %+v, want X=2", got)
	}
	if _, ok := s.saved["b"]; ok {
		t.Fatal("widget b must not have been written")
	}

	// fixing the backend and retrying completes the save
	s.fail["b"] = false
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if e.Mode() != ModeView {
		t.Fatal("retry must exit edit mode")
	}
}

func TestCancelRevertsToSaved(t *testing.T) {
	e := NewEngine(newFakeSaver(), twoWidgets())
	e.BeginEdit()
	moved := e.Items(Lg)
	moved[0].X = 4
	if err := e.Apply(Lg, moved); err != nil {
		t.Fatal(err)
	}
	e.Cancel()
	if e.Mode() != ModeView {
		t.Fatal("cancel must leave edit mode")
	}
	if e.Items(Lg)[0].X != 0 {
		t.Fatal("cancel must revert in-memory positions")
	}
}
