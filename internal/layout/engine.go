package layout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Mode is the engine's editability state.
type Mode int

const (
	// ModeView disables drag/resize; layout changes are rejected.
	ModeView Mode = iota
	// ModeEdit accepts layout changes in memory until Save or Cancel.
	ModeEdit
)

// ErrViewMode is returned when a layout change arrives outside edit mode.
var ErrViewMode = errors.New("layout is not editable in view mode")

// Saver persists one widget's position. Implementations write the widget's
// full record with the updated position.
type Saver interface {
	SaveWidgetPosition(ctx context.Context, widgetID string, pos Position) error
}

// Engine tracks the in-memory layouts of one dashboard and persists them in
// batched per-widget writes on explicit save. Writes for different widgets
// are independent: a failed save keeps edit mode active and does not roll
// back the widgets already written (at-least-once, no cross-widget
// transaction).
type Engine struct {
	mu      sync.Mutex
	mode    Mode
	current Layouts
	saved   Layouts
	saver   Saver
}

// NewEngine derives the initial layouts from persisted positions.
func NewEngine(saver Saver, widgets []WidgetPosition) *Engine {
	l := FromWidgets(widgets)
	return &Engine{saver: saver, current: l, saved: l.clone()}
}

// Mode returns the engine's current state.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// BeginEdit switches to edit mode.
func (e *Engine) BeginEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = ModeEdit
}

// Apply replaces one breakpoint's items. Only valid in edit mode; nothing is
// written to storage until Save.
func (e *Engine) Apply(bp Breakpoint, items []Item) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeEdit {
		return ErrViewMode
	}
	cp := make([]Item, len(items))
	copy(cp, items)
	e.current[bp] = cp
	return nil
}

// Items returns a copy of one breakpoint's current items.
func (e *Engine) Items(bp Breakpoint) []Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := make([]Item, len(e.current[bp]))
	copy(items, e.current[bp])
	return items
}

// Save persists the lg layout's positions, one concurrent write per widget,
// then leaves edit mode. If any write fails the engine stays in edit mode so
// the user can retry without losing in-progress changes; writes that already
// succeeded are not rolled back.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.mode != ModeEdit {
		e.mu.Unlock()
		return nil
	}
	items := make([]Item, len(e.current[Lg]))
	copy(items, e.current[Lg])
	e.mu.Unlock()

	// Every write is issued regardless of sibling failures, so a lone bad
	// widget cannot prevent the others from persisting.
	var g errgroup.Group
	for _, it := range items {
		it := it
		g.Go(func() error {
			if err := e.saver.SaveWidgetPosition(ctx, it.ID, it.Position()); err != nil {
				return fmt.Errorf("widget %s: %w", it.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to save layout: %w", err)
	}

	e.mu.Lock()
	e.saved = e.current.clone()
	e.mode = ModeView
	e.mu.Unlock()
	return nil
}

// Cancel discards in-memory changes, reverts to the last persisted layouts
// and leaves edit mode.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = e.saved.clone()
	e.mode = ModeView
}
