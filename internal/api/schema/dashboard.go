package schema

import (
	"time"

	"github.com/faciam-dev/gridbi/internal/layout"
)

// Dashboard is a named collection of placed widgets.
type Dashboard struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateDashboard is the input for creating a dashboard.
type CreateDashboard struct {
	Name        string  `json:"name" minLength:"1" maxLength:"255"`
	Description *string `json:"description,omitempty"`
}

// UpdateDashboard is the input for renaming a dashboard.
type UpdateDashboard struct {
	Name        string  `json:"name" minLength:"1" maxLength:"255"`
	Description *string `json:"description,omitempty"`
}

// AttachWidget places a widget on a dashboard, optionally at a position.
type AttachWidget struct {
	WidgetID string           `json:"widgetId" minLength:"1"`
	Position *layout.Position `json:"position,omitempty"`
}

// DashboardWidget is one widget placed on a dashboard with its
// effective position.
type DashboardWidget struct {
	WidgetID string          `json:"widgetId"`
	Position layout.Position `json:"position"`
}

// LayoutItem is one widget's grid placement within a breakpoint.
type LayoutItem struct {
	I    string `json:"i"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	MinW int    `json:"minW,omitempty"`
	MinH int    `json:"minH,omitempty"`
}

// Layout carries the tracked breakpoints' item lists.
type Layout struct {
	Lg []LayoutItem `json:"lg"`
	Md []LayoutItem `json:"md"`
	Sm []LayoutItem `json:"sm"`
}

// SaveLayout is the input for persisting edited positions. Only the lg
// items are written back; the other breakpoints are rederived.
type SaveLayout struct {
	Items []LayoutItem `json:"items" minItems:"1"`
}
