package schema

import (
	"time"

	"github.com/faciam-dev/gridbi/internal/layout"
	"github.com/faciam-dev/gridbi/internal/widget"
)

// Widget is a persisted chart, table or text block.
type Widget struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description,omitempty"`
	Type         string           `json:"type" enum:"chart,text,table"`
	DatasetID    *int64           `json:"datasetId,omitempty"`
	ConnectionID *int64           `json:"connectionId,omitempty"`
	CustomQuery  *string          `json:"customQuery,omitempty"`
	Config       widget.Config    `json:"config"`
	Position     *layout.Position `json:"position,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// CreateWidget is the editor's submit payload. Exactly one of datasetId or
// connectionId must be set; customQuery accompanies connectionId.
type CreateWidget struct {
	Name         string           `json:"name" minLength:"1" maxLength:"255"`
	Description  *string          `json:"description,omitempty"`
	Type         string           `json:"type" enum:"chart,text,table"`
	DatasetID    *int64           `json:"datasetId,omitempty"`
	ConnectionID *int64           `json:"connectionId,omitempty"`
	CustomQuery  *string          `json:"customQuery,omitempty"`
	Config       widget.Config    `json:"config"`
	Position     *layout.Position `json:"position,omitempty"`
}

// UpdateWidget mutates an existing widget. ResetConfig strips config keys
// that no longer apply when the chart type changed.
type UpdateWidget struct {
	Name         string           `json:"name" minLength:"1" maxLength:"255"`
	Description  *string          `json:"description,omitempty"`
	Type         string           `json:"type" enum:"chart,text,table"`
	DatasetID    *int64           `json:"datasetId,omitempty"`
	ConnectionID *int64           `json:"connectionId,omitempty"`
	CustomQuery  *string          `json:"customQuery,omitempty"`
	Config       widget.Config    `json:"config"`
	Position     *layout.Position `json:"position,omitempty"`
	ResetConfig  bool             `json:"resetConfig,omitempty"`
}

// WidgetList is a paged widget listing.
type WidgetList struct {
	Items []Widget `json:"items"`
	Total int      `json:"total"`
}

// FieldMapRequest asks which config controls apply for a chart type and
// column set.
type FieldMapRequest struct {
	ChartType widget.ChartType `json:"chartType"`
	Columns   widget.Columns   `json:"columns"`
	Config    *widget.Config   `json:"config,omitempty"`
}

// FieldMapResponse lists the applicable controls plus the config with legacy
// field modes resolved.
type FieldMapResponse struct {
	Controls []widget.Control `json:"controls"`
	Config   *widget.Config   `json:"config,omitempty"`
}
