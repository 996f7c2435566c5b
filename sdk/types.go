package sdk

import "time"

// Dashboard mirrors the API's dashboard resource.
type Dashboard struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Widget mirrors the API's widget resource. Config is kept loose so the
// client does not chase the server's schema.
type Widget struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	DatasetID    *int64         `json:"datasetId,omitempty"`
	ConnectionID *int64         `json:"connectionId,omitempty"`
	Config       map[string]any `json:"config"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// WidgetList is a paged widget listing.
type WidgetList struct {
	Items []Widget `json:"items"`
	Total int      `json:"total"`
}

// Connection mirrors the API's connection resource. Secrets never round-trip.
type Connection struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Driver string `json:"driver,omitempty"`
}

// Dataset mirrors the API's dataset resource.
type Dataset struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ConnectionID int64  `json:"connectionId"`
	Query        string `json:"query"`
}

// DbQaQuery mirrors the API's health-check query resource.
type DbQaQuery struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	ConnectionID int64  `json:"connectionId"`
	SQL          string `json:"sql"`
	Frequency    string `json:"frequency"`
}

// AlertOutcome reports what one run did to one alert.
type AlertOutcome struct {
	AlertID   int64    `json:"alertId"`
	Name      string   `json:"name"`
	Triggered bool     `json:"triggered"`
	Throttled bool     `json:"throttled"`
	Channels  []string `json:"notifiedChannels,omitempty"`
}

// RunReport summarizes a manual health-check run.
type RunReport struct {
	ExecutionID int64          `json:"executionId"`
	RowCount    int            `json:"rowCount"`
	Error       string         `json:"error,omitempty"`
	Alerts      []AlertOutcome `json:"alerts,omitempty"`
}

// Alert mirrors the API's alert resource.
type Alert struct {
	ID              int64      `json:"id"`
	QueryID         int64      `json:"queryId"`
	Name            string     `json:"name"`
	Severity        string     `json:"severity"`
	Status          string     `json:"status"`
	LastTriggeredAt *time.Time `json:"lastTriggeredAt,omitempty"`
}
