package schema

import (
	"time"

	"github.com/faciam-dev/gridbi/internal/dbqa"
)

// DbQaQuery is a recurring health-check query.
type DbQaQuery struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category,omitempty"`
	ConnectionID int64     `json:"connectionId"`
	SQL          string    `json:"sql"`
	Frequency    string    `json:"frequency" enum:"manual,hourly,daily,weekly"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateDbQaQuery is the input for registering a health-check query.
type CreateDbQaQuery struct {
	Name         string `json:"name" minLength:"1" maxLength:"255"`
	Category     string `json:"category,omitempty"`
	ConnectionID int64  `json:"connectionId"`
	SQL          string `json:"sql" minLength:"1"`
	Frequency    string `json:"frequency" enum:"manual,hourly,daily,weekly"`
}

// DbQaAlert is a threshold rule watching one query.
type DbQaAlert struct {
	ID              int64          `json:"id"`
	QueryID         int64          `json:"queryId"`
	Name            string         `json:"name"`
	Condition       dbqa.Condition `json:"condition"`
	Severity        string         `json:"severity" enum:"info,warning,critical"`
	Channels        []string       `json:"channels"`
	ThrottleMinutes int            `json:"throttleMinutes"`
	Status          string         `json:"status" enum:"active,resolved,snoozed"`
	LastTriggeredAt *time.Time     `json:"lastTriggeredAt,omitempty"`
	SnoozedUntil    *time.Time     `json:"snoozedUntil,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// CreateDbQaAlert is the input for attaching an alert to a query.
type CreateDbQaAlert struct {
	QueryID         int64          `json:"queryId"`
	Name            string         `json:"name" minLength:"1" maxLength:"255"`
	Condition       dbqa.Condition `json:"condition"`
	Severity        string         `json:"severity" enum:"info,warning,critical"`
	Channels        []string       `json:"channels"`
	ThrottleMinutes int            `json:"throttleMinutes" minimum:"0"`
}

// SnoozeAlert suppresses an alert until the given time.
type SnoozeAlert struct {
	Until time.Time `json:"until"`
}

// AlertOutcome reports what one run did to one alert.
type AlertOutcome struct {
	AlertID   int64    `json:"alertId"`
	Name      string   `json:"name"`
	Triggered bool     `json:"triggered"`
	Throttled bool     `json:"throttled"`
	Channels  []string `json:"notifiedChannels,omitempty"`
}

// RunReport summarizes a manual query run.
type RunReport struct {
	ExecutionID int64          `json:"executionId"`
	RowCount    int            `json:"rowCount"`
	Error       string         `json:"error,omitempty"`
	Alerts      []AlertOutcome `json:"alerts,omitempty"`
}

// Execution is one recorded run of a health-check query.
type Execution struct {
	ID         int64     `json:"id"`
	QueryID    int64     `json:"queryId"`
	RanAt      time.Time `json:"ranAt"`
	RowCount   int       `json:"rowCount"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
}

// Notification is one channel delivery record.
type Notification struct {
	ID        int64     `json:"id"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status" enum:"sent,failed"`
	Error     string    `json:"error,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryEntry is one alert status transition.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
