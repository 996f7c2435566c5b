// Package dbqa runs recurring SQL health checks and fires threshold-based
// alerts through notification channels.
package dbqa

import (
	"fmt"
	"strconv"
	"time"

	"github.com/faciam-dev/gridbi/internal/connections"
)

// Frequency controls how often a query is executed by the scheduler.
type Frequency string

const (
	FreqManual Frequency = "manual"
	FreqHourly Frequency = "hourly"
	FreqDaily  Frequency = "daily"
	FreqWeekly Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FreqManual, FreqHourly, FreqDaily, FreqWeekly:
		return true
	}
	return false
}

// Query is a health-check query run against a connection.
type Query struct {
	ID           int64
	TenantID     string
	Name         string
	Category     string
	ConnectionID int64
	SQL          string
	Frequency    Frequency
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConditionType selects what aspect of an execution result is checked.
type ConditionType string

const (
	CondRowCount      ConditionType = "row_count"
	CondSpecificValue ConditionType = "specific_value"
	CondErrorPresence ConditionType = "error_presence"
)

// Operator compares the observed value against the configured one.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// Condition is the trigger rule attached to an alert. Column is consulted
// only for specific_value conditions; Operator and Value are ignored for
// error_presence.
type Condition struct {
	Type     ConditionType `json:"type"`
	Operator Operator      `json:"operator,omitempty"`
	Value    string        `json:"value,omitempty"`
	Column   string        `json:"column,omitempty"`
}

// Validate reports whether the condition is well formed.
func (c Condition) Validate() error {
	switch c.Type {
	case CondErrorPresence:
		return nil
	case CondRowCount, CondSpecificValue:
	default:
		return fmt.Errorf("unknown condition type %q", c.Type)
	}
	switch c.Operator {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
	default:
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	if c.Value == "" {
		return fmt.Errorf("condition value is required")
	}
	if c.Type == CondSpecificValue && c.Column == "" {
		return fmt.Errorf("specific_value conditions require a column")
	}
	return nil
}

// Severity grades an alert.
type Severity string

const (
	SevInfo     Severity = "info"
	SevWarning  Severity = "warning"
	SevCritical Severity = "critical"
)

// Status is the alert lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusSnoozed  Status = "snoozed"
)

// Alert watches one query's results.
type Alert struct {
	ID              int64
	TenantID        string
	QueryID         int64
	Name            string
	Condition       Condition
	Severity        Severity
	Channels        []string
	ThrottleMinutes int
	Status          Status
	LastTriggeredAt *time.Time
	SnoozedUntil    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Execution records one run of a query.
type Execution struct {
	ID       int64
	QueryID  int64
	RanAt    time.Time
	RowCount int
	Error    string
	Duration time.Duration
}

// Notification records one channel delivery attempt for a trigger.
type Notification struct {
	ID        int64
	AlertID   int64
	Channel   string
	Status    string // sent or failed
	Error     string
	Attempts  int
	CreatedAt time.Time
}

// HistoryEntry records an alert status transition.
type HistoryEntry struct {
	ID        int64
	AlertID   int64
	From      Status
	To        Status
	Note      string
	CreatedAt time.Time
}

// Evaluate decides whether the condition triggers for the given execution
// outcome. execErr is the query's own failure, if any; only error_presence
// conditions trigger on it.
func Evaluate(c Condition, res connections.Result, execErr error) (bool, string, error) {
	switch c.Type {
	case CondErrorPresence:
		if execErr != nil {
			return true, fmt.Sprintf("query failed: %v", execErr), nil
		}
		return false, "", nil
	case CondRowCount:
		if execErr != nil {
			return false, "", execErr
		}
		want, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return false, "", fmt.Errorf("row_count condition: value %q is not numeric", c.Value)
		}
		ok, err := compare(float64(res.RowCount), want, c.Operator)
		if err != nil {
			return false, "", err
		}
		if ok {
			return true, fmt.Sprintf("row count %d %s %s", res.RowCount, c.Operator, c.Value), nil
		}
		return false, "", nil
	case CondSpecificValue:
		if execErr != nil {
			return false, "", execErr
		}
		if len(res.Rows) == 0 {
			return false, "", nil
		}
		got, ok := res.Rows[0][c.Column]
		if !ok {
			return false, "", fmt.Errorf("specific_value condition: column %q not in result", c.Column)
		}
		return compareValue(got, c.Value, c.Operator)
	}
	return false, "", fmt.Errorf("unknown condition type %q", c.Type)
}

func compare(got, want float64, op Operator) (bool, error) {
	switch op {
	case OpEq:
		return got == want, nil
	case OpNe:
		return got != want, nil
	case OpGt:
		return got > want, nil
	case OpGte:
		return got >= want, nil
	case OpLt:
		return got < want, nil
	case OpLte:
		return got <= want, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

func compareValue(got any, want string, op Operator) (bool, string, error) {
	if n, ok := toFloat(got); ok {
		if w, err := strconv.ParseFloat(want, 64); err == nil {
			ok, err := compare(n, w, op)
			if err != nil {
				return false, "", err
			}
			if ok {
				return true, fmt.Sprintf("value %v %s %s", got, op, want), nil
			}
			return false, "", nil
		}
	}
	s := fmt.Sprint(got)
	switch op {
	case OpEq:
		if s == want {
			return true, fmt.Sprintf("value %q matches %q", s, want), nil
		}
		return false, "", nil
	case OpNe:
		if s != want {
			return true, fmt.Sprintf("value %q differs from %q", s, want), nil
		}
		return false, "", nil
	}
	return false, "", fmt.Errorf("operator %q requires numeric values", op)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(t, 64)
		return n, err == nil
	}
	return 0, false
}
