package schema

import (
	"time"

	"github.com/faciam-dev/gridbi/internal/connections"
)

// Connection is a stored data source. The secret (DSN, base URL or file
// path) is never returned.
type Connection struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind" enum:"sql,rest,csv"`
	Driver    string    `json:"driver,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateConnection is the input for adding a data source. Secret is the
// DSN for sql, the base URL for rest and the file path for csv.
type CreateConnection struct {
	Name   string `json:"name" minLength:"1" maxLength:"255"`
	Kind   string `json:"kind" enum:"sql,rest,csv"`
	Driver string `json:"driver,omitempty"`
	Secret string `json:"secret" minLength:"1"`
}

// UpdateConnection rewrites a connection. An empty secret keeps the stored
// one.
type UpdateConnection struct {
	Name   string `json:"name" minLength:"1" maxLength:"255"`
	Kind   string `json:"kind" enum:"sql,rest,csv"`
	Driver string `json:"driver,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// ExecuteQuery runs an ad-hoc query against a connection.
type ExecuteQuery struct {
	ConnectionID int64  `json:"connectionId"`
	Query        string `json:"query"`
}

// QueryResult is the column/row preview plus the partitioned column names
// the field mapping editor consumes.
type QueryResult struct {
	Columns   []connections.Column `json:"columns"`
	Rows      []map[string]any     `json:"rows"`
	RowCount  int                  `json:"rowCount"`
	Truncated bool                 `json:"truncated,omitempty"`
	String    []string             `json:"stringColumns"`
	Numeric   []string             `json:"numericColumns"`
	All       []string             `json:"allColumns"`
}
