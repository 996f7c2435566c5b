package schema

import "time"

// Dataset is a saved query bound to a connection.
type Dataset struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ConnectionID int64     `json:"connectionId"`
	Query        string    `json:"query"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateDataset is the input for saving a query as a dataset.
type CreateDataset struct {
	Name         string `json:"name" minLength:"1" maxLength:"255"`
	ConnectionID int64  `json:"connectionId"`
	Query        string `json:"query" minLength:"1"`
}

// UpdateDataset rewrites a dataset.
type UpdateDataset struct {
	Name         string `json:"name" minLength:"1" maxLength:"255"`
	ConnectionID int64  `json:"connectionId"`
	Query        string `json:"query" minLength:"1"`
}
