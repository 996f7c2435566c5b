// Package datasetsrepo persists saved queries that widgets reference by ID.
package datasetsrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	ormdriver "github.com/faciam-dev/goquent/orm/driver"
	"github.com/faciam-dev/goquent/orm/query"
)

// Dataset is a named query bound to a connection. Widgets built on a
// dataset share its result shape.
type Dataset struct {
	ID           int64
	TenantID     string
	Name         string
	ConnectionID int64
	Query        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repo manages dataset records.
type Repo struct {
	DB          *sql.DB
	Dialect     ormdriver.Dialect
	Driver      string
	TablePrefix string
}

func (r *Repo) prefix() string {
	if r.TablePrefix != "" {
		return r.TablePrefix
	}
	return "gridbi_"
}

func (r *Repo) table() string { return r.prefix() + "datasets" }

// Create inserts a dataset and returns its ID.
func (r *Repo) Create(ctx context.Context, d Dataset) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, fmt.Errorf("repo not initialized")
	}
	data := map[string]any{
		"tenant_id":     d.TenantID,
		"name":          d.Name,
		"connection_id": d.ConnectionID,
		"query":         d.Query,
	}
	return query.New(r.DB, r.table(), r.Dialect).WithContext(ctx).InsertGetId(data)
}

// List returns all datasets for a tenant.
func (r *Repo) List(ctx context.Context, tenant string) ([]Dataset, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	var res []Dataset
	q := query.New(r.DB, r.table(), r.Dialect).
		Select("id", "tenant_id", "name", "connection_id", "query", "created_at", "updated_at").
		Where("tenant_id", tenant).
		OrderBy("id", "asc").
		WithContext(ctx)
	if err := q.Get(&res); err != nil {
		return nil, err
	}
	return res, nil
}

// Get fetches a dataset by tenant and ID.
func (r *Repo) Get(ctx context.Context, tenant string, id int64) (Dataset, error) {
	if r == nil || r.DB == nil {
		return Dataset{}, fmt.Errorf("repo not initialized")
	}
	var d Dataset
	q := query.New(r.DB, r.table(), r.Dialect).
		Select("id", "tenant_id", "name", "connection_id", "query", "created_at", "updated_at").
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx)
	if err := q.First(&d); err != nil {
		return d, err
	}
	return d, nil
}

// Update rewrites a dataset's name, connection or query text.
func (r *Repo) Update(ctx context.Context, tenant string, id int64, name string, connectionID int64, queryText string) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	_, err := query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx).
		Update(map[string]any{
			"name":          name,
			"connection_id": connectionID,
			"query":         queryText,
			"updated_at":    time.Now(),
		})
	return err
}

// Delete removes a dataset.
func (r *Repo) Delete(ctx context.Context, tenant string, id int64) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	_, err := query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx).
		Delete()
	return err
}
