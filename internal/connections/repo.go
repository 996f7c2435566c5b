// Package connections manages user-defined data connections (SQL, REST, CSV)
// and executes ad-hoc queries against them.
package connections

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	ormdriver "github.com/faciam-dev/goquent/orm/driver"
	"github.com/faciam-dev/goquent/orm/query"
)

// Kind distinguishes how a connection's data is fetched.
type Kind string

const (
	KindSQL  Kind = "sql"
	KindREST Kind = "rest"
	KindCSV  Kind = "csv"
)

// Connection is a user-defined data source. Secret holds the driver DSN, the
// REST base URL or the CSV path depending on Kind and is stored encrypted.
type Connection struct {
	ID        int64
	TenantID  string
	Name      string
	Kind      Kind
	Driver    string
	SecretEnc []byte
	CreatedAt time.Time
}

// Repo manages connection records.
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

func (r *Repo) table() string {
	return r.prefix() + "connections"
}

// Create inserts a new connection and returns its ID.
func (r *Repo) Create(ctx context.Context, c Connection) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, fmt.Errorf("repo not initialized")
	}
	data := map[string]any{
		"tenant_id":  c.TenantID,
		"name":       c.Name,
		"kind":       string(c.Kind),
		"driver":     c.Driver,
		"secret_enc": c.SecretEnc,
	}
	q := query.New(r.DB, r.table(), r.Dialect).WithContext(ctx)
	id, err := q.InsertGetId(data)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns all connections for a tenant.
func (r *Repo) List(ctx context.Context, tenant string) ([]Connection, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	var res []Connection
	q := query.New(r.DB, r.table(), r.Dialect).
		Select("id", "tenant_id", "name", "kind", "driver", "secret_enc", "created_at").
		Where("tenant_id", tenant).
		OrderBy("id", "asc").
		WithContext(ctx)
	if err := q.Get(&res); err != nil {
		return nil, err
	}
	return res, nil
}

// Get fetches a connection by tenant and ID.
func (r *Repo) Get(ctx context.Context, tenant string, id int64) (Connection, error) {
	if r == nil || r.DB == nil {
		return Connection{}, fmt.Errorf("repo not initialized")
	}
	var c Connection
	q := query.New(r.DB, r.table(), r.Dialect).
		Select("id", "tenant_id", "name", "kind", "driver", "secret_enc", "created_at").
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx)
	if err := q.First(&c); err != nil {
		return c, err
	}
	return c, nil
}

// Update modifies an existing connection's attributes.
func (r *Repo) Update(ctx context.Context, tenant string, id int64, name string, kind Kind, driver string, secretEnc []byte) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	data := map[string]any{"name": name, "kind": string(kind), "driver": driver}
	if len(secretEnc) > 0 {
		data["secret_enc"] = secretEnc
	}
	q := query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx)
	_, err := q.Update(data)
	return err
}

// Delete removes a connection.
func (r *Repo) Delete(ctx context.Context, tenant string, id int64) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx)
	_, err := q.Delete()
	return err
}
