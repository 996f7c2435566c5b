// Package widgetsrepo persists widget definitions and their chart
// configuration.
package widgetsrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	ormdriver "github.com/faciam-dev/goquent/orm/driver"
	"github.com/faciam-dev/goquent/orm/query"
	"github.com/google/uuid"

	"github.com/faciam-dev/gridbi/internal/layout"
	"github.com/faciam-dev/gridbi/internal/widget"
)

// Filter represents query parameters for listing widgets.
type Filter struct {
	Tenant string
	Type   string
	Q      string
	Limit  int
	Offset int
}

// Row is a widget as stored. Exactly one of DatasetID or ConnectionID is
// set; CustomQuery accompanies ConnectionID.
type Row struct {
	ID           string
	TenantID     string
	Name         string
	Description  *string
	Type         string
	DatasetID    *int64
	ConnectionID *int64
	CustomQuery  *string
	Config       widget.Config
	Position     *layout.Position
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repo manages widget records.
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

func (r *Repo) table() string { return r.prefix() + "widgets" }

type dbRow struct {
	ID           string         `db:"id"`
	TenantID     string         `db:"tenant_id"`
	Name         string         `db:"name"`
	Description  sql.NullString `db:"description"`
	Type         string         `db:"type"`
	DatasetID    sql.NullInt64  `db:"dataset_id"`
	ConnectionID sql.NullInt64  `db:"connection_id"`
	CustomQuery  sql.NullString `db:"custom_query"`
	Config       []byte         `db:"config"`
	Position     []byte         `db:"position"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

var columns = []string{
	"id", "tenant_id", "name", "description", "type",
	"dataset_id", "connection_id", "custom_query",
	"config", "position", "created_at", "updated_at",
}

func fromDB(r0 dbRow) (Row, error) {
	rr := Row{
		ID:        r0.ID,
		TenantID:  r0.TenantID,
		Name:      r0.Name,
		Type:      r0.Type,
		CreatedAt: r0.CreatedAt,
		UpdatedAt: r0.UpdatedAt,
	}
	if r0.Description.Valid {
		rr.Description = &r0.Description.String
	}
	if r0.DatasetID.Valid {
		rr.DatasetID = &r0.DatasetID.Int64
	}
	if r0.ConnectionID.Valid {
		rr.ConnectionID = &r0.ConnectionID.Int64
	}
	if r0.CustomQuery.Valid {
		rr.CustomQuery = &r0.CustomQuery.String
	}
	if len(r0.Config) > 0 {
		if err := json.Unmarshal(r0.Config, &rr.Config); err != nil {
			return Row{}, fmt.Errorf("widget %s: malformed config: %w", r0.ID, err)
		}
	}
	if len(r0.Position) > 0 {
		var p layout.Position
		if err := json.Unmarshal(r0.Position, &p); err != nil {
			return Row{}, fmt.Errorf("widget %s: malformed position: %w", r0.ID, err)
		}
		rr.Position = &p
	}
	return rr, nil
}

func (r *Repo) applyFilters(q *query.Query, f Filter) {
	if f.Tenant != "" {
		q.Where("tenant_id", f.Tenant)
	}
	if f.Type != "" {
		q.Where("type", f.Type)
	}
	if f.Q != "" {
		like := "%" + f.Q + "%"
		q.WhereGroup(func(g *query.Query) {
			g.WhereRaw("name LIKE :s", map[string]any{"s": like}).
				OrWhereRaw("description LIKE :s", map[string]any{"s": like})
		})
	}
}

// List returns widgets matching the filter plus the unpaged total.
func (r *Repo) List(ctx context.Context, f Filter) ([]Row, int, error) {
	if r == nil || r.DB == nil {
		return nil, 0, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.table(), r.Dialect).Select(columns...)
	r.applyFilters(q, f)
	q.OrderBy("updated_at", "desc")
	if f.Limit > 0 {
		q.Limit(f.Limit).Offset(f.Offset)
	}
	var rs []dbRow
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, 0, err
	}
	items := make([]Row, 0, len(rs))
	for _, r0 := range rs {
		rr, err := fromDB(r0)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rr)
	}
	cq := query.New(r.DB, r.table(), r.Dialect)
	r.applyFilters(cq, f)
	cnt, err := cq.WithContext(ctx).Count("*")
	if err != nil {
		return nil, 0, err
	}
	return items, int(cnt), nil
}

// Get retrieves a widget by tenant and ID.
func (r *Repo) Get(ctx context.Context, tenant, id string) (Row, error) {
	if r == nil || r.DB == nil {
		return Row{}, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.table(), r.Dialect).
		Select(columns...).
		Where("tenant_id", tenant).
		Where("id", id)
	var r0 dbRow
	if err := q.WithContext(ctx).First(&r0); err != nil {
		return Row{}, err
	}
	return fromDB(r0)
}

// Create inserts a widget and returns its generated ID.
func (r *Repo) Create(ctx context.Context, rr Row) (string, error) {
	if r == nil || r.DB == nil {
		return "", fmt.Errorf("repo not initialized")
	}
	if rr.ID == "" {
		rr.ID = uuid.NewString()
	}
	now := time.Now()
	data, err := r.toData(rr)
	if err != nil {
		return "", err
	}
	data["id"] = rr.ID
	data["tenant_id"] = rr.TenantID
	data["created_at"] = now
	data["updated_at"] = now
	_, err = query.New(r.DB, r.table(), r.Dialect).WithContext(ctx).
		Upsert([]map[string]any{data}, []string{"id"},
			[]string{"name", "description", "type", "dataset_id", "connection_id", "custom_query", "config", "position", "updated_at"})
	if err != nil {
		return "", err
	}
	return rr.ID, nil
}

// Update replaces a widget's mutable attributes.
func (r *Repo) Update(ctx context.Context, tenant string, rr Row) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	data, err := r.toData(rr)
	if err != nil {
		return err
	}
	data["updated_at"] = time.Now()
	_, err = query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", rr.ID).
		WithContext(ctx).
		Update(data)
	return err
}

func (r *Repo) toData(rr Row) (map[string]any, error) {
	cfg, err := json.Marshal(rr.Config)
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"name":          rr.Name,
		"description":   rr.Description,
		"type":          rr.Type,
		"dataset_id":    rr.DatasetID,
		"connection_id": rr.ConnectionID,
		"custom_query":  rr.CustomQuery,
		"config":        cfg,
		"position":      nil,
	}
	if rr.Position != nil {
		pos, err := json.Marshal(rr.Position)
		if err != nil {
			return nil, err
		}
		data["position"] = pos
	}
	return data, nil
}

// SaveConfig persists only the chart configuration.
func (r *Repo) SaveConfig(ctx context.Context, tenant, id string, cfg widget.Config) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx).
		Update(map[string]any{"config": b, "updated_at": time.Now()})
	return err
}

// SavePosition persists only the widget's default grid position.
func (r *Repo) SavePosition(ctx context.Context, tenant, id string, pos layout.Position) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	b, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	_, err = query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx).
		Update(map[string]any{"position": b, "updated_at": time.Now()})
	return err
}

// Delete removes a widget.
func (r *Repo) Delete(ctx context.Context, tenant, id string) error {
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

// CountByType tallies widgets per type across all tenants.
func (r *Repo) CountByType(ctx context.Context) (map[string]int, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.table(), r.Dialect).
		SelectRaw("type AS type").
		SelectRaw("COUNT(*) AS cnt").
		GroupBy("type")
	type row struct {
		Type string `db:"type"`
		Cnt  int    `db:"cnt"`
	}
	var rs []row
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rs))
	for _, r0 := range rs {
		out[r0.Type] = r0.Cnt
	}
	return out, nil
}
