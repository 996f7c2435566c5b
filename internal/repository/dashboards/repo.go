// Package dashrepo persists dashboards and their widget placements.
package dashrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	ormdriver "github.com/faciam-dev/goquent/orm/driver"
	"github.com/faciam-dev/goquent/orm/query"

	"github.com/faciam-dev/gridbi/internal/layout"
)

// Dashboard is a named collection of widget placements.
type Dashboard struct {
	ID          int64
	TenantID    string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Placement links a widget to a dashboard. Position overrides the widget's
// default position on this dashboard only.
type Placement struct {
	DashboardID int64
	WidgetID    string
	Position    *layout.Position
}

// Repo manages dashboard records.
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

func (r *Repo) table() string     { return r.prefix() + "dashboards" }
func (r *Repo) joinTable() string { return r.prefix() + "dashboard_widgets" }

type dbDashboard struct {
	ID          int64          `db:"id"`
	TenantID    string         `db:"tenant_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func fromDB(r0 dbDashboard) Dashboard {
	d := Dashboard{
		ID:        r0.ID,
		TenantID:  r0.TenantID,
		Name:      r0.Name,
		CreatedAt: r0.CreatedAt,
		UpdatedAt: r0.UpdatedAt,
	}
	if r0.Description.Valid {
		d.Description = &r0.Description.String
	}
	return d
}

// Create inserts a dashboard and returns its ID.
func (r *Repo) Create(ctx context.Context, d Dashboard) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, fmt.Errorf("repo not initialized")
	}
	data := map[string]any{
		"tenant_id":   d.TenantID,
		"name":        d.Name,
		"description": d.Description,
	}
	return query.New(r.DB, r.table(), r.Dialect).WithContext(ctx).InsertGetId(data)
}

// List returns all dashboards for a tenant.
func (r *Repo) List(ctx context.Context, tenant string) ([]Dashboard, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.table(), r.Dialect).
		Select("id", "tenant_id", "name", "description", "created_at", "updated_at").
		Where("tenant_id", tenant).
		OrderBy("id", "asc")
	var rs []dbDashboard
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make([]Dashboard, 0, len(rs))
	for _, r0 := range rs {
		out = append(out, fromDB(r0))
	}
	return out, nil
}

// Get fetches a dashboard by tenant and ID.
func (r *Repo) Get(ctx context.Context, tenant string, id int64) (Dashboard, error) {
	if r == nil || r.DB == nil {
		return Dashboard{}, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.table(), r.Dialect).
		Select("id", "tenant_id", "name", "description", "created_at", "updated_at").
		Where("tenant_id", tenant).
		Where("id", id)
	var r0 dbDashboard
	if err := q.WithContext(ctx).First(&r0); err != nil {
		return Dashboard{}, err
	}
	return fromDB(r0), nil
}

// Update renames or redescribes a dashboard.
func (r *Repo) Update(ctx context.Context, tenant string, id int64, name string, description *string) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	_, err := query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx).
		Update(map[string]any{"name": name, "description": description, "updated_at": time.Now()})
	return err
}

// Delete removes a dashboard and its placements.
func (r *Repo) Delete(ctx context.Context, tenant string, id int64) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	if _, err := query.New(r.DB, r.joinTable(), r.Dialect).
		Where("dashboard_id", id).
		WithContext(ctx).
		Delete(); err != nil {
		return err
	}
	_, err := query.New(r.DB, r.table(), r.Dialect).
		Where("tenant_id", tenant).
		Where("id", id).
		WithContext(ctx).
		Delete()
	return err
}

// Attach places a widget on a dashboard.
func (r *Repo) Attach(ctx context.Context, dashboardID int64, widgetID string, pos *layout.Position) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	var posData any
	if pos != nil {
		b, err := json.Marshal(pos)
		if err != nil {
			return err
		}
		posData = b
	}
	data := map[string]any{
		"dashboard_id": dashboardID,
		"widget_id":    widgetID,
		"position":     posData,
	}
	_, err := query.New(r.DB, r.joinTable(), r.Dialect).WithContext(ctx).
		Upsert([]map[string]any{data}, []string{"dashboard_id", "widget_id"}, []string{"position"})
	return err
}

// Detach removes a widget from a dashboard.
func (r *Repo) Detach(ctx context.Context, dashboardID int64, widgetID string) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	_, err := query.New(r.DB, r.joinTable(), r.Dialect).
		Where("dashboard_id", dashboardID).
		Where("widget_id", widgetID).
		WithContext(ctx).
		Delete()
	return err
}

// Placements lists the widgets placed on a dashboard.
func (r *Repo) Placements(ctx context.Context, dashboardID int64) ([]Placement, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("repo not initialized")
	}
	q := query.New(r.DB, r.joinTable(), r.Dialect).
		Select("dashboard_id", "widget_id", "position").
		Where("dashboard_id", dashboardID).
		OrderBy("widget_id", "asc")
	type row struct {
		DashboardID int64  `db:"dashboard_id"`
		WidgetID    string `db:"widget_id"`
		Position    []byte `db:"position"`
	}
	var rs []row
	if err := q.WithContext(ctx).Get(&rs); err != nil {
		return nil, err
	}
	out := make([]Placement, 0, len(rs))
	for _, r0 := range rs {
		p := Placement{DashboardID: r0.DashboardID, WidgetID: r0.WidgetID}
		if len(r0.Position) > 0 {
			var pos layout.Position
			if err := json.Unmarshal(r0.Position, &pos); err != nil {
				return nil, fmt.Errorf("dashboard %d widget %s: malformed position: %w", r0.DashboardID, r0.WidgetID, err)
			}
			p.Position = &pos
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdatePosition overrides one widget's position on one dashboard. The
// layout engine issues these writes concurrently during a save.
func (r *Repo) UpdatePosition(ctx context.Context, dashboardID int64, widgetID string, pos layout.Position) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	b, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	_, err = query.New(r.DB, r.joinTable(), r.Dialect).
		Where("dashboard_id", dashboardID).
		Where("widget_id", widgetID).
		WithContext(ctx).
		Update(map[string]any{"position": b})
	return err
}
