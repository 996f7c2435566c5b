package widgets

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

// Notifier fans a widget change out to other replicas.
type Notifier interface {
	WidgetChanged(ctx context.Context, tenant, id string) error
}

// Refresher applies a local widget mutation to the catalog and tells
// other replicas about it. The API handlers call it after every write;
// a nil Refresher is a no-op so the catalog stays optional.
type Refresher struct {
	Store     Store
	Reg       Registry
	Notifiers []Notifier
	Logger    *slog.Logger
}

// WidgetChanged refreshes one widget in the catalog. A missing row
// means the widget was deleted.
func (r *Refresher) WidgetChanged(ctx context.Context, tenant, id string) {
	if r == nil {
		return
	}
	row, err := r.Store.Get(ctx, tenant, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := r.Reg.Remove(ctx, id); err != nil && r.Logger != nil {
			r.Logger.Warn("catalog remove", "widget", id, "err", err)
		}
	case err != nil:
		if r.Logger != nil {
			r.Logger.Warn("catalog refresh", "widget", id, "err", err)
		}
		return
	default:
		if err := r.Reg.Upsert(ctx, FromRow(row)); err != nil && r.Logger != nil {
			r.Logger.Warn("catalog upsert", "widget", id, "err", err)
		}
	}
	for _, n := range r.Notifiers {
		if err := n.WidgetChanged(ctx, tenant, id); err != nil && r.Logger != nil {
			r.Logger.Warn("widget change notify", "widget", id, "err", err)
		}
	}
}
