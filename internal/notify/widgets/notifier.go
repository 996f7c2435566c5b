// Package widgets tells other API replicas that a widget changed so
// their catalog caches stay fresh.
package widgets

import (
	"context"
	"database/sql"
	"encoding/json"
)

// Notifier emits a Postgres NOTIFY on the widgets_changed channel.
type Notifier struct {
	DB *sql.DB
}

// WidgetChanged emits a database notification for one widget.
func (n *Notifier) WidgetChanged(ctx context.Context, tenant, id string) error {
	if n.DB == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]string{"tenant": tenant, "id": id})
	if err != nil {
		return err
	}
	_, err = n.DB.ExecContext(ctx, `SELECT pg_notify('widgets_changed', $1)`, string(payload))
	return err
}
