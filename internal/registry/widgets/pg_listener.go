package widgets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PGListener keeps the catalog fresh across replicas via Postgres
// LISTEN/NOTIFY on the widgets_changed channel.
type PGListener struct {
	ConnString string
	Store      Store
	Reg        Registry
	Logger     *slog.Logger
}

func NewPGListener(conn string, store Store, reg Registry, logger *slog.Logger) *PGListener {
	return &PGListener{ConnString: conn, Store: store, Reg: reg, Logger: logger}
}

type changePayload struct {
	Tenant string `json:"tenant"`
	ID     string `json:"id"`
}

func (l *PGListener) Start(ctx context.Context) (func(), error) {
	listener := pq.NewListener(l.ConnString, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil && l.Logger != nil {
			l.Logger.Error("pg listener", "err", err)
		}
	})
	if err := listener.Listen("widgets_changed"); err != nil {
		return nil, err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				listener.Close()
				return
			case n := <-listener.Notify:
				if n == nil {
					continue
				}
				l.apply(ctx, n.Extra)
			}
		}
	}()
	return func() { listener.Close() }, nil
}

func (l *PGListener) apply(ctx context.Context, payload string) {
	var p changePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		if l.Logger != nil {
			l.Logger.Warn("invalid notify payload", "payload", payload, "err", err)
		}
		return
	}
	row, err := l.Store.Get(ctx, p.Tenant, p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = l.Reg.Remove(ctx, p.ID)
		} else if l.Logger != nil {
			l.Logger.Warn("store get", "widget", p.ID, "err", err)
		}
		return
	}
	if err := l.Reg.Upsert(ctx, FromRow(row)); err != nil && l.Logger != nil {
		l.Logger.Warn("catalog upsert", "widget", p.ID, "err", err)
	}
}
