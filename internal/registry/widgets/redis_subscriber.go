package widgets

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	widgetsrepo "github.com/faciam-dev/gridbi/internal/repository/widgets"
)

// RedisSubscriber consumes widget change events from redis and updates
// the catalog. Used when replicas cannot share a Postgres NOTIFY bus.
type RedisSubscriber struct {
	RDB          *redis.Client
	Channel      string
	Store        Store
	Reg          Registry
	Logger       *slog.Logger
	BackoffMS    int
	BackoffMaxMS int
}

type message struct {
	Type   string    `json:"type"`
	Tenant string    `json:"tenant,omitempty"`
	ID     string    `json:"id,omitempty"`
	TS     time.Time `json:"ts"`
}

// Start begins consuming events in a background goroutine.
func (s *RedisSubscriber) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		backoff := time.Duration(s.BackoffMS) * time.Millisecond
		max := time.Duration(s.BackoffMaxMS) * time.Millisecond
		for {
			if err := s.loop(ctx); err != nil && s.Logger != nil {
				s.Logger.Warn("redis subscribe loop error", "err", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
				backoff *= 2
				if backoff > max {
					backoff = max
				}
			}
		}
	}()
	return func() { cancel() }
}

func (s *RedisSubscriber) loop(ctx context.Context) error {
	sub := s.RDB.Subscribe(ctx, s.Channel)
	ch := sub.Channel()
	if _, err := s.RDB.Ping(ctx).Result(); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("subscribed", "channel", s.Channel)
	}
	for {
		select {
		case <-ctx.Done():
			_ = sub.Close()
			return nil
		case msg, ok := <-ch:
			if !ok {
				_ = sub.Close()
				return context.Canceled
			}
			var ev message
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				if s.Logger != nil {
					s.Logger.Warn("invalid payload", "payload", msg.Payload, "err", err)
				}
				continue
			}
			s.apply(ctx, ev)
		}
	}
}

func (s *RedisSubscriber) apply(ctx context.Context, ev message) {
	switch ev.Type {
	case "upsert":
		row, err := s.Store.Get(ctx, ev.Tenant, ev.ID)
		if err != nil {
			_ = s.Reg.Remove(ctx, ev.ID)
			return
		}
		_ = s.Reg.Upsert(ctx, FromRow(row))
	case "remove":
		_ = s.Reg.Remove(ctx, ev.ID)
	case "reload":
		rows, _, err := s.Store.List(ctx, widgetsrepo.Filter{})
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("reload list failed", "err", err)
			}
			return
		}
		ups := make([]Summary, 0, len(rows))
		for _, r := range rows {
			ups = append(ups, FromRow(r))
		}
		_, _, _ = s.Reg.ApplyDiff(ctx, ups, nil)
	default:
		if s.Logger != nil {
			s.Logger.Warn("unknown event type", "type", ev.Type)
		}
	}
}
