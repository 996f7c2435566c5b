package widgets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is a widget change message on the redis channel.
type Event struct {
	Type   string    `json:"type"`
	Tenant string    `json:"tenant,omitempty"`
	ID     string    `json:"id,omitempty"`
	TS     time.Time `json:"ts"`
}

// RedisNotifier publishes widget change events to a redis channel.
type RedisNotifier struct {
	RDB     *redis.Client
	Channel string
}

// NewRedisNotifier constructs a RedisNotifier.
func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{RDB: rdb, Channel: channel}
}

// WidgetChanged publishes an upsert event. Subscribers that cannot load
// the widget treat it as removed.
func (n *RedisNotifier) WidgetChanged(ctx context.Context, tenant, id string) error {
	if n.RDB == nil {
		return nil
	}
	b, err := json.Marshal(Event{Type: "upsert", Tenant: tenant, ID: id, TS: time.Now().UTC()})
	if err != nil {
		return err
	}
	return n.RDB.Publish(ctx, n.Channel, b).Err()
}
