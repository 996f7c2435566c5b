// Package widgets keeps an in-memory catalog of widget summaries so the
// dashboard editor can list widgets without a DB round trip. The catalog
// is primed from the widgets table and kept fresh through change
// notifications (in-process, Postgres NOTIFY, or redis pub/sub).
package widgets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/faciam-dev/gridbi/internal/util"
)

// Summary is the catalog view of a widget: enough for a picker or a
// dashboard sidebar, without the full chart config.
type Summary struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Event struct {
	Type string
	Item *Summary
	ID   string
}

type Options struct {
	Tenant string
	Type   string
	Q      string
	Limit  int
	Offset int
}

type Registry interface {
	List(ctx context.Context, opt Options) ([]Summary, int, string, time.Time, error)
	Upsert(ctx context.Context, s Summary) error
	Remove(ctx context.Context, id string) error
	ApplyDiff(ctx context.Context, upserts []Summary, removes []string) (string, time.Time, error)
	Subscribe() (<-chan Event, func())
}

type inMemory struct {
	mu      sync.RWMutex
	items   map[string]Summary
	subs    map[chan Event]struct{}
	lastMod time.Time
	etag    string
}

func NewInMemory() Registry {
	return &inMemory{
		items: make(map[string]Summary),
		subs:  make(map[chan Event]struct{}),
	}
}

func (r *inMemory) List(ctx context.Context, opt Options) ([]Summary, int, string, time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []Summary
	for _, s := range r.items {
		if opt.Tenant != "" && s.TenantID != opt.Tenant {
			continue
		}
		if opt.Type != "" && s.Type != opt.Type {
			continue
		}
		if opt.Q != "" {
			q := strings.ToLower(opt.Q)
			if !strings.Contains(strings.ToLower(s.Name), q) &&
				!strings.Contains(strings.ToLower(s.Description), q) {
				continue
			}
		}
		filtered = append(filtered, s)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })
	total := len(filtered)

	if opt.Offset < 0 {
		opt.Offset = 0
	}
	opt.Limit = util.SanitizeLimit(opt.Limit)
	start := opt.Offset
	if start > total {
		start = total
	}
	end := start + opt.Limit
	if end > total {
		end = total
	}
	items := append([]Summary{}, filtered[start:end]...)

	return items, total, r.etag, r.lastMod, nil
}

func (r *inMemory) Upsert(ctx context.Context, s Summary) error {
	_, _, err := r.ApplyDiff(ctx, []Summary{s}, nil)
	return err
}

func (r *inMemory) Remove(ctx context.Context, id string) error {
	_, _, err := r.ApplyDiff(ctx, nil, []string{id})
	return err
}

func (r *inMemory) ApplyDiff(ctx context.Context, upserts []Summary, removes []string) (string, time.Time, error) {
	r.mu.Lock()
	for _, s := range upserts {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now().UTC()
		}
		r.items[s.ID] = s
	}
	for _, id := range removes {
		delete(r.items, id)
	}
	r.etag, r.lastMod = computeStateHash(r.items)
	subs := cloneSubs(r.subs)
	r.mu.Unlock()

	for _, s := range upserts {
		ss := s
		broadcast(subs, Event{Type: "upsert", Item: &ss})
	}
	for _, id := range removes {
		broadcast(subs, Event{Type: "remove", ID: id})
	}

	return r.etag, r.lastMod, nil
}

func (r *inMemory) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16) // allow brief slowdowns without dropping events
	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()
	return ch, func() {
		r.mu.Lock()
		delete(r.subs, ch)
		r.mu.Unlock()
	}
}

func broadcast(subs map[chan Event]struct{}, ev Event) {
	for ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func cloneSubs(m map[chan Event]struct{}) map[chan Event]struct{} {
	out := make(map[chan Event]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func computeStateHash(items map[string]Summary) (string, time.Time) {
	if len(items) == 0 {
		sum := sha256.Sum256(nil)
		return "\"" + hex.EncodeToString(sum[:]) + "\"", time.Time{}
	}
	parts := make([]string, 0, len(items))
	var last time.Time
	for _, s := range items {
		if s.UpdatedAt.After(last) {
			last = s.UpdatedAt
		}
		parts = append(parts, s.ID+"#"+s.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	sort.Strings(parts)
	h := sha256.Sum256([]byte(strings.Join(parts, "")))
	return "\"" + hex.EncodeToString(h[:]) + "\"", last
}
