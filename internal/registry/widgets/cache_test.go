package widgets

import (
	"context"
	"testing"
	"time"
)

func TestListFilters(t *testing.T) {
	r := NewInMemory()
	ctx := context.Background()
	r.Upsert(ctx, Summary{ID: "w1", TenantID: "t1", Name: "Revenue", Type: "line"})
	r.Upsert(ctx, Summary{ID: "w2", TenantID: "t1", Name: "Signups", Type: "bar", Description: "weekly signups"})
	r.Upsert(ctx, Summary{ID: "w3", TenantID: "t2", Name: "Churn", Type: "line"})

	items, total, _, _, _ := r.List(ctx, Options{})
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3 items, got %d (%d)", len(items), total)
	}

	items, total, _, _, _ = r.List(ctx, Options{Tenant: "t1"})
	if total != 2 {
		t.Fatalf("tenant filter failed: %d", total)
	}

	items, total, _, _, _ = r.List(ctx, Options{Tenant: "t1", Type: "bar"})
	if total != 1 || items[0].ID != "w2" {
		t.Fatalf("type filter failed")
	}

	items, total, _, _, _ = r.List(ctx, Options{Q: "weekly"})
	if total != 1 || items[0].ID != "w2" {
		t.Fatalf("query filter failed")
	}
}

func TestETagChangesOnDiff(t *testing.T) {
	r := NewInMemory()
	ctx := context.Background()
	etag1, _, err := r.ApplyDiff(ctx, []Summary{{ID: "w1", Name: "A"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	etag2, _, err := r.ApplyDiff(ctx, []Summary{{ID: "w2", Name: "B"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if etag1 == etag2 {
		t.Fatalf("etag did not change after upsert")
	}
	etag3, _, err := r.ApplyDiff(ctx, nil, []string{"w2"})
	if err != nil {
		t.Fatal(err)
	}
	if etag3 == etag2 {
		t.Fatalf("etag did not change after remove")
	}
}

func TestSubscribe(t *testing.T) {
	r := NewInMemory()
	ch, unsub := r.Subscribe()
	defer unsub()
	ctx := context.Background()
	r.Upsert(ctx, Summary{ID: "w1", Name: "Revenue"})
	select {
	case ev := <-ch:
		if ev.Type != "upsert" || ev.Item == nil || ev.Item.ID != "w1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}
}
