package api

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T, ttl time.Duration) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(srv.Close)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDeduper(client, ttl), srv
}

func TestDeduperAddIsFirstWriterWins(t *testing.T) {
	d, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	added, err := d.Add(ctx, "u1", "batch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !added {
		t.Fatal("first add must report newly added")
	}

	added, err = d.Add(ctx, "u1", "batch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Fatal("replayed key must not be added again")
	}
}

func TestDeduperKeysAreScopedPerUser(t *testing.T) {
	d, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if added, _ := d.Add(ctx, "u1", "batch-1"); !added {
		t.Fatal("expected add for u1")
	}
	if added, _ := d.Add(ctx, "u2", "batch-1"); !added {
		t.Fatal("same key for a different user must be independent")
	}
}

func TestDeduperRemoveAllowsRetry(t *testing.T) {
	d, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if added, _ := d.Add(ctx, "u1", "batch-1"); !added {
		t.Fatal("expected add")
	}
	if err := d.Remove(ctx, "u1", "batch-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added, _ := d.Add(ctx, "u1", "batch-1"); !added {
		t.Fatal("removed key must be addable again")
	}
}

func TestDeduperKeysExpire(t *testing.T) {
	d, srv := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if added, _ := d.Add(ctx, "u1", "batch-1"); !added {
		t.Fatal("expected add")
	}
	ttl := srv.TTL("idem:u1:batch-1")
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl: %v", ttl)
	}

	srv.FastForward(2 * time.Minute)
	if added, _ := d.Add(ctx, "u1", "batch-1"); !added {
		t.Fatal("expired key must be addable again")
	}
}
