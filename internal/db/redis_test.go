package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis spins up an in-memory Redis and a store wired to it.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	store := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: s.Addr()}),
		Ctx:    context.Background(),
	}
	t.Cleanup(store.Close)
	return s, store
}

func TestIncrementSubmission(t *testing.T) {
	s, store := setupTestRedis(t)

	n, err := store.IncrementSubmission("rep-1", time.Hour)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}

	n, err = store.IncrementSubmission("rep-1", time.Hour)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}

	// the window TTL is set on first increment only
	ttl := s.TTL("submissions:rep-1")
	if ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	// counters expire with the window
	s.FastForward(time.Hour + time.Second)
	n, err = store.IncrementSubmission("rep-1", time.Hour)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected counter reset to 1, got %d", n)
	}
}

func TestDailyCount(t *testing.T) {
	_, store := setupTestRedis(t)

	if n := store.GetDailyCount("hazard"); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
	for i := 0; i < 3; i++ {
		if err := store.IncrementDailyCount("hazard"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if n := store.GetDailyCount("hazard"); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	if n := store.GetDailyCount("damage"); n != 0 {
		t.Fatalf("expected 0 for other category, got %d", n)
	}
}

func TestPublishUpdate(t *testing.T) {
	_, store := setupTestRedis(t)

	sub := store.Client.Subscribe(store.Ctx, UpdatesChannel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(store.Ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	store.PublishUpdate("report", "report-1", "created")

	select {
	case msg := <-sub.Channel():
		if msg.Payload == "" {
			t.Fatal("expected payload")
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}
