package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreWithClient(client, opts...), mr
}

func TestRedisGetOrCreateRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if sess.ID != "s1" {
		t.Fatalf("session id = %q", sess.ID)
	}

	if err := store.Append(ctx, "s1", Message{ID: "m1", Role: RoleUser, Content: "hello"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.SetDecision(ctx, "s1", RoutingDecision{Handler: "data_retriever", Confidence: 0.8}); err != nil {
		t.Fatalf("SetDecision() error = %v", err)
	}

	got, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate() reload error = %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello" {
		t.Fatalf("messages did not round-trip: %+v", got.Messages)
	}
	if got.LastDecision == nil || got.LastDecision.Handler != "data_retriever" {
		t.Fatalf("decision did not round-trip: %+v", got.LastDecision)
	}
}

func TestRedisAppendTrimsHistory(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, WithRedisMaxHistory(2))
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		if err := store.Append(ctx, "s1", Message{ID: id, Role: RoleUser}); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}

	sess, _ := store.GetOrCreate(ctx, "s1")
	if len(sess.Messages) != 2 {
		t.Fatalf("history length = %d, want 2", len(sess.Messages))
	}
	if sess.Messages[0].ID != "m2" {
		t.Fatalf("oldest message should be trimmed, head is %s", sess.Messages[0].ID)
	}
}

func TestRedisSessionsExpireByTTL(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "s1", Message{ID: "m1", Role: RoleUser, Content: "hello"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	mr.FastForward(25 * time.Hour)

	sess, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate() after expiry error = %v", err)
	}
	if len(sess.Messages) != 0 {
		t.Fatal("expired session should come back fresh")
	}
}

func TestRedisRejectsEmptySessionID(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	if _, err := store.GetOrCreate(context.Background(), ""); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestRedisKeyPrefixIsolation(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t, WithRedisKeyPrefix("other:prefix:"))
	ctx := context.Background()

	if err := store.Append(ctx, "s1", Message{ID: "m1", Role: RoleUser}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if !mr.Exists("other:prefix:s1") {
		t.Fatalf("expected key other:prefix:s1, keys: %v", mr.Keys())
	}
}
