//go:build integration

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/bomcheck/pkg/digikey"
)

// Run with a local Redis:
//
//	REDIS_ADDR=localhost:6379 go test -tags integration ./pkg/session/

func TestIntegration_RedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewRedisStore(ctx, RedisConfig{Addr: addr, Prefix: "bomcheck-test:" + time.Now().Format("150405.000") + ":"})
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer store.Close()

	storeContract(t, store)
}

func TestIntegration_RedisStoreTTL(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	store, err := NewRedisStore(ctx, RedisConfig{Addr: addr, Prefix: "bomcheck-test-ttl:"})
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer store.Close()

	sess := New(digikey.SandboxURL, "ttl", testToken(time.Hour))
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	defer store.Delete(ctx, sess.Key)

	ttl, err := store.client.TTL(ctx, store.key(sess.Key)).Result()
	if err != nil {
		t.Fatalf("TTL error: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("TTL = %v, want within (0, 1h]", ttl)
	}
}

func TestIntegration_RedisStoreSetExpiredRemovesKey(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	store, err := NewRedisStore(ctx, RedisConfig{Addr: addr, Prefix: "bomcheck-test-expired:"})
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer store.Close()

	sess := New(digikey.SandboxURL, "expired", testToken(time.Hour))
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	defer store.Delete(ctx, sess.Key)

	sess.Update(testToken(-time.Minute))
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set(expired) error: %v", err)
	}
	n, err := store.client.Exists(ctx, store.key(sess.Key)).Result()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Error("expired session should not stay in Redis")
	}
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedisStore(ctx, RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("expected connection error")
	}
}
