package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/stock-tracker/internal/core/domain"
	"github.com/rl1809/stock-tracker/internal/port"
)

const testKeyPrefix = "inventory-test:"

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisSave_RoundTrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testKeyPrefix)
	defer adapter.Delete(ctx, "roundtrip")

	inv := sampleInventory()
	if err := adapter.Save(ctx, "roundtrip", inv); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := adapter.Load(ctx, "roundtrip")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.Equal(inv) {
		t.Errorf("expected %+v, got %+v", inv.Items(), loaded.Items())
	}
}

func TestRedisSave_StoresIndentedDocument(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testKeyPrefix)
	defer adapter.Delete(ctx, "document")

	inv := domain.NewInventory()
	inv.Add("apple", 7)
	if err := adapter.Save(ctx, "document", inv); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, _ := client.Get(ctx, testKeyPrefix+"snapshot:document").Result()
	if raw != "{\n    \"apple\": 7\n}" {
		t.Errorf("unexpected document: %q", raw)
	}
}

func TestRedisSave_WritesStockHash(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testKeyPrefix)
	defer adapter.Delete(ctx, "stock")

	if err := adapter.Save(ctx, "stock", sampleInventory()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	qty, err := client.HGet(ctx, testKeyPrefix+"stock:stock", "banana").Int()
	if err != nil {
		t.Fatalf("HGet failed: %v", err)
	}
	if qty != 8 {
		t.Errorf("expected banana=8, got %d", qty)
	}
}

func TestRedisSave_ReplacesStockHash(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testKeyPrefix)
	defer adapter.Delete(ctx, "replace")

	if err := adapter.Save(ctx, "replace", sampleInventory()); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := adapter.Save(ctx, "replace", domain.NewInventory()); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	n, _ := client.HLen(ctx, testKeyPrefix+"stock:replace").Result()
	if n != 0 {
		t.Errorf("expected empty stock hash, got %d fields", n)
	}

	loaded, err := adapter.Load(ctx, "replace")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != 0 {
		t.Errorf("expected empty inventory, got %d items", loaded.Len())
	}
}

func TestRedisLoad_NotFound(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testKeyPrefix)
	adapter.Delete(ctx, "missing")

	_, err := adapter.Load(ctx, "missing")
	if !errors.Is(err, port.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got: %v", err)
	}
}

func TestRedisLoad_Malformed(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testKeyPrefix)
	defer adapter.Delete(ctx, "malformed")

	client.Set(ctx, testKeyPrefix+"snapshot:malformed", `{"apple": }`, 0)

	_, err := adapter.Load(ctx, "malformed")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, port.ErrSnapshotNotFound) {
		t.Errorf("malformed data must not look like a missing snapshot: %v", err)
	}
}
