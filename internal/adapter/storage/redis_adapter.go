package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/stock-tracker/internal/core/domain"
	"github.com/rl1809/stock-tracker/internal/port"
)

const (
	snapshotKeySegment = "snapshot:"
	stockKeySegment    = "stock:"
)

var _ port.SnapshotRepository = (*RedisAdapter)(nil)

// RedisAdapter stores each snapshot as an indented JSON document and keeps
// a hash of per-item stock next to it for other readers of the same Redis.
type RedisAdapter struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisAdapter(client *redis.Client, keyPrefix string) *RedisAdapter {
	return &RedisAdapter{client: client, keyPrefix: keyPrefix}
}

func (r *RedisAdapter) Load(ctx context.Context, name string) (*domain.Inventory, error) {
	data, err := r.client.Get(ctx, r.snapshotKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", name, port.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	inv := domain.NewInventory()
	if err := json.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return inv, nil
}

// Save writes the document and rebuilds the stock hash in one MULTI/EXEC.
func (r *RedisAdapter) Save(ctx context.Context, name string, inv *domain.Inventory) error {
	data, err := json.MarshalIndent(inv, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	items := inv.Items()
	fields := make([]any, 0, len(items)*2)
	for _, item := range items {
		fields = append(fields, item.Name, item.Quantity)
	}

	stockKey := r.stockKey(name)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.snapshotKey(name), data, 0)
		pipe.Del(ctx, stockKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, stockKey, fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot and its stock hash.
func (r *RedisAdapter) Delete(ctx context.Context, name string) error {
	return r.client.Del(ctx, r.snapshotKey(name), r.stockKey(name)).Err()
}

func (r *RedisAdapter) snapshotKey(name string) string {
	return r.keyPrefix + snapshotKeySegment + name
}

func (r *RedisAdapter) stockKey(name string) string {
	return r.keyPrefix + stockKeySegment + name
}
