package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"estate-admin/internal/importer"

	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "import:session:"

// RedisSnapshotCache stores session snapshots as JSON with a TTL.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(code string) string {
	return snapshotKeyPrefix + code
}

func (c *RedisSnapshotCache) Save(ctx context.Context, code string, snap importer.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return c.client.Set(ctx, snapshotKey(code), data, c.ttl).Err()
}

func (c *RedisSnapshotCache) Load(ctx context.Context, code string) (*importer.Snapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap importer.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
