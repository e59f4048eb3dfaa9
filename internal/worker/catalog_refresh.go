package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"estate-admin/internal/importer"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const scanBatch = 200

// catalogCache is the subset of the redis client the refresh needs.
type catalogCache interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CatalogRefreshHandler drops the cached public listing pages of one entity
// kind so freshly imported records show up on the next read.
type CatalogRefreshHandler struct {
	cache  catalogCache
	logger logrus.FieldLogger
}

func NewCatalogRefreshHandler(cache catalogCache, logger logrus.FieldLogger) *CatalogRefreshHandler {
	return &CatalogRefreshHandler{cache: cache, logger: logger}
}

func CatalogKeyPattern(kind importer.EntityKind) string {
	return fmt.Sprintf("catalog:%s:*", kind)
}

func (h *CatalogRefreshHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload CatalogRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	kind, err := importer.ParseEntityKind(payload.EntityKind)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	log := h.logger.WithFields(logrus.Fields{
		"entity_kind":  kind,
		"session_code": payload.SessionCode,
	})

	pattern := CatalogKeyPattern(kind)
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := h.cache.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := h.cache.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete catalog keys: %w", err)
			}
			deleted += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	log.WithField("deleted_keys", deleted).Info("Catalog cache refreshed after import")
	return nil
}
