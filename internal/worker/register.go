package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Queues is the priority table the worker server polls.
var Queues = map[string]int{
	QueueCatalog: 5,
	"default":    1,
}

func RegisterHandlers(mux *asynq.ServeMux, redis *redis.Client, logger logrus.FieldLogger) {
	mux.Use(loggingMiddleware(logger))

	refresh := NewCatalogRefreshHandler(redis, logger)
	mux.HandleFunc(TypeCatalogRefresh, refresh.Handle)
}

func loggingMiddleware(logger logrus.FieldLogger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			started := time.Now()
			err := next.ProcessTask(ctx, task)

			entry := logger.WithFields(logrus.Fields{
				"task":     task.Type(),
				"duration": time.Since(started).String(),
			})
			if id, ok := asynq.GetTaskID(ctx); ok {
				entry = entry.WithField("task_id", id)
			}
			if err != nil {
				entry.WithError(err).Warn("Task failed")
				return err
			}
			entry.Debug("Task done")
			return nil
		})
	}
}
