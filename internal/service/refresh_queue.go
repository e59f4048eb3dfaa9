package service

import (
	"context"
	"errors"

	"estate-admin/internal/importer"
	"estate-admin/internal/worker"

	"github.com/hibiken/asynq"
)

// taskEnqueuer is satisfied by *asynq.Client.
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqRefreshQueue enqueues catalog refresh tasks for the worker.
type AsynqRefreshQueue struct {
	client taskEnqueuer
}

func NewAsynqRefreshQueue(client taskEnqueuer) *AsynqRefreshQueue {
	return &AsynqRefreshQueue{client: client}
}

func (q *AsynqRefreshQueue) EnqueueRefresh(ctx context.Context, kind importer.EntityKind, sessionCode string) error {
	task, err := worker.NewCatalogRefreshTask(string(kind), sessionCode)
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		// a refresh for this kind is already pending
		return nil
	}
	return err
}
