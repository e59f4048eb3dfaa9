package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryEnqueuer rejects a second task with an ID that is still queued, the
// way the asynq client does.
type memoryEnqueuer struct {
	queued  map[string]*asynq.Task
	failure error
}

func (m *memoryEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	id := task.Type() + ":" + kindOf(task)
	if _, ok := m.queued[id]; ok {
		return nil, fmt.Errorf("enqueue %s: %w", id, asynq.ErrTaskIDConflict)
	}
	m.queued[id] = task
	return &asynq.TaskInfo{ID: id}, nil
}

func kindOf(task *asynq.Task) string {
	var p struct {
		EntityKind string `json:"entity_kind"`
	}
	_ = json.Unmarshal(task.Payload(), &p)
	return p.EntityKind
}

func TestRefreshQueueKeepsOnePendingRefreshPerKind(t *testing.T) {
	enq := &memoryEnqueuer{queued: map[string]*asynq.Task{}}
	q := NewAsynqRefreshQueue(enq)
	ctx := context.Background()

	require.NoError(t, q.EnqueueRefresh(ctx, "cities", "IMPORT-00000001"))
	require.NoError(t, q.EnqueueRefresh(ctx, "cities", "IMPORT-00000002"))
	require.NoError(t, q.EnqueueRefresh(ctx, "areas", "IMPORT-00000003"))

	assert.Len(t, enq.queued, 2)
	assert.Contains(t, enq.queued, "catalog:refresh:cities")
	assert.Contains(t, enq.queued, "catalog:refresh:areas")
}

func TestRefreshQueueReturnsEnqueueErrors(t *testing.T) {
	boom := errors.New("redis down")
	q := NewAsynqRefreshQueue(&memoryEnqueuer{failure: boom})

	err := q.EnqueueRefresh(context.Background(), "cities", "IMPORT-00000001")
	assert.ErrorIs(t, err, boom)
}
