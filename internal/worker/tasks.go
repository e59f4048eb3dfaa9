package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeCatalogRefresh = "catalog:refresh"

	QueueCatalog = "catalog"
)

type CatalogRefreshPayload struct {
	EntityKind  string `json:"entity_kind"`
	SessionCode string `json:"session_code"`
}

// NewCatalogRefreshTask builds the task enqueued after a successful import.
func NewCatalogRefreshTask(entityKind, sessionCode string) (*asynq.Task, error) {
	payload, err := json.Marshal(CatalogRefreshPayload{
		EntityKind:  entityKind,
		SessionCode: sessionCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog refresh payload: %w", err)
	}
	return asynq.NewTask(TypeCatalogRefresh, payload, CatalogRefreshOptions(entityKind)...), nil
}

// CatalogRefreshTaskID is shared by every refresh of one kind, so at most one
// is queued at a time whichever session triggered it.
func CatalogRefreshTaskID(entityKind string) string {
	return TypeCatalogRefresh + ":" + entityKind
}

func CatalogRefreshOptions(entityKind string) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueCatalog),
		asynq.MaxRetry(3),
		asynq.TaskID(CatalogRefreshTaskID(entityKind)),
		asynq.Timeout(time.Minute),
	}
}
