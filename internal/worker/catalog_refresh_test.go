package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanPage struct {
	keys []string
	next uint64
}

type fakeCache struct {
	pages   map[uint64]scanPage
	match   string
	deleted []string
	scanErr error
}

func (f *fakeCache) Scan(_ context.Context, cursor uint64, match string, _ int64) *redis.ScanCmd {
	f.match = match
	if f.scanErr != nil {
		return redis.NewScanCmdResult(nil, 0, f.scanErr)
	}
	p := f.pages[cursor]
	return redis.NewScanCmdResult(p.keys, p.next, nil)
}

func (f *fakeCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.deleted = append(f.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestCatalogRefreshDeletesEveryPage(t *testing.T) {
	cache := &fakeCache{pages: map[uint64]scanPage{
		0:  {keys: []string{"catalog:properties:page:1", "catalog:properties:page:2"}, next: 42},
		42: {keys: []string{"catalog:properties:featured"}, next: 0},
	}}
	logger, _ := test.NewNullLogger()
	h := NewCatalogRefreshHandler(cache, logger)

	task, err := NewCatalogRefreshTask("properties", "IMPORT-1a2b3c4d")
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), task))

	assert.Equal(t, "catalog:properties:*", cache.match)
	assert.Equal(t, []string{
		"catalog:properties:page:1",
		"catalog:properties:page:2",
		"catalog:properties:featured",
	}, cache.deleted)
}

func TestCatalogRefreshSkipsRetryOnBadPayload(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewCatalogRefreshHandler(&fakeCache{}, logger)

	err := h.Handle(context.Background(), asynq.NewTask(TypeCatalogRefresh, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewCatalogRefreshTask("villas", "IMPORT-1a2b3c4d")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestCatalogRefreshReturnsScanError(t *testing.T) {
	logger, _ := test.NewNullLogger()
	boom := errors.New("redis down")
	h := NewCatalogRefreshHandler(&fakeCache{scanErr: boom}, logger)

	task, err := NewCatalogRefreshTask("cities", "IMPORT-1a2b3c4d")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Handle(context.Background(), task), boom)
}

func TestLoggingMiddlewareReportsFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	failing := asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return errors.New("boom")
	})

	err := loggingMiddleware(logger)(failing).ProcessTask(context.Background(), asynq.NewTask(TypeCatalogRefresh, nil))
	require.Error(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Task failed", hook.LastEntry().Message)
	assert.Equal(t, TypeCatalogRefresh, hook.LastEntry().Data["task"])
}

func TestRefreshTaskOptions(t *testing.T) {
	task, err := NewCatalogRefreshTask("areas", "IMPORT-00000001")
	require.NoError(t, err)
	assert.Equal(t, TypeCatalogRefresh, task.Type())
	assert.JSONEq(t, `{"entity_kind":"areas","session_code":"IMPORT-00000001"}`, string(task.Payload()))
}

func TestRefreshTaskIDIsPerKind(t *testing.T) {
	optionValues := func(kind string) map[asynq.OptionType]any {
		values := map[asynq.OptionType]any{}
		for _, opt := range CatalogRefreshOptions(kind) {
			values[opt.Type()] = opt.Value()
		}
		return values
	}

	cities := optionValues("cities")
	assert.Equal(t, "catalog:refresh:cities", cities[asynq.TaskIDOpt])
	assert.Equal(t, QueueCatalog, cities[asynq.QueueOpt])
	assert.Equal(t, 3, cities[asynq.MaxRetryOpt])
	_, unique := cities[asynq.UniqueOpt]
	assert.False(t, unique)

	assert.Equal(t, "catalog:refresh:areas", optionValues("areas")[asynq.TaskIDOpt])
	assert.Equal(t, CatalogRefreshTaskID("cities"), cities[asynq.TaskIDOpt])
}
