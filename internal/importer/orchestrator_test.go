package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImporter struct {
	mu    sync.Mutex
	calls int
	got   []Record
	fn    func(ctx context.Context, records []Record) (*ImportResult, error)
}

func (f *fakeImporter) ImportBatch(ctx context.Context, _ EntityKind, records []Record) (*ImportResult, error) {
	f.mu.Lock()
	f.calls++
	f.got = records
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, records)
}

func (f *fakeImporter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func jsonBatch(n int) []byte {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"title": "Unit %d", "price": %d}`, i, 100000*(i+1))
	}
	return []byte("[" + strings.Join(items, ",") + "]")
}

func newTestOrchestrator(imp BatchImporter, mutate func(*Config)) *Orchestrator {
	logger, _ := test.NewNullLogger()
	cfg := Config{Kind: KindProperties, Importer: imp, Logger: logger}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewOrchestrator(cfg)
}

func TestOrchestratorPartialFailure(t *testing.T) {
	imp := &fakeImporter{fn: func(_ context.Context, records []Record) (*ImportResult, error) {
		return &ImportResult{
			Success: true,
			Summary: ImportSummary{Total: len(records), Imported: len(records) - 1, Failed: 1},
			Errors:  []RecordError{{Index: 4, Errors: []string{"price must be positive"}}},
		}, nil
	}}
	o := newTestOrchestrator(imp, nil)

	require.NoError(t, o.Load("batch.json", jsonBatch(10)))
	assert.Equal(t, StatePreviewing, o.State())
	assert.Len(t, o.Preview(), PreviewSize)

	result, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, result.Summary.Imported)
	assert.Len(t, imp.got, 10)

	snap := o.Snapshot()
	assert.Equal(t, StateCompleted, snap.State)
	require.NotNil(t, snap.Report)
	assert.Equal(t, "Imported 9 of 10 records", snap.Report.Toast)
	require.Len(t, snap.Report.Errors, 1)
	assert.Equal(t, 4, snap.Report.Errors[0].Index)
	assert.False(t, snap.CanSubmit)
}

func TestOrchestratorTimeoutThenRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	imp := &fakeImporter{fn: func(ctx context.Context, records []Record) (*ImportResult, error) {
		if fail.Load() {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &ImportResult{Success: true, Summary: ImportSummary{Total: len(records), Imported: len(records)}}, nil
	}}
	o := newTestOrchestrator(imp, func(c *Config) { c.UploadTimeout = 20 * time.Millisecond })

	require.NoError(t, o.Load("batch.json", jsonBatch(2)))

	_, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrUploadTimeout)

	snap := o.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, TimeoutMessage, snap.Error)
	assert.Contains(t, snap.Error, "200-300")
	assert.True(t, snap.CanSubmit)

	fail.Store(false)
	result, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, StateCompleted, o.State())
	assert.Equal(t, 2, imp.Calls())
}

func TestOrchestratorTransportError(t *testing.T) {
	imp := &fakeImporter{fn: func(context.Context, []Record) (*ImportResult, error) {
		return nil, fmt.Errorf("%w: connection refused", ErrTransport)
	}}
	o := newTestOrchestrator(imp, nil)
	require.NoError(t, o.Load("batch.json", jsonBatch(1)))

	_, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, StateFailed, o.State())
	assert.Contains(t, o.Snapshot().Error, "connection refused")
}

func TestOrchestratorRejectsSecondUpload(t *testing.T) {
	release := make(chan struct{})
	imp := &fakeImporter{fn: func(context.Context, []Record) (*ImportResult, error) {
		<-release
		return &ImportResult{Success: true, Summary: ImportSummary{Total: 1, Imported: 1}}, nil
	}}
	o := newTestOrchestrator(imp, nil)
	require.NoError(t, o.Load("batch.json", jsonBatch(1)))

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return o.State() == StateUploading }, time.Second, time.Millisecond)

	_, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrUploadInFlight)
	assert.ErrorIs(t, o.SelectFile("other.json", jsonBatch(1)), ErrInvalidTransition)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCompleted, o.State())
	assert.Equal(t, 1, imp.Calls())
}

func TestOrchestratorCancelDropsLateResponse(t *testing.T) {
	release := make(chan struct{})
	imp := &fakeImporter{fn: func(context.Context, []Record) (*ImportResult, error) {
		<-release
		return &ImportResult{Success: true, Summary: ImportSummary{Total: 1, Imported: 1}}, nil
	}}
	var refreshed atomic.Int32
	o := newTestOrchestrator(imp, func(c *Config) {
		c.OnRefresh = func(context.Context, EntityKind, *ImportResult) { refreshed.Add(1) }
	})
	require.NoError(t, o.Load("batch.json", jsonBatch(1)))

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return o.State() == StateUploading }, time.Second, time.Millisecond)

	o.Cancel()
	close(release)

	assert.ErrorIs(t, <-done, ErrCancelled)
	snap := o.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Result)
	assert.Zero(t, snap.RecordCount)
	assert.Zero(t, refreshed.Load())
}

func TestOrchestratorRefreshOnlyOnSuccess(t *testing.T) {
	var success atomic.Bool
	imp := &fakeImporter{fn: func(_ context.Context, records []Record) (*ImportResult, error) {
		if success.Load() {
			return &ImportResult{Success: true, Summary: ImportSummary{Total: len(records), Imported: len(records)}}, nil
		}
		return &ImportResult{
			Success: false,
			Message: "Validation failed",
			Summary: ImportSummary{Total: len(records), Failed: len(records)},
		}, nil
	}}

	var kinds []EntityKind
	o := newTestOrchestrator(imp, func(c *Config) {
		c.OnRefresh = func(_ context.Context, kind EntityKind, _ *ImportResult) { kinds = append(kinds, kind) }
	})

	require.NoError(t, o.Load("batch.json", jsonBatch(3)))
	result, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, StateCompleted, o.State())
	assert.Empty(t, kinds)

	success.Store(true)
	require.NoError(t, o.Load("batch.json", jsonBatch(3)))
	_, err = o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []EntityKind{KindProperties}, kinds)
}

func TestOrchestratorLargeBatchNotice(t *testing.T) {
	imp := &fakeImporter{fn: func(_ context.Context, records []Record) (*ImportResult, error) {
		return &ImportResult{Success: true, Summary: ImportSummary{Total: len(records), Imported: len(records)}}, nil
	}}
	o := newTestOrchestrator(imp, func(c *Config) { c.LargeBatchThreshold = 5 })

	require.NoError(t, o.Load("batch.json", jsonBatch(5)))
	_, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, o.Snapshot().Notices)

	require.NoError(t, o.Load("batch.json", jsonBatch(6)))
	previewing := o.Snapshot()
	assert.Equal(t, StatePreviewing, previewing.State)
	require.Len(t, previewing.Notices, 1)
	assert.Contains(t, previewing.Notices[0], "6 records")

	_, err = o.Submit(context.Background())
	require.NoError(t, err)
	notices := o.Snapshot().Notices
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "6 records")
}

func TestOrchestratorRejectsUnsupportedFile(t *testing.T) {
	o := newTestOrchestrator(&fakeImporter{}, nil)

	err := o.SelectFile("listing.csv", []byte("title\nA"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	snap := o.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.NotEmpty(t, snap.Error)
	assert.Empty(t, snap.FileName)
}

func TestOrchestratorRejectsOversizedFile(t *testing.T) {
	o := newTestOrchestrator(&fakeImporter{}, func(c *Config) { c.MaxFileBytes = 8 })

	err := o.SelectFile("batch.json", jsonBatch(3))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, StateIdle, o.State())
}

func TestOrchestratorDecodeFailureReturnsToIdle(t *testing.T) {
	o := newTestOrchestrator(&fakeImporter{}, nil)

	require.NoError(t, o.SelectFile("batch.json", []byte(`{"title": "not an array"}`)))
	assert.Equal(t, StateFileSelected, o.State())

	err := o.Decode()
	assert.ErrorIs(t, err, ErrNotAnArray)

	snap := o.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, ErrNotAnArray.Error(), snap.Error)
	assert.Empty(t, snap.FileName)
}

func TestOrchestratorInvalidTransitions(t *testing.T) {
	o := newTestOrchestrator(&fakeImporter{}, nil)

	assert.ErrorIs(t, o.Decode(), ErrInvalidTransition)
	_, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrchestratorWithoutImporter(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	require.NoError(t, o.Load("batch.json", jsonBatch(1)))

	_, err := o.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, StatePreviewing, o.State())
}

func TestSnapshotSummary(t *testing.T) {
	o := newTestOrchestrator(&fakeImporter{}, nil)
	require.NoError(t, o.Load("batch.json", jsonBatch(4)))

	assert.Equal(t, "properties import: previewing (batch.json, 4 records)", o.Snapshot().Summary())
}

func TestOrchestratorSubmitAsync(t *testing.T) {
	imp := &fakeImporter{fn: func(_ context.Context, records []Record) (*ImportResult, error) {
		return &ImportResult{Success: true, Summary: ImportSummary{Total: len(records), Imported: len(records)}}, nil
	}}
	o := newTestOrchestrator(imp, nil)

	assert.ErrorIs(t, o.SubmitAsync(context.Background(), nil), ErrInvalidTransition)

	require.NoError(t, o.Load("batch.json", jsonBatch(2)))
	done := make(chan *ImportResult, 1)
	require.NoError(t, o.SubmitAsync(context.Background(), func(r *ImportResult, err error) {
		assert.NoError(t, err)
		done <- r
	}))

	select {
	case r := <-done:
		assert.Equal(t, 2, r.Summary.Imported)
	case <-time.After(time.Second):
		t.Fatal("upload did not finish")
	}
	assert.Equal(t, StateCompleted, o.State())
}
