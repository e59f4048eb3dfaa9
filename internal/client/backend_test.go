package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"estate-admin/internal/importer"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger, _ := test.NewNullLogger()
	return NewBackend(Options{BaseURL: srv.URL + "/", Token: "secret-token", Logger: logger})
}

func TestImportBatch(t *testing.T) {
	var got []map[string]any
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/properties/bulk-import", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"success": true,
			"message": "Imported 1 of 2 properties",
			"summary": {"total": 2, "imported": 1, "skipped": 0, "failed": 1},
			"errors": [{"index": 1, "identifier": "Flat B", "errors": ["price is required"]}],
			"imageWarnings": [{"index": 0, "url": "https://cdn.example.com/a.jpg", "message": "unreachable"}]
		}`)
	})

	result, err := backend.ImportBatch(context.Background(), importer.KindProperties, []importer.Record{
		{"title": "Villa A", "price": 1500000.0},
		{"title": "Flat B"},
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Villa A", got[0]["title"])
	assert.True(t, result.Success)
	assert.Equal(t, importer.ImportSummary{Total: 2, Imported: 1, Failed: 1}, result.Summary)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Flat B", result.Errors[0].Identifier)
	require.Len(t, result.ImageWarnings, 1)
	assert.Equal(t, "unreachable", result.ImageWarnings[0].Message)
}

func TestImportBatchReturnsResultOnValidationFailure(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"success": false, "message": "Validation failed", "summary": {"total": 1, "failed": 1}}`)
	})

	result, err := backend.ImportBatch(context.Background(), importer.KindLeads, []importer.Record{{"name": "x"}})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Validation failed", result.Message)
	assert.Equal(t, 1, result.Summary.Failed)
}

func TestImportBatchUnexpectedResponse(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := backend.ImportBatch(context.Background(), importer.KindCities, []importer.Record{{"name": "Cairo"}})
	assert.ErrorIs(t, err, importer.ErrTransport)
	assert.Contains(t, err.Error(), "status=502")
}

func TestImportBatchTimeout(t *testing.T) {
	release := make(chan struct{})
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := backend.ImportBatch(ctx, importer.KindAreas, []importer.Record{{"name": "Maadi"}})
	assert.ErrorIs(t, err, importer.ErrUploadTimeout)
}

func TestImportBatchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	backend := NewBackend(Options{BaseURL: url})
	_, err := backend.ImportBatch(context.Background(), importer.KindUsers, []importer.Record{{"email": "a@b.c"}})
	assert.ErrorIs(t, err, importer.ErrTransport)
}

func TestJSONTemplate(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/developers/template", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = io.WriteString(w, `[{"name":"Example Developments"}]`)
	})

	raw, err := backend.JSONTemplate(context.Background(), importer.KindDevelopers)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Example Developments"}]`, string(raw))
}

func TestJSONTemplateUnwrapsEnvelope(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success": true, "data": [{"name": "Giza"}]}`)
	})

	raw, err := backend.JSONTemplate(context.Background(), importer.KindGovernorates)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "Giza"}]`, string(raw))
}

func TestExcelTemplate(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "excel", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", importer.ContentTypeExcel)
		_, _ = w.Write([]byte("PK\x03\x04"))
	})

	data, err := backend.ExcelTemplate(context.Background(), importer.KindLaunches)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), data)
}

func TestTemplateNotFound(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no template", http.StatusNotFound)
	})

	_, err := backend.ExcelTemplate(context.Background(), importer.KindLaunches)
	assert.ErrorIs(t, err, importer.ErrTransport)
}
