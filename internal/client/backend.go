package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"estate-admin/internal/importer"

	"github.com/sirupsen/logrus"
)

const maxErrorBody = 512

// Backend talks to the admin API that owns the catalog. It implements
// importer.BatchImporter and importer.TemplateSource.
type Backend struct {
	baseURL         string
	token           string
	client          *http.Client
	templateTimeout time.Duration
	logger          logrus.FieldLogger
}

type Options struct {
	BaseURL string
	Token   string
	// TemplateTimeout bounds template downloads. Batch uploads are bounded
	// by the caller's context.
	TemplateTimeout time.Duration
	HTTPClient      *http.Client
	Logger          logrus.FieldLogger
}

func NewBackend(opts Options) *Backend {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.TemplateTimeout <= 0 {
		opts.TemplateTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Backend{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		token:           opts.Token,
		client:          opts.HTTPClient,
		templateTimeout: opts.TemplateTimeout,
		logger:          opts.Logger,
	}
}

// ImportBatch posts records to /{kind}/bulk-import. Any response carrying an
// import result is returned as such, whatever its status code.
func (b *Backend) ImportBatch(ctx context.Context, kind importer.EntityKind, records []importer.Record) (*importer.ImportResult, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s batch: %w", kind, err)
	}

	resp, err := b.do(ctx, http.MethodPost, "/"+kind.String()+"/bulk-import", nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, b.transportError(ctx, err)
	}

	if result, ok := decodeImportResult(data); ok {
		if resp.StatusCode >= 400 {
			b.logger.WithFields(logrus.Fields{
				"entity_kind": kind,
				"status":      resp.StatusCode,
			}).Info("Backend rejected import batch with a result body")
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: unexpected response from %s bulk import: status=%d body=%s",
		importer.ErrTransport, kind, resp.StatusCode, truncate(data))
}

func (b *Backend) JSONTemplate(ctx context.Context, kind importer.EntityKind) (json.RawMessage, error) {
	data, err := b.template(ctx, kind, "json")
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s JSON template is not valid JSON", importer.ErrTransport, kind)
	}

	// Some deployments wrap the example in the standard response envelope.
	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Success != nil && len(envelope.Data) > 0 {
		return envelope.Data, nil
	}
	return json.RawMessage(data), nil
}

func (b *Backend) ExcelTemplate(ctx context.Context, kind importer.EntityKind) ([]byte, error) {
	return b.template(ctx, kind, "excel")
}

func (b *Backend) template(ctx context.Context, kind importer.EntityKind, format string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.templateTimeout)
	defer cancel()

	resp, err := b.do(ctx, http.MethodGet, "/"+kind.String()+"/template", url.Values{"format": {format}}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, b.transportError(ctx, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s %s template: status=%d body=%s",
			importer.ErrTransport, kind, format, resp.StatusCode, truncate(data))
	}
	return data, nil
}

func (b *Backend) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", importer.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, b.transportError(ctx, err)
	}
	return resp, nil
}

func (b *Backend) transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", importer.ErrUploadTimeout, err)
	}
	return fmt.Errorf("%w: %v", importer.ErrTransport, err)
}

// decodeImportResult accepts a body as an import result when it parses and
// carries either the success flag or the summary block.
func decodeImportResult(data []byte) (*importer.ImportResult, bool) {
	var head struct {
		Success *bool           `json:"success"`
		Summary json.RawMessage `json:"summary"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, false
	}
	if head.Success == nil && len(head.Summary) == 0 {
		return nil, false
	}

	var result importer.ImportResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func truncate(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
