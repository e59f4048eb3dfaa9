package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

const (
	ContentTypeJSON  = "application/json"
	ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TemplateSource fetches example documents from the backend.
type TemplateSource interface {
	JSONTemplate(ctx context.Context, kind EntityKind) (json.RawMessage, error)
	ExcelTemplate(ctx context.Context, kind EntityKind) ([]byte, error)
}

// TemplateFile is a ready-to-save download.
type TemplateFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// TemplateGenerator frames backend templates as downloadable files. It holds
// no state and does not touch any orchestrator.
type TemplateGenerator struct {
	source TemplateSource
}

func NewTemplateGenerator(source TemplateSource) *TemplateGenerator {
	return &TemplateGenerator{source: source}
}

func (g *TemplateGenerator) JSON(ctx context.Context, kind EntityKind) (*TemplateFile, error) {
	raw, err := g.source.JSONTemplate(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s JSON template: %w", kind, err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("backend returned an invalid %s JSON template: %w", kind, err)
	}

	return &TemplateFile{
		Name:        TemplateFilename(kind, "json"),
		ContentType: ContentTypeJSON,
		Data:        pretty.Bytes(),
	}, nil
}

func (g *TemplateGenerator) Excel(ctx context.Context, kind EntityKind) (*TemplateFile, error) {
	data, err := g.source.ExcelTemplate(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s Excel template: %w", kind, err)
	}
	return &TemplateFile{
		Name:        TemplateFilename(kind, "xlsx"),
		ContentType: ContentTypeExcel,
		Data:        data,
	}, nil
}

func TemplateFilename(kind EntityKind, ext string) string {
	return fmt.Sprintf("%s-template.%s", kind, ext)
}
