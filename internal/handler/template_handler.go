package handler

import (
	"fmt"

	"estate-admin/internal/importer"
	"estate-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TemplateHandler struct {
	generator *importer.TemplateGenerator
}

func NewTemplateHandler(generator *importer.TemplateGenerator) *TemplateHandler {
	return &TemplateHandler{generator: generator}
}

// Download serves /templates/:kind/:format as an attachment.
func (h *TemplateHandler) Download(c *fiber.Ctx) error {
	kind, err := importer.ParseEntityKind(c.Params("kind"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown entity kind", err)
	}

	var file *importer.TemplateFile
	switch c.Params("format") {
	case "json":
		file, err = h.generator.JSON(c.UserContext(), kind)
	case "excel":
		file, err = h.generator.Excel(c.UserContext(), kind)
	default:
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template format must be json or excel", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to download template", err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	return c.Send(file.Data)
}
