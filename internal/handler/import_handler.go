package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"estate-admin/internal/importer"
	"estate-admin/internal/models"
	"estate-admin/internal/service"
	"estate-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ImportHandler struct {
	importService *service.ImportService
	maxFileBytes  int64
}

func NewImportHandler(importService *service.ImportService, maxFileBytes int64) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		maxFileBytes:  maxFileBytes,
	}
}

// OpenSession starts a session for one entity kind.
func (h *ImportHandler) OpenSession(c *fiber.Ctx) error {
	var req models.OpenImportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  errs,
		})
	}

	code, snap, err := h.importService.Open(importer.EntityKind(req.EntityKind), currentUserID(c))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to open import session", err)
	}

	return utils.StatusResponse(c, fiber.StatusCreated, "Import session opened", fiber.Map{
		"session_code": code,
		"session":      snap,
	})
}

// UploadFile selects and decodes the multipart "file" field.
func (h *ImportHandler) UploadFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}
	if h.maxFileBytes > 0 && file.Size > h.maxFileBytes {
		return utils.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "File size exceeds maximum limit", importer.ErrFileTooLarge)
	}

	f, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read file", err)
	}

	snap, err := h.importService.AttachFile(c.Params("code"), file.Filename, data)
	if err != nil {
		return importError(c, "File rejected", err)
	}

	return utils.SuccessResponse(c, fmt.Sprintf("Decoded %d records", snap.RecordCount), snap)
}

func (h *ImportHandler) GetSession(c *fiber.Ctx) error {
	snap, err := h.importService.Get(c.UserContext(), c.Params("code"))
	if err != nil {
		return importError(c, "Session not found", err)
	}
	return utils.SuccessResponse(c, "Session retrieved successfully", snap)
}

// Submit starts the upload and answers before the backend does. Poll
// GetSession for the outcome.
func (h *ImportHandler) Submit(c *fiber.Ctx) error {
	snap, err := h.importService.Submit(c.Params("code"))
	if err != nil {
		return importError(c, "Upload not started", err)
	}
	return utils.StatusResponse(c, fiber.StatusAccepted, "Upload started", snap)
}

func (h *ImportHandler) Cancel(c *fiber.Ctx) error {
	snap, err := h.importService.Cancel(c.Params("code"))
	if err != nil {
		return importError(c, "Session not found", err)
	}
	return utils.SuccessResponse(c, "Import session cancelled", snap)
}

func (h *ImportHandler) GetHistory(c *fiber.Ctx) error {
	page := utils.ParsePageQuery(c)
	filter := historyFilter(c)
	if errs := filter.Validate(); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Invalid filter",
			"errors":  errs,
		})
	}

	sessions, total, err := h.importService.History(page.Page, page.Limit, filter.EntityKind, filter.Status)
	if err != nil {
		return importError(c, "Failed to retrieve import history", err)
	}

	return utils.PagedResponse(c, "Import history retrieved successfully", sessions, utils.NewPageMeta(page, total))
}

func (h *ImportHandler) ExportHistory(c *fiber.Ctx) error {
	filter := historyFilter(c)
	if errs := filter.Validate(); len(errs) > 0 {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Invalid filter", nil)
	}

	data, err := h.importService.ExportHistory(filter.EntityKind, filter.Status)
	if err != nil {
		return importError(c, "Failed to export import history", err)
	}

	filename := fmt.Sprintf("import_history_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, importer.ContentTypeExcel)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

// Report renders the HTML view of a session's result.
func (h *ImportHandler) Report(c *fiber.Ctx) error {
	code := c.Params("code")
	snap, err := h.importService.Get(c.UserContext(), code)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Import session not found")
	}

	preview := make([]string, 0, len(snap.Preview))
	for _, rec := range snap.Preview {
		b, _ := json.MarshalIndent(rec, "", "  ")
		preview = append(preview, string(b))
	}

	return c.Render("imports/report", fiber.Map{
		"Title":       fmt.Sprintf("Import %s", code),
		"Code":        code,
		"Snapshot":    snap,
		"PreviewJSON": preview,
	})
}

func historyFilter(c *fiber.Ctx) models.HistoryFilter {
	return models.HistoryFilter{EntityKind: c.Query("entity_kind"), Status: c.Query("status")}
}

func currentUserID(c *fiber.Ctx) int {
	if id, ok := c.Locals("user_id").(int); ok {
		return id
	}
	return 0
}

// importError maps service and pipeline errors onto HTTP statuses.
func importError(c *fiber.Ctx, message string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, importer.ErrFileTooLarge):
		status = fiber.StatusRequestEntityTooLarge
	case importer.IsInputError(err):
		status = fiber.StatusBadRequest
	case errors.Is(err, importer.ErrUploadInFlight), errors.Is(err, importer.ErrInvalidTransition):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrHistoryUnavailable):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, importer.ErrUploadTimeout):
		status = fiber.StatusGatewayTimeout
	case errors.Is(err, importer.ErrTransport):
		status = fiber.StatusBadGateway
	}
	return utils.ErrorResponse(c, status, message, err)
}
