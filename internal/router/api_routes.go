package router

import (
	"estate-admin/internal/config"
	"estate-admin/internal/handler"
	"estate-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupAPIRoutes(
	router fiber.Router,
	importHandler *handler.ImportHandler,
	templateHandler *handler.TemplateHandler,
	cfg *config.Config,
) {
	// Every admin API route requires an admin bearer token
	protected := router.Group("", middleware.AuthMiddleware(cfg), middleware.AdminOnly())

	// Import routes
	imports := protected.Group("/imports")
	imports.Get("/", importHandler.GetHistory)
	imports.Post("/", importHandler.OpenSession)
	imports.Get("/export", importHandler.ExportHistory)
	imports.Get("/:code", importHandler.GetSession)
	imports.Post("/:code/file", importHandler.UploadFile)
	imports.Post("/:code/submit", importHandler.Submit)
	imports.Delete("/:code", importHandler.Cancel)

	// Template downloads
	protected.Get("/templates/:kind/:format", templateHandler.Download)
}
