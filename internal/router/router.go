package router

import (
	"estate-admin/internal/config"
	"estate-admin/internal/database"
	"estate-admin/internal/handler"
	"estate-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(app *fiber.App, deps *Dependencies, cfg *config.Config) {
	app.Get("/health", func(c *fiber.Ctx) error {
		stores := database.Check(c.UserContext(), deps.DB, deps.Redis)
		return c.JSON(fiber.Map{
			"status":          "ok",
			"app":             cfg.AppName,
			"database":        stores["database"],
			"redis":           stores["redis"],
			"active_sessions": deps.Imports.ActiveSessions(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	importHandler := handler.NewImportHandler(deps.Imports, int64(cfg.UploadMaxSize))
	templateHandler := handler.NewTemplateHandler(deps.Templates)

	web := app.Group("")
	setupWebRoutes(web, importHandler, cfg)

	api := app.Group("/api/v1")
	SetupAPIRoutes(api, importHandler, templateHandler, cfg)
}

func setupWebRoutes(router fiber.Router, importHandler *handler.ImportHandler, cfg *config.Config) {
	router.Get("/imports/:code/report",
		middleware.AuthMiddleware(cfg),
		middleware.AdminOnly(),
		importHandler.Report,
	)
}
