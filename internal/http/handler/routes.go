package handler

import (
	goversion "github.com/caarlos0/go-version"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatewayapi/internal/http/middleware"
	"gatewayapi/internal/service"
	"gatewayapi/internal/upstream"
)

// Dependencies are the collaborators RegisterRoutes wires into handlers.
// Files and Upstreams are optional; their routes are skipped when nil.
type Dependencies struct {
	DB        Pinger
	Auth      service.AuthService
	Records   service.RecordService
	Files     service.FileService
	Upstreams upstream.Forwarder
	Metrics   prometheus.Gatherer
	Version   goversion.Info
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", Liveness())
	app.Get("/version", VersionInfo(deps.Version))
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", Register(deps.Auth))
	authGroup.Post("/login", Login(deps.Auth))

	api := app.Group("/api/v1", middleware.Auth(deps.Auth))
	api.Get("/me", Me(deps.Auth))

	api.Post("/records", CreateRecord(deps.Records))
	api.Get("/records", ListRecords(deps.Records))
	api.Get("/records/:id", GetRecord(deps.Records))
	api.Put("/records/:id", UpdateRecord(deps.Records))
	api.Delete("/records/:id", DeleteRecord(deps.Records))

	if deps.Files != nil {
		api.Post("/files", UploadFile(deps.Files))
		api.Get("/files", ListFiles(deps.Files))
		api.Get("/files/:id", GetFile(deps.Files))
		api.Get("/files/:id/content", FileContent(deps.Files))
		api.Get("/files/:id/download", FileDownloadURL(deps.Files))
		api.Delete("/files/:id", DeleteFile(deps.Files))
	}

	if deps.Upstreams != nil {
		api.All("/proxy/:service/*", Proxy(deps.Upstreams))
	}
}
