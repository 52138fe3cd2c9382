package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gatewayapi/docs"
	"gatewayapi/internal/auth"
	"gatewayapi/internal/config"
	"gatewayapi/internal/database"
	"gatewayapi/internal/database/migration"
	handlers "gatewayapi/internal/http/handler"
	"gatewayapi/internal/http/middleware"
	"gatewayapi/internal/idgen"
	"gatewayapi/internal/logger"
	"gatewayapi/internal/otel"
	"gatewayapi/internal/repository/postgres"
	"gatewayapi/internal/service"
	"gatewayapi/internal/storage"
	"gatewayapi/internal/upstream"
	"gatewayapi/internal/version"
)

// @title Gateway API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.AppConfig, log *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := version.Get(cfg.ServiceName)
	log.Info().Str("version", build.GitVersion).Str("commit", build.GitCommit).Msg("starting")

	shutdownTracing, err := otel.Init(ctx, log, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	// Flush spans on every exit path, startup failures included.
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if ferr := shutdownTracing(flushCtx); ferr != nil {
			err = errors.Join(err, fmt.Errorf("tracing shutdown: %w", ferr))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.Run(ctx, db, log); err != nil {
		return err
	}

	ids := idgen.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	deps := handlers.Dependencies{
		Version: build,
		DB:      db,
		Auth:    service.NewAuthService(postgres.NewUserPostgres(db), tokens, ids, cfg.Auth.BcryptCost),
		Records: service.NewRecordService(postgres.NewRecordPostgres(db), ids),
	}

	if cfg.MinIO.Enabled() {
		objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		deps.Files = service.NewFileService(objStore, postgres.NewFilePostgres(db), ids)
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set, file routes disabled")
	}

	if len(cfg.Upstreams) > 0 {
		fwd, err := upstream.New(cfg.Upstreams, cfg.UpstreamTimeout)
		if err != nil {
			return fmt.Errorf("init upstreams: %w", err)
		}
		deps.Upstreams = fwd
		log.Info().Strs("upstreams", fwd.Services()).Msg("upstream forwarding enabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := database.RegisterPoolMetrics(reg, db, cfg.Database.Name); err != nil {
		return err
	}
	deps.Metrics = reg

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.BodyLimitMB << 20,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(middleware.CORS(cfg.CORS))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		host := c.Get("Host")
		if host == "" {
			host = cfg.AppHost
		}
		docs.SwaggerInfo.Host = host
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, deps)

	serveErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("http server listening")
		serveErr <- app.Listen(addr)
	}()

	if err := awaitShutdown(ctx, serveErr, cfg.ShutdownTimeout, log, shutdownStep{
		name: "http",
		fn:   app.ShutdownWithContext,
	}); err != nil {
		return err
	}

	log.Info().Msg("server stopped cleanly")
	return nil
}

type shutdownStep struct {
	name string
	fn   func(context.Context) error
}

// awaitShutdown blocks until the server fails or ctx is cancelled, then runs
// every step under one timeout. A listen failure does not skip the steps.
func awaitShutdown(ctx context.Context, serveErr <-chan error, timeout time.Duration, log *logger.Logger, steps ...shutdownStep) error {
	var errs []error
	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			errs = append(errs, fmt.Errorf("listen: %w", err))
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, step := range steps {
		if err := step.fn(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s shutdown: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}
