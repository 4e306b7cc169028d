package main

import (
	"context"
	"time"

	"farmacia/internal/config"
	"farmacia/internal/handlers"
	"farmacia/internal/middleware"
	"farmacia/internal/repositories"
	"farmacia/internal/services"
	"farmacia/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps are the infrastructure handles the HTTP app is built on. Publisher
// and Cache are optional.
type Deps struct {
	DB        *gorm.DB
	Files     storage.FileStore
	Publisher services.EventPublisher
	Cache     services.SelectCache
	Log       zerolog.Logger
}

// NewApp wires repositories, services and handlers into a Fiber app.
func NewApp(cfg *config.Config, deps Deps) *fiber.App {
	log := deps.Log

	// --- Repositories ---
	medicamentoRepo := repositories.NewGORMMedicamentoRepository(deps.DB)
	laboratorioRepo := repositories.NewGORMLaboratorioRepository(deps.DB)
	userRepo := repositories.NewGORMUserRepository(deps.DB)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, log)
	medicamentoService := services.NewMedicamentoService(
		medicamentoRepo, deps.Files, deps.Publisher, deps.Cache, cfg.UploadMaxBytes, log)
	laboratorioService := services.NewLaboratorioService(laboratorioRepo, deps.Publisher, log)

	// --- Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:      "farmacia",
		ErrorHandler: handlers.FiberErrorHandler(log),
		BodyLimit:    int(cfg.UploadMaxBytes) + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", healthHandler(deps))

	if cfg.UploadDriver == "local" {
		app.Static("/uploads", cfg.UploadDir)
	}

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService, log).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService, log))
	handlers.NewMedicamentoHandler(medicamentoService, log).RegisterRoutes(protected)
	handlers.NewLaboratorioHandler(laboratorioService, log).RegisterRoutes(protected)

	return app
}

func healthHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		database := "up"
		if err := pingDB(c.UserContext(), deps.DB); err != nil {
			deps.Log.Warn().Err(err).Msg("health check: database unreachable")
			status = fiber.StatusServiceUnavailable
			database = "down"
		}

		rabbitmq := "disabled"
		if deps.Publisher != nil {
			rabbitmq = "connected"
		}

		body := fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
			"rabbitmq": rabbitmq,
		}
		if status != fiber.StatusOK {
			body["status"] = "unhealthy"
		}
		return c.Status(status).JSON(body)
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
