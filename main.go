package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmacia/internal/cache"
	"farmacia/internal/config"
	"farmacia/internal/database"
	"farmacia/internal/logger"
	"farmacia/internal/storage"
	"farmacia/pkg/rabbitmq"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "farmacia",
		Short:        "Pharmacy inventory API",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default laboratorios",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			return database.Seed(cmd.Context(), db, log)
		},
	}
}

// bootstrap loads the configuration, sets up logging and opens the database.
func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Configure(logger.Options{
		Enabled: cfg.LogEnabled,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.DatabaseDriver).Msg("database unavailable")
		return nil, log, nil, err
	}
	return cfg, log, db, nil
}

func runServe(ctx context.Context) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return err
	}
	deps := Deps{DB: db, Files: files, Log: log}

	// --- RabbitMQ (optional) ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
			Queue:    cfg.RabbitMQQueue,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		defer mqClient.Close()
		deps.Publisher = mqClient

		if err := mqClient.ConsumeEvents(rabbitmq.AuditHandler(log)); err != nil {
			log.Error().Err(err).Msg("failed to start audit consumer")
		}
	} else {
		log.Info().Msg("RABBITMQ_URL not set, domain events disabled")
	}

	// --- Redis (optional) ---
	if cfg.RedisURL != "" {
		selectCache, redisClient, err := cache.NewRedisSelectCache(ctx, cfg.RedisURL, cfg.SelectCacheTTL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		deps.Cache = selectCache
	}

	app := NewApp(cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		errCh <- app.Listen(cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("listener returned after shutdown")
	}
	log.Info().Msg("server gracefully stopped")
	return nil
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	if cfg.UploadDriver == "s3" {
		return storage.NewS3FileStore(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	}
	return storage.NewLocalFileStore(cfg.UploadDir)
}
