package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"cinevault/services/upload-api/internal/config"
	"cinevault/services/upload-api/internal/domain/retry"
	"cinevault/services/upload-api/internal/domain/upload"
	"cinevault/services/upload-api/internal/infrastructure/auth"
	"cinevault/services/upload-api/internal/infrastructure/credentials"
	"cinevault/services/upload-api/internal/infrastructure/database"
	"cinevault/services/upload-api/internal/infrastructure/drive"
	"cinevault/services/upload-api/internal/infrastructure/logger"
	"cinevault/services/upload-api/internal/infrastructure/observability"
	filerepo "cinevault/services/upload-api/internal/infrastructure/repository/file"
	"cinevault/services/upload-api/internal/infrastructure/sessionstore"
	"cinevault/services/upload-api/internal/infrastructure/storage"
	"cinevault/services/upload-api/internal/interfaces/httpserver"
)

// @title Upload API
// @version 1.0
// @description Large-file upload service for the CineVault catalog
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	sessions   *sessionstore.Store
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, sessions *sessionstore.Store, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		sessions:   sessions,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	defer a.sessions.Stop()
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	var repo upload.Repository
	if cfg.GetDatabaseWriteDSN() != "" {
		db, err := database.Open(database.Config{
			DSN:             cfg.GetDatabaseWriteDSN(),
			MaxIdleConns:    cfg.DBMaxIdleConns,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
			LogLevel:        gormlogger.Warn,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connect database")
		}
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		repo = filerepo.NewRepository(db)
	} else {
		log.Warn().Msg("DB_POSTGRESQL_WRITE_DSN is not set; the upload catalog will not be persisted")
	}

	tokens := credentials.NewFromConfig(cfg, log)
	driveClient := drive.NewClient(cfg, tokens, log)

	store, err := storage.New(ctx, cfg, driveClient, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	sessions := sessionstore.New(cfg.SessionRetention, cfg.SessionSweepInterval, log)

	orchestrator := upload.NewOrchestrator(driveClient, sessions, upload.OrchestratorOptions{
		ChunkSize: cfg.ChunkSize,
		Retry: retry.Policy{
			MaxAttempts:     cfg.MaxChunkRetries,
			InitialDelay:    cfg.RetryBaseDelay,
			MaxDelay:        cfg.RetryMaxDelay,
			BackoffStrategy: retry.BackoffExponential,
		},
		Logger: log,
	})
	simple := upload.NewSimpleUploader(store, log)
	progress := upload.NewProgressStore()
	uploadService := upload.NewService(cfg, orchestrator, simple, progress, sessions, repo, log)

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth")
	}

	httpServer := httpserver.New(cfg, log, uploadService, store, authValidator)
	app := NewApplication(httpServer, sessions, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
