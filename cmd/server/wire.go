//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cinevault/services/upload-api/internal/config"
	"cinevault/services/upload-api/internal/domain/retry"
	"cinevault/services/upload-api/internal/domain/upload"
	"cinevault/services/upload-api/internal/infrastructure/auth"
	"cinevault/services/upload-api/internal/infrastructure/credentials"
	"cinevault/services/upload-api/internal/infrastructure/database"
	"cinevault/services/upload-api/internal/infrastructure/drive"
	"cinevault/services/upload-api/internal/infrastructure/logger"
	filerepo "cinevault/services/upload-api/internal/infrastructure/repository/file"
	"cinevault/services/upload-api/internal/infrastructure/sessionstore"
	"cinevault/services/upload-api/internal/infrastructure/storage"
	"cinevault/services/upload-api/internal/interfaces/httpserver"
)

var uploadSet = wire.NewSet(
	filerepo.NewRepository,
	wire.Bind(new(upload.Repository), new(*filerepo.Repository)),
	provideSessions,
	wire.Bind(new(upload.SessionRegistry), new(*sessionstore.Store)),
	provideTokens,
	provideDriveClient,
	wire.Bind(new(upload.Transport), new(*drive.Client)),
	storage.New,
	provideOrchestrator,
	upload.NewSimpleUploader,
	upload.NewProgressStore,
	upload.NewService,
)

// BuildApplication assembles the upload API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		newDatabaseConfig,
		newGormDB,
		uploadSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.GetDatabaseWriteDSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func provideSessions(cfg *config.Config, log zerolog.Logger) *sessionstore.Store {
	return sessionstore.New(cfg.SessionRetention, cfg.SessionSweepInterval, log)
}

func provideTokens(cfg *config.Config, log zerolog.Logger) credentials.Source {
	return credentials.NewFromConfig(cfg, log)
}

func provideDriveClient(cfg *config.Config, tokens credentials.Source, log zerolog.Logger) *drive.Client {
	return drive.NewClient(cfg, tokens, log)
}

func provideOrchestrator(transport upload.Transport, sessions upload.SessionRegistry, cfg *config.Config, log zerolog.Logger) *upload.Orchestrator {
	return upload.NewOrchestrator(transport, sessions, upload.OrchestratorOptions{
		ChunkSize: cfg.ChunkSize,
		Retry: retry.Policy{
			MaxAttempts:     cfg.MaxChunkRetries,
			InitialDelay:    cfg.RetryBaseDelay,
			MaxDelay:        cfg.RetryMaxDelay,
			BackoffStrategy: retry.BackoffExponential,
		},
		Logger: log,
	})
}
