// Package database opens the PostgreSQL connection behind the upload
// catalog. The catalog is one table of completed uploads, so the
// connector stays small: create-if-missing bootstrap for first boot,
// open, pool limits.
package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Config controls connectivity to the upload catalog.
type Config struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        gormlogger.LogLevel
}

// Open connects to the upload catalog. A fresh cluster will not have the
// catalog database yet, so Open creates it before handing the DSN to gorm.
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("upload catalog DSN is empty")
	}
	if err := createCatalogIfMissing(cfg.DSN); err != nil {
		return nil, fmt.Errorf("bootstrap catalog database: %w", err)
	}

	logLevel := cfg.LogLevel
	if logLevel == 0 {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		PrepareStmt:    true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open upload catalog: %w", err)
	}

	if err := tunePool(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

func tunePool(db *gorm.DB, cfg Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("retrieve sql db: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}

// createCatalogIfMissing connects to the cluster's postgres database and
// creates the catalog database named in the DSN when it does not exist.
// Non-URL DSNs are passed through untouched; gorm will surface any error.
func createCatalogIfMissing(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil
	}
	catalog := strings.TrimPrefix(u.Path, "/")
	if catalog == "" || catalog == "postgres" {
		return nil
	}

	adminURL := *u
	adminURL.Path = "/postgres"
	admin, err := sql.Open("postgres", adminURL.String())
	if err != nil {
		return err
	}
	defer admin.Close()

	var exists bool
	if err := admin.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", catalog,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = admin.Exec("CREATE DATABASE " + quoteIdentifier(catalog))
	return err
}

func quoteIdentifier(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
