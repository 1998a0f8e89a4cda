package db

import (
	"fmt"
	"log"
	"os"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"account_backend/internal/feature/user/domain/entity"
	"account_backend/internal/platform/config"
)

// connectTimeout bounds the startup retry loop.
const connectTimeout = 60 * time.Second

// Opener opens a gorm connection for a DSN. Extracted for testing.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN builds the MySQL DSN from the config, preferring the Cloud SQL
// unix socket when an instance connection name is configured.
func BuildDSN(cfg *config.Config) string {
	if cfg.InstanceConnectionName != "" {
		return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.InstanceConnectionName, cfg.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// ConnectWithRetry opens the connection, retrying until the timeout elapses.
// The database container may come up after the service in local compose runs.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		gdb, err := open(dsn)
		if err == nil {
			return gdb, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(3 * time.Second)
	}
}

// gormOpen is the production Opener. TranslateError is enabled so
// unique-constraint violations surface as gorm.ErrDuplicatedKey.
func gormOpen(dsn string) (*gorm.DB, error) {
	return gorm.Open(gmysql.Open(dsn), &gorm.Config{TranslateError: true})
}

// OpenDB connects to MySQL as described by the config and optionally runs
// schema migration when RUN_MIGRATIONS=true.
func OpenDB(cfg *config.Config) *gorm.DB {
	gdb, err := ConnectWithRetry(BuildDSN(cfg), connectTimeout, gormOpen)
	if err != nil {
		log.Fatal(err)
	}

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		// マイグレーション（User）
		if err := gdb.AutoMigrate(&entity.User{}); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return gdb
}
