// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the service.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Database. When InstanceConnectionName is set the Cloud SQL unix
	// socket is used instead of host/port.
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBName                 string `env:"DB_NAME"`
	DBHost                 string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	// Redis is optional; an empty host disables the caching decorator.
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Confirmation links.
	VerifySecret string        `env:"VERIFY_SECRET,required,notEmpty"`
	VerifyTTL    time.Duration `env:"VERIFY_TTL" envDefault:"24h"`
	BaseURL      string        `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Mail delivery; an empty host logs events instead of sending.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@localhost"`
}

// Load reads .env when present and parses the environment into a Config.
func Load() (*Config, error) {
	// .env is a local-development convenience; absence is not an error.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
