// Package config loads and validates command config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds configuration for the operator commands.
type Config struct {
	// MongoURI is the MongoDB connection string (mongodb:// or mongodb+srv://).
	MongoURI string `mapstructure:"MONGODB_URI"`
	// MongoDatabase is the database holding the sensor collections.
	MongoDatabase string `mapstructure:"MONGODB_DATABASE"`
	// MongoConnectTimeout bounds server selection and the startup ping (e.g. "10s").
	MongoConnectTimeout time.Duration `mapstructure:"MONGODB_CONNECT_TIMEOUT"`
	// MigrationsCollection records applied data migrations.
	MigrationsCollection string `mapstructure:"MIGRATIONS_COLLECTION"`

	// OTLPEndpoint is the OTLP gRPC collector; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// LogMode is "development" (console) or "production" (JSON).
	LogMode string `mapstructure:"LOG_MODE"`
	// Env is the deployment environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// SeedMachines and SeedReadings size the development data set written by cmd/seed.
	SeedMachines int `mapstructure:"SEED_MACHINES"`
	SeedReadings int `mapstructure:"SEED_READINGS"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "sensors")
	v.SetDefault("MONGODB_CONNECT_TIMEOUT", "10s")
	v.SetDefault("MIGRATIONS_COLLECTION", "schema_migrations")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "sensor-domain")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("SEED_MACHINES", 3)
	v.SetDefault("SEED_READINGS", 20)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.MongoURI = strings.TrimSpace(c.MongoURI)
	if c.MongoURI == "" {
		return errors.New("config: MONGODB_URI must be set")
	}
	if !strings.HasPrefix(c.MongoURI, "mongodb://") && !strings.HasPrefix(c.MongoURI, "mongodb+srv://") {
		return errors.New("config: MONGODB_URI must use the mongodb:// or mongodb+srv:// scheme")
	}
	if strings.TrimSpace(c.MongoDatabase) == "" {
		return errors.New("config: MONGODB_DATABASE must be set")
	}
	if c.MongoConnectTimeout <= 0 {
		return errors.New("config: MONGODB_CONNECT_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.MigrationsCollection) == "" {
		return errors.New("config: MIGRATIONS_COLLECTION must be set")
	}
	switch c.LogMode {
	case "development", "production":
	default:
		return fmt.Errorf("config: LOG_MODE must be development or production, got %q", c.LogMode)
	}
	if c.SeedMachines < 1 || c.SeedReadings < 0 {
		return errors.New("config: SEED_MACHINES must be at least 1 and SEED_READINGS not negative")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c != nil && strings.EqualFold(c.Env, "production")
}
