// Package bootstrap wires config, logging, telemetry and the store for the
// operator commands.
package bootstrap

import (
	"context"
	"fmt"

	"sensor-failure-detection/shared/internal/config"
	"sensor-failure-detection/shared/internal/db/migrate"
	"sensor-failure-detection/shared/internal/platform/logger"
	telemetryotel "sensor-failure-detection/shared/internal/telemetry/otel"
	"sensor-failure-detection/shared/pkg/sensors"
	"sensor-failure-detection/shared/pkg/store"
	"sensor-failure-detection/shared/pkg/telemetry"
)

// Env is a running command environment. Close releases it in reverse order.
type Env struct {
	Config    *config.Config
	Log       *logger.Logger
	Telemetry *telemetryotel.Providers
	Store     store.Store

	events *telemetry.AsyncEmitter
}

// Start builds the logger and telemetry providers from cfg, then connects the
// Mongo store with otelmongo tracing.
func Start(ctx context.Context, cfg *config.Config, component string) (*Env, error) {
	l, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l = l.With("component", component)

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		l.Sync()
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	providers.SetGlobal()

	st, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase,
		store.WithConnectTimeout(cfg.MongoConnectTimeout),
		store.WithTracerProvider(providers.TracerProvider),
	)
	if err != nil {
		_ = providers.Shutdown(ctx)
		l.Sync()
		return nil, err
	}
	l.Info("connected", "mongodb_uri", cfg.MongoURI, "database", cfg.MongoDatabase)
	events := telemetry.NewAsyncEmitter(telemetry.NewEventEmitter(providers.LoggerProvider), func(e sensors.Event, err error) {
		l.Warn("event emit failed", "event_type", string(e.Type), "error", err)
	})
	return &Env{Config: cfg, Log: l, Telemetry: providers, Store: st, events: events}, nil
}

// Service builds a sensors.Service over the environment's store that emits
// domain events as OpenTelemetry log records in the background.
func (e *Env) Service(opts ...sensors.Option) *sensors.Service {
	base := []sensors.Option{
		sensors.WithEmitter(e.events),
		sensors.WithTracerProvider(e.Telemetry.TracerProvider),
		sensors.WithMeterProvider(e.Telemetry.MeterProvider),
	}
	return sensors.New(e.Store, append(base, opts...)...)
}

// Close drains pending events, then releases the store and telemetry.
// Errors are logged.
func (e *Env) Close(ctx context.Context) {
	if e.events != nil {
		if err := e.events.Drain(ctx); err != nil {
			e.Log.Warn("event drain incomplete", "error", err)
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(ctx); err != nil {
			e.Log.Warn("store close failed", "error", err)
		}
	}
	if e.Telemetry != nil {
		if err := e.Telemetry.Shutdown(ctx); err != nil {
			e.Log.Warn("telemetry shutdown failed", "error", err)
		}
	}
	e.Log.Sync()
}

// Migrator applies data migrations up.
type Migrator func(ctx context.Context) error

// MongoMigrator runs the embedded migrations against the configured database.
func MongoMigrator(cfg *config.Config) Migrator {
	return func(ctx context.Context) error {
		return migrate.Run(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MigrationsCollection, "up")
	}
}

// Provision ensures every index exists, then applies pending migrations.
// Indexes go first so backfills run against the final schema.
func Provision(ctx context.Context, st store.Store, up Migrator, l *logger.Logger) error {
	if err := store.Provision(ctx, st); err != nil {
		return fmt.Errorf("provision indexes: %w", err)
	}
	l.Info("indexes ensured", "collections", len(store.Indexes))
	if up == nil {
		return nil
	}
	if err := up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	l.Info("migrations applied")
	return nil
}
