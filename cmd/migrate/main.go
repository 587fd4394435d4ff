// migrate applies or rolls back the embedded data migrations, or prints the
// applied version. Use cmd/provision for the normal startup path.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sensor-failure-detection/shared/internal/config"
	"sensor-failure-detection/shared/internal/db/migrate"
	"sensor-failure-detection/shared/internal/platform/logger"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	version := flag.Bool("version", false, "Print the applied migration version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	l, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer l.Sync()
	l = l.With("component", "migrate", "database", cfg.MongoDatabase)

	if *version {
		v, dirty, ok, err := migrate.Version(cfg.MongoURI, cfg.MongoDatabase, cfg.MigrationsCollection)
		if err != nil {
			l.Error("read version failed", "error", err)
			os.Exit(1)
		}
		if !ok {
			l.Info("no migrations applied")
			return
		}
		l.Info("migration version", "version", v, "dirty", dirty)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := migrate.Run(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MigrationsCollection, *direction); err != nil {
		l.Error("migrate failed", "direction", *direction, "error", err)
		os.Exit(1)
	}
	l.Info("migrations done", "direction", *direction)
}
