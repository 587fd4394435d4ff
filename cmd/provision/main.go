// provision ensures every index exists and applies pending data migrations.
// Run it before services start; it exits non-zero when the database is not ready.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensor-failure-detection/shared/internal/bootstrap"
	"sensor-failure-detection/shared/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := bootstrap.Start(ctx, cfg, "provision")
	if err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		os.Exit(1)
	}

	started := time.Now()
	err = bootstrap.Provision(ctx, env.Store, bootstrap.MongoMigrator(cfg), env.Log)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err != nil {
		env.Log.Error("provision failed", "error", err)
		env.Close(closeCtx)
		os.Exit(1)
	}
	env.Log.Info("database ready", "database", cfg.MongoDatabase, "elapsed", time.Since(started).String())
	env.Close(closeCtx)
}
