// seed inserts development sample data: machines with readings and
// predictions, one resolved failure, a drift event, a processed model version
// and an active cluster model. Re-running it is a no-op once the cluster exists.
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
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "seed: refusing to run with APP_ENV=production")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := bootstrap.Start(ctx, cfg, "seed")
	if err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		os.Exit(1)
	}
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := bootstrap.Provision(ctx, env.Store, bootstrap.MongoMigrator(cfg), env.Log); err != nil {
		env.Log.Error("provision failed", "error", err)
		env.Close(closeCtx)
		os.Exit(1)
	}

	sum, err := seed(ctx, env.Service(), env.Store, plan{
		Machines: cfg.SeedMachines,
		Readings: cfg.SeedReadings,
		Now:      time.Now(),
	}, env.Log)
	if err != nil {
		env.Log.Error("seed failed", "error", err)
		env.Close(closeCtx)
		os.Exit(1)
	}
	if !sum.Skipped {
		env.Log.Info("seed complete",
			"machines", sum.Machines,
			"readings", sum.Readings,
			"predictions", sum.Predictions,
			"cluster_id", sum.ClusterID.Hex(),
		)
	}
	env.Close(closeCtx)
}
