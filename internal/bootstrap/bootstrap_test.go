package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sensor-failure-detection/shared/internal/config"
	"sensor-failure-detection/shared/internal/platform/logger"
	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/store"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewWithCore(core), logs
}

func TestProvision_IndexesThenMigrations(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	l, logs := testLogger()

	var migrated bool
	up := func(ctx context.Context) error {
		if names, err := st.IndexNames(ctx, domain.CollectionReadings); err != nil || len(names) == 0 {
			t.Error("migrations ran before indexes were ensured")
		}
		migrated = true
		return nil
	}
	if err := Provision(ctx, st, up, l); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if !migrated {
		t.Error("migrator was not called")
	}
	if n := logs.FilterMessage("migrations applied").Len(); n != 1 {
		t.Errorf("migrations applied logged %d times, want 1", n)
	}
}

func TestProvision_NilMigrator(t *testing.T) {
	l, _ := testLogger()
	if err := Provision(context.Background(), store.NewMemoryStore(), nil, l); err != nil {
		t.Fatalf("Provision: %v", err)
	}
}

func TestProvision_MigrationError(t *testing.T) {
	l, _ := testLogger()
	boom := errors.New("boom")
	err := Provision(context.Background(), store.NewMemoryStore(), func(context.Context) error { return boom }, l)
	if !errors.Is(err, boom) {
		t.Fatalf("Provision = %v, want wrapped boom", err)
	}
	if !strings.HasPrefix(err.Error(), "migrate:") {
		t.Errorf("error = %q, want migrate prefix", err)
	}
}

func TestProvision_IndexError(t *testing.T) {
	l, _ := testLogger()
	st := store.NewMemoryStore()
	_ = st.Close(context.Background())
	called := false
	err := Provision(context.Background(), st, func(context.Context) error { called = true; return nil }, l)
	if err == nil {
		t.Fatal("Provision on a closed store should fail")
	}
	if called {
		t.Error("migrator should not run after index failure")
	}
}

func TestStart_Unreachable(t *testing.T) {
	cfg := &config.Config{
		MongoURI:            "mongodb://127.0.0.1:1",
		MongoDatabase:       "sensors",
		MongoConnectTimeout: 200 * time.Millisecond,
		LogMode:             "development",
		ServiceName:         "sensors-test",
	}
	_, err := Start(context.Background(), cfg, "test")
	if !errors.Is(err, store.ErrConnection) {
		t.Fatalf("Start = %v, want ErrConnection", err)
	}
}
