package config

import (
	"testing"
	"time"
)

var keys = []string{
	"MONGODB_URI", "MONGODB_DATABASE", "MONGODB_CONNECT_TIMEOUT", "MIGRATIONS_COLLECTION",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SERVICE_NAME",
	"LOG_MODE", "APP_ENV", "SEED_MACHINES", "SEED_READINGS",
}

// clearEnv blanks every config key for the test. Viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI = %q, want %q", cfg.MongoURI, "mongodb://localhost:27017")
	}
	if cfg.MongoDatabase != "sensors" {
		t.Errorf("MongoDatabase = %q, want %q", cfg.MongoDatabase, "sensors")
	}
	if cfg.MongoConnectTimeout != 10*time.Second {
		t.Errorf("MongoConnectTimeout = %v, want 10s", cfg.MongoConnectTimeout)
	}
	if cfg.MigrationsCollection != "schema_migrations" {
		t.Errorf("MigrationsCollection = %q, want %q", cfg.MigrationsCollection, "schema_migrations")
	}
	if cfg.OTLPEndpoint != "" {
		t.Errorf("OTLPEndpoint = %q, want empty", cfg.OTLPEndpoint)
	}
	if cfg.OTLPInsecure {
		t.Error("OTLPInsecure should default to false")
	}
	if cfg.ServiceName != "sensor-domain" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "sensor-domain")
	}
	if cfg.LogMode != "development" {
		t.Errorf("LogMode = %q, want %q", cfg.LogMode, "development")
	}
	if cfg.SeedMachines != 3 || cfg.SeedReadings != 20 {
		t.Errorf("seed sizes = %d, %d, want 3, 20", cfg.SeedMachines, cfg.SeedReadings)
	}
	if cfg.IsProduction() {
		t.Error("IsProduction should be false by default")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb+srv://cluster0.example.net")
	t.Setenv("MONGODB_DATABASE", "plant_a")
	t.Setenv("MONGODB_CONNECT_TIMEOUT", "2500ms")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("LOG_MODE", "production")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("SEED_MACHINES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MongoURI != "mongodb+srv://cluster0.example.net" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
	if cfg.MongoDatabase != "plant_a" {
		t.Errorf("MongoDatabase = %q, want %q", cfg.MongoDatabase, "plant_a")
	}
	if cfg.MongoConnectTimeout != 2500*time.Millisecond {
		t.Errorf("MongoConnectTimeout = %v, want 2.5s", cfg.MongoConnectTimeout)
	}
	if cfg.OTLPEndpoint != "collector:4317" || !cfg.OTLPInsecure {
		t.Errorf("OTLP = %q insecure=%v", cfg.OTLPEndpoint, cfg.OTLPInsecure)
	}
	if cfg.LogMode != "production" {
		t.Errorf("LogMode = %q, want %q", cfg.LogMode, "production")
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction should match APP_ENV case-insensitively")
	}
	if cfg.SeedMachines != 5 {
		t.Errorf("SeedMachines = %d, want 5", cfg.SeedMachines)
	}
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"postgres uri", "MONGODB_URI", "postgres://localhost/sensors"},
		{"bare host", "MONGODB_URI", "localhost:27017"},
		{"blank database", "MONGODB_DATABASE", "   "},
		{"zero timeout", "MONGODB_CONNECT_TIMEOUT", "0s"},
		{"negative timeout", "MONGODB_CONNECT_TIMEOUT", "-1s"},
		{"unparseable timeout", "MONGODB_CONNECT_TIMEOUT", "soon"},
		{"unknown log mode", "LOG_MODE", "verbose"},
		{"no seed machines", "SEED_MACHINES", "-1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			cfg, err := Load()
			if err == nil {
				t.Fatalf("Load with %s=%q should fail, got %+v", tc.key, tc.value, cfg)
			}
			if cfg != nil {
				t.Error("Load should return nil config when error occurs")
			}
		})
	}
}

func TestIsProduction_NilConfig(t *testing.T) {
	var cfg *Config
	if cfg.IsProduction() {
		t.Error("nil config should not be production")
	}
}
