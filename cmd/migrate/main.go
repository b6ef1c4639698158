package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"receipt-backend/internal/shared/config"
	"receipt-backend/internal/shared/storage/db"
	"receipt-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	_ = telemetry.Init(telemetry.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer telemetry.Sync()
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		telemetry.Error("migrate.no_database_url", nil)
		os.Exit(1)
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", nil)
}
