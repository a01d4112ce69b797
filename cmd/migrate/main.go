// Command migrate applies the ledger's goose migrations.
//
// Usage: migrate [up|down|status]   (default: up)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/emissioncoresupport/evidence-ledger/internal/app"
	"github.com/emissioncoresupport/evidence-ledger/internal/config"
	"github.com/emissioncoresupport/evidence-ledger/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		logger.Error("create migration provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			logger.Error("migrate up", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, r := range results {
			logger.Info("migration applied",
				slog.Int64("version", r.Source.Version),
				slog.Duration("duration", r.Duration),
			)
		}
		logger.Info("migrations up to date", slog.Int("applied", len(results)))

	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			logger.Error("migrate down", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if result != nil {
			logger.Info("migration rolled back", slog.Int64("version", result.Source.Version))
		}

	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			logger.Error("migration status", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, s := range statuses {
			logger.Info("migration",
				slog.Int64("version", s.Source.Version),
				slog.String("state", string(s.State)),
				slog.Time("applied_at", s.AppliedAt),
			)
		}

	default:
		logger.Error("unknown command", slog.String("command", command))
		os.Exit(1)
	}
}
