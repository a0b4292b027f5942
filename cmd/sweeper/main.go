package main

// Purges expired ledger rows on an interval:
//   go run ./cmd/sweeper            # loop until SIGINT/SIGTERM
//   go run ./cmd/sweeper -once      # single pass

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"minerpro-backend/internal/shared/config"
	"minerpro-backend/internal/shared/storage/db"
	"minerpro-backend/internal/usage"
)

const defaultSweepIntervalMinutes = 60

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, cleanup, err := openLedger(ctx, cfg)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}
	defer cleanup()

	interval := time.Duration(envInt("SWEEP_INTERVAL_MINUTES", defaultSweepIntervalMinutes)) * time.Minute
	sweeper := usage.NewSweeper(ledger, cfg.LedgerRetention, interval)

	if *once {
		if _, err := sweeper.RunOnce(ctx); err != nil {
			log.Fatalf("sweep: %v", err)
		}
		return
	}
	sweeper.Run(ctx)
}

func openLedger(ctx context.Context, cfg config.Config) (usage.Ledger, func(), error) {
	switch {
	case cfg.RedisURL != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		return usage.NewRedisLedger(client, cfg.LedgerRetention), func() { client.Close() }, nil
	case cfg.DatabaseURL != "":
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
		if err != nil {
			return nil, nil, err
		}
		return usage.NewPGLedger(conn), func() { closeDB(conn) }, nil
	default:
		// Nothing to sweep without a persistent backend, but a no-op pass
		// keeps local runs from erroring.
		return usage.NewMemoryLedger(), func() {}, nil
	}
}

func closeDB(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		log.Printf("close database: %v", err)
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
