// Package main backfills measurement records from a JSONL export.
// Each line is one measurement in the intake message schema. Progress is
// persisted per source file, so an interrupted run resumes where it
// stopped and overlapping exports never reprocess a record.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/intake"
	"bodycomp-lab/internal/observability"
	"bodycomp-lab/internal/storage"
	chstore "bodycomp-lab/internal/storage/clickhouse"
	"bodycomp-lab/internal/storage/memory"
	"bodycomp-lab/internal/storage/migrations"
	pgstore "bodycomp-lab/internal/storage/postgres"
)

func main() {
	// Parse flags (env vars as defaults)
	inputPath := flag.String("input", "", "Path to a JSONL measurement export (required)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	migrate := flag.Bool("migrate", false, "Apply embedded schema migrations before the run")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	// Setup logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "ingest").Logger()

	// Validate required flags
	if *inputPath == "" {
		logger.Fatal().Msg("--input is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal().Msg("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Info().Str("addr", *metricsAddr).Msg("Starting metrics server")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("Metrics server error")
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout. Progress is saved per
	// line, so a cancelled run resumes cleanly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Info().Stringer("signal", sig).Msg("Received signal, initiating graceful shutdown")
		cancel()

		select {
		case sig := <-sigCh:
			logger.Info().Stringer("signal", sig).Msg("Received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error().Msg("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, *inputPath, *postgresDSN, *clickhouseDSN, *useMemory, *migrate)

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("Backfill failed")
	}
}

// run wires stores and executes the backfill.
func run(ctx context.Context, logger zerolog.Logger, inputPath, postgresDSN, clickhouseDSN string, useMemory, migrate bool) error {
	// Create stores (use interfaces)
	var measurementStore storage.MeasurementStore = memory.NewMeasurementStore()
	var resultStore storage.ResultStore = memory.NewResultStore()
	var historyStore storage.ResultHistoryStore = memory.NewResultHistoryStore()
	var progressStore storage.IntakeProgressStore = memory.NewIntakeProgressStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		var conn *chstore.Conn
		if migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("postgres migrations: %w", err)
			}
			// Creates the database when missing, then connects.
			conn, err = migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
			if err != nil {
				return fmt.Errorf("clickhouse migrations: %w", err)
			}
		} else {
			conn, err = chstore.NewConn(ctx, clickhouseDSN)
			if err != nil {
				return fmt.Errorf("connect to clickhouse: %w", err)
			}
		}
		defer conn.Close()

		measurementStore = pgstore.NewMeasurementStore(pool)
		resultStore = pgstore.NewResultStore(pool)
		progressStore = pgstore.NewIntakeProgressStore(pool)
		historyStore = chstore.NewResultHistoryStore(conn)
	}

	backfiller := intake.NewBackfiller(intake.BackfillerOptions{
		Calculator:   calc.NewCalculator(calc.ConfigFromEnv()),
		Measurements: measurementStore,
		Results:      resultStore,
		History:      historyStore,
		Progress:     progressStore,
		Logger:       logger,
	})

	stats, err := backfiller.Run(ctx, inputPath)
	if err != nil {
		return err
	}

	fmt.Printf("Backfill complete: %d processed, %d skipped, %d rejected\n",
		stats.Processed, stats.Skipped, stats.Rejected)
	return nil
}
