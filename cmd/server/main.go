// Package main runs the pro-forma HTTP API: projections, the live preview
// websocket, workbook exports and saved pro-forma lookups.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BubDublin/solar-proforma/internal/incentive"
	"github.com/BubDublin/solar-proforma/internal/observability"
	"github.com/BubDublin/solar-proforma/internal/projection"
	"github.com/BubDublin/solar-proforma/internal/server"
	"github.com/BubDublin/solar-proforma/internal/storage/backend"
)

func main() {
	// Load .env file if exists; system env vars win
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	incentivesFile := flag.String("incentives-file", os.Getenv("INCENTIVES_FILE"), "YAML incentive tables (default: built-in)")
	useMemory := flag.Bool("use-memory", envBool("USE_MEMORY"), "Use in-memory storage instead of PostgreSQL")
	maxConns := flag.Int("max-conns", 10, "Maximum PostgreSQL connections")
	shutdownTimeout := flag.Duration("shutdown-timeout", 15*time.Second, "Graceful shutdown timeout")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	tables, err := loadTables(*incentivesFile)
	if err != nil {
		logger.Fatalf("Failed to load incentive tables: %v", err)
	}
	logger.Printf("Loaded %d SREC programs and %d utilities", len(tables.Programs()), len(tables.Utilities()))

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create stores
	stores, cleanup, err := backend.Open(ctx, backend.Config{
		UseMemory:     *useMemory,
		PostgresDSN:   *postgresDSN,
		ClickhouseDSN: *clickhouseDSN,
		MaxConns:      int32(*maxConns),
	}, log.New(os.Stdout, "[storage] ", log.LstdFlags|log.Lshortfile))
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()
	logger.Printf("Using %s storage", stores.Kind)

	srv := server.New(server.Options{
		Engine:    projection.NewEngine(tables),
		ProFormas: stores.ProFormas,
		CashFlows: stores.CashFlows,
		Metrics:   observability.DefaultMetrics,
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:              *listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting HTTP server on %s", *listenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server error: %v", err)
		}
	case <-ctx.Done():
		logger.Println("Received shutdown signal, draining connections...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Graceful shutdown failed: %v", err)
	}

	logger.Println("Shutdown complete")
}

func loadTables(path string) (*incentive.Tables, error) {
	if path == "" {
		return incentive.Default()
	}
	return incentive.LoadFile(path)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
