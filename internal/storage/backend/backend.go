// Package backend opens the configured pro-forma stores and applies their
// schema migrations.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/BubDublin/solar-proforma/internal/storage"
	chstore "github.com/BubDublin/solar-proforma/internal/storage/clickhouse"
	"github.com/BubDublin/solar-proforma/internal/storage/memory"
	"github.com/BubDublin/solar-proforma/internal/storage/migrations"
	pgstore "github.com/BubDublin/solar-proforma/internal/storage/postgres"
)

// ErrNoPostgres is returned when persistent storage is requested without a Postgres DSN.
var ErrNoPostgres = errors.New("postgres dsn is required unless memory storage is used")

// Config selects the storage backends.
type Config struct {
	UseMemory     bool
	PostgresDSN   string
	ClickhouseDSN string // optional; without it cash-flow rows are not stored
	MaxConns      int32
}

// Stores holds the opened stores. CashFlows may be nil.
type Stores struct {
	ProFormas storage.ProFormaStore
	CashFlows storage.CashFlowStore
	Kind      string // "memory" or "postgres" / "postgres+clickhouse"
}

// Open creates the stores described by cfg. The returned cleanup closes
// every connection and is safe to call once.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Stores, func(), error) {
	if cfg.UseMemory {
		return &Stores{
			ProFormas: memory.NewProFormaStore(),
			CashFlows: memory.NewCashFlowStore(),
			Kind:      "memory",
		}, func() {}, nil
	}

	if cfg.PostgresDSN == "" {
		return nil, nil, ErrNoPostgres
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, cfg.MaxConns)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	logger.Println("Postgres migrations applied")

	stores := &Stores{
		ProFormas: pgstore.NewProFormaStore(pool),
		Kind:      "postgres",
	}
	if cfg.ClickhouseDSN == "" {
		return stores, pool.Close, nil
	}

	// ClickHouse
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	logger.Println("ClickHouse migrations applied")

	stores.CashFlows = chstore.NewCashFlowStore(conn)
	stores.Kind = "postgres+clickhouse"

	cleanup := func() {
		if err := conn.Close(); err != nil {
			logger.Printf("close clickhouse: %v", err)
		}
		pool.Close()
	}
	return stores, cleanup, nil
}
