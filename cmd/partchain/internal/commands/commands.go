package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/partchain/internal/store"
	memorystore "github.com/wolfeidau/partchain/internal/store/memory"
	postgresstore "github.com/wolfeidau/partchain/internal/store/postgres"
	"github.com/wolfeidau/partchain/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Version string
}

type LedgerFlags struct {
	StoreType string        `help:"ledger store type (memory or postgres)" default:"memory" env:"PARTCHAIN_STORE_TYPE" enum:"memory,postgres"`
	Postgres  PostgresFlags `embed:"" prefix:"postgres-"`
}

type PostgresFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"10"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Transaction Configuration
	MaxTries     uint  `help:"attempts per transaction on serialization failures" default:"5"`
	QueryTimeout int32 `help:"transaction timeout in seconds" default:"10"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"PARTCHAIN_POSTGRES_AUTO_MIGRATE"`
}

func (p *PostgresFlags) Validate() error {
	if p.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (p *PostgresFlags) poolConfig() postgresstore.PoolConfig {
	return postgresstore.PoolConfig{
		ConnString:      p.ConnString,
		MaxConns:        p.MaxConns,
		MinConns:        p.MinConns,
		MaxConnLifetime: p.MaxConnLifetime,
		MaxConnIdleTime: p.MaxConnIdleTime,
	}
}

// open returns the ledger selected by the flags and a function releasing it.
func (f *LedgerFlags) open(ctx context.Context, log zerolog.Logger) (store.Transactor, func(), error) {
	switch f.StoreType {
	case "postgres":
		if err := f.Postgres.Validate(); err != nil {
			return nil, nil, err
		}
		ledger, err := postgresstore.NewLedger(ctx, &postgresstore.LedgerConfig{
			PoolConfig:          f.Postgres.poolConfig(),
			AutoMigrate:         f.Postgres.AutoMigrate,
			MaxTries:            f.Postgres.MaxTries,
			QueryTimeoutSeconds: f.Postgres.QueryTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres ledger: %w", err)
		}
		log.Info().Msg("Using PostgreSQL ledger")
		return ledger, ledger.Close, nil
	default:
		log.Info().Msg("Using in-memory ledger")
		return memorystore.NewLedger(), func() {}, nil
	}
}

// startTelemetry initialises OpenTelemetry when enabled. The returned function
// flushes and stops the providers.
func startTelemetry(ctx context.Context, log zerolog.Logger, enabled bool, service, version string, ratio float64) func() {
	if !enabled {
		return func() {}
	}

	log.Info().Msg("Tracing is enabled")
	shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
		ServiceName: service,
		Version:     version,
		SampleRatio: ratio,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}
