package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/partchain/internal/logger"
	postgresstore "github.com/wolfeidau/partchain/internal/store/postgres"
)

type MigrateCmd struct {
	Postgres PostgresFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	if err := c.Postgres.Validate(); err != nil {
		return err
	}

	cfg := c.Postgres.poolConfig()
	pool, err := postgresstore.NewPool(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := postgresstore.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Database migrations completed")

	return nil
}
