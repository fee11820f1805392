package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/campaign"
)

// setupCampaign connects to Postgres and builds the campaign app. Only
// called in campaign mode; normal games keep no durable state.
func setupCampaign(ctx context.Context) (*campaign.App, *pgxpool.Pool, error) {
	cfg := campaign.NewDBConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := campaign.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("connected to database")
	return campaign.NewApp(campaign.NewRepository(pool)), pool, nil
}
