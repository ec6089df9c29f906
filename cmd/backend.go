package cmd

import (
	"context"
	"fmt"

	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/log"
	"github.com/mohamedmalandi/nova/internal/pg"
	"github.com/mohamedmalandi/nova/internal/store"
)

// loadConfig loads configuration and sets up logging for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func configureLog(cfg *config.Config) error {
	return log.Configure(log.Options{
		Level:      cfg.LogLevel,
		Production: cfg.IsProduction(),
		File:       cfg.LogFile,
	})
}

// resolveDatabaseURL starts the embedded database when the config asks for
// one and points cfg.DatabaseURL at it. The returned stop function is
// always safe to call.
func resolveDatabaseURL(ctx context.Context, cfg *config.Config) (func(), error) {
	if cfg.Store != config.StorePostgres || !cfg.EmbeddedPG {
		return func() {}, nil
	}

	db := pg.NewEmbeddedDatabase(pg.FromConfig(cfg))
	fmt.Printf("Starting database...\n")
	if err := db.Start(ctx); err != nil {
		return func() {}, fmt.Errorf("failed to start database: %w", err)
	}
	cfg.DatabaseURL = db.ConnectionString()
	return db.Stop, nil
}

// openBackend opens the configured store for a one-shot command.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, func(), error) {
	stopDB, err := resolveDatabaseURL(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		stopDB()
		return nil, nil, err
	}

	cleanup := func() {
		backend.Close()
		stopDB()
	}
	return backend, cleanup, nil
}
