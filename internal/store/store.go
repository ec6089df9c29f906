// Package store selects and opens the persistence backend named in the
// configuration.
package store

import (
	"context"
	"fmt"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/catalog"
	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/log"
	"github.com/mohamedmalandi/nova/internal/store/memory"
	"github.com/mohamedmalandi/nova/internal/store/mongodb"
	"github.com/mohamedmalandi/nova/internal/store/postgres"
)

// Backend is everything the server needs from persistence.
type Backend interface {
	admin.Store
	catalog.ProductRepository
	catalog.EventRepository

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*mongodb.Store)(nil)
)

// Open connects the backend selected by cfg.Store. For postgres, pending
// migrations are applied first.
//
// The caller is responsible for pointing cfg.DatabaseURL at an embedded
// server when one is used.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Store {
	case config.StoreMemory, "":
		log.Warn("using in-memory store; data is lost on exit")
		return memory.New(), nil

	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres store needs a database url")
		}
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("connected to postgres")
		return s, nil

	case config.StoreMongo:
		s, err := mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Info("connected to mongo", "database", cfg.MongoDatabase)
		return s, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
