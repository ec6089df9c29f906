// Package server wires configuration, persistence, auth and the HTTP API
// into one process and runs it until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/auth"
	"github.com/mohamedmalandi/nova/internal/catalog"
	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/httpapi"
	"github.com/mohamedmalandi/nova/internal/log"
	"github.com/mohamedmalandi/nova/internal/obs"
	"github.com/mohamedmalandi/nova/internal/pg"
	"github.com/mohamedmalandi/nova/internal/store"
)

// ShutdownTimeout bounds graceful shutdown of in-flight requests.
const ShutdownTimeout = 30 * time.Second

type Server struct {
	config     config.Config
	httpServer *http.Server

	pgDatabase *pg.EmbeddedDatabase
	store      store.Backend
	api        *httpapi.API
}

// New returns a server for a copy of cfg. Nothing is started until Init
// or Start.
func New(cfg *config.Config) *Server {
	return &Server{config: *cfg}
}

// Init starts the embedded database when configured, opens the store,
// provisions the seed admin and builds the HTTP API.
//
// On error every component started so far is stopped again.
func (s *Server) Init(ctx context.Context) (err error) {
	if s.api != nil {
		return nil
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	cfg := &s.config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// 1. Embedded PostgreSQL
	if cfg.Store == config.StorePostgres && cfg.EmbeddedPG {
		s.pgDatabase = pg.NewEmbeddedDatabase(pg.FromConfig(cfg))
		if err := s.pgDatabase.Start(ctx); err != nil {
			return fmt.Errorf("failed to start PostgreSQL: %w", err)
		}
		cfg.DatabaseURL = s.pgDatabase.ConnectionString()
	}

	// 2. Store
	s.store, err = store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}

	// 3. Auth
	hasher, err := admin.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}
	if err := s.seedAdmin(ctx, hasher); err != nil {
		return err
	}

	// 4. HTTP API
	s.api = httpapi.New(httpapi.Config{
		Products:    catalog.NewProductService(s.store),
		Events:      catalog.NewEventService(s.store),
		Auth:        auth.NewAuthenticator(s.store, hasher, tokens),
		Tokens:      tokens,
		Store:       s.store,
		Metrics:     obs.NewMetrics(),
		CORSOrigins: cfg.CORSOrigins,
		Production:  cfg.IsProduction(),
	})
	return nil
}

// seedAdmin provisions the configured admin when no admin has its email.
func (s *Server) seedAdmin(ctx context.Context, hasher *admin.Hasher) error {
	seed := s.config.Seed
	if seed == nil || seed.Email == "" {
		return nil
	}
	a, created, err := admin.Provision(ctx, s.store, hasher, seed.Username, seed.Email, seed.Password)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		log.Info("seed admin created", "email", a.Email, "username", a.Username)
	} else {
		log.Debug("seed admin already exists", "email", a.Email)
	}
	return nil
}

// Handler returns the HTTP API. Init must have succeeded.
func (s *Server) Handler() http.Handler {
	return s.api.Handler()
}

// Start initializes the server, listens on the configured address and
// blocks until SIGINT, SIGTERM, ctx cancellation or a listener failure.
func (s *Server) Start(ctx context.Context) error {
	log.Info("starting Nova server...", "store", s.config.Store, "env", s.config.Env)

	if err := s.Init(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Nova listening", "addr", addr)
		log.Info("APIs available:")
		log.Info(fmt.Sprintf("  Auth:     http://localhost:%d/api/auth/login", s.config.Port))
		log.Info(fmt.Sprintf("  Products: http://localhost:%d/api/products", s.config.Port))
		log.Info(fmt.Sprintf("  Events:   http://localhost:%d/api/events", s.config.Port))
		log.Info(fmt.Sprintf("  Health:   http://localhost:%d/api/health", s.config.Port))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return s.waitForShutdown(ctx, errCh)
}

func (s *Server) waitForShutdown(ctx context.Context, errCh <-chan error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down...", "signal", sig)
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	case serveErr = <-errCh:
		log.Error("http server failed", "error", serveErr)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown incomplete", "error", err)
		}
	}
	s.Close()

	log.Info("Nova stopped")
	return serveErr
}

// Close releases the store and stops the embedded database.
func (s *Server) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Warn("store close failed", "error", err)
		}
		s.store = nil
	}
	if s.pgDatabase != nil {
		s.pgDatabase.Stop()
		s.pgDatabase = nil
	}
	s.api = nil
}
