package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/store/memory"
	"github.com/mohamedmalandi/nova/internal/store/postgres"
)

func testConfig() *config.Config {
	return &config.Config{
		Store:      config.StoreMemory,
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: 4,
		Seed: &config.SeedAdmin{
			Username: "nova",
			Email:    "admin@nova.com",
			Password: "secret123",
		},
	}
}

func TestInit_SeedsAdmin(t *testing.T) {
	srv := New(testConfig())
	if err := srv.Init(context.Background()); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer srv.Close()

	body := []byte(`{"email":"admin@nova.com","password":"secret123"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	srv := New(testConfig())
	if err := srv.Init(context.Background()); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer srv.Close()

	// A second run with a different password must not replace the first.
	srv.config.Seed.Password = "changed"
	hasher, err := admin.NewHasher(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.seedAdmin(context.Background(), hasher); err != nil {
		t.Fatalf("seedAdmin() failed: %v", err)
	}

	admins, err := srv.store.(*memory.Store).ListAdmins(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 1 {
		t.Fatalf("expected 1 admin, got %d", len(admins))
	}
}

func TestInit_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"no secret", func(c *config.Config) { c.JWTSecret = "" }},
		{"unknown store", func(c *config.Config) { c.Store = "redis" }},
		{"bad bcrypt cost", func(c *config.Config) { c.BcryptCost = 99 }},
		{"seed without password", func(c *config.Config) { c.Seed.Password = "" }},
		{"seed with malformed email", func(c *config.Config) { c.Seed.Email = "foo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			srv := New(cfg)
			if err := srv.Init(context.Background()); err == nil {
				srv.Close()
				t.Fatal("Init() succeeded, want error")
			}
			if srv.store != nil || srv.api != nil {
				t.Fatal("failed Init left components open")
			}
		})
	}
}

func TestInit_EmbeddedPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded postgres in short mode")
	}

	cfg := testConfig()
	cfg.Store = config.StorePostgres
	cfg.EmbeddedPG = true
	cfg.PGPort = 15433
	cfg.DataDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	srv := New(cfg)
	if err := srv.Init(ctx); err != nil {
		t.Skipf("embedded postgres unavailable: %v", err)
	}
	defer srv.Close()

	db := srv.store.(*postgres.Store).DB()
	var tables int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name IN ('admins', 'products', 'events')
	`).Scan(&tables)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if tables != 3 {
		t.Errorf("expected 3 tables, got %d", tables)
	}

	var admins int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&admins); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if admins != 1 {
		t.Errorf("expected seeded admin, got %d rows", admins)
	}
}
