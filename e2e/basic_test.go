package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/server"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServer_Startup(t *testing.T) {
	port := freePort(t)
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	// Create server on the memory store with a seeded admin
	srv := server.New(&config.Config{
		Host:       "127.0.0.1",
		Port:       port,
		Env:        config.EnvDevelopment,
		Store:      config.StoreMemory,
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: 4,
		Seed: &config.SeedAdmin{
			Username: "nova",
			Email:    "admin@nova.com",
			Password: "secret123",
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// Wait for startup with retries
	var (
		resp *http.Response
		err  error
	)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		resp, err = http.Get(baseURL + "/api/health")
		if err == nil {
			break
		}
	}
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check returned status %d", resp.StatusCode)
	}

	// Login with the seeded admin
	body, _ := json.Marshal(map[string]string{"email": "admin@nova.com", "password": "secret123"})
	resp, err = http.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	var login struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&login)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || login.Token == "" {
		t.Fatalf("login status %d, token %q", resp.StatusCode, login.Token)
	}

	// Create a product with the token, then read it back publicly
	body, _ = json.Marshal(map[string]any{"name": "Steam Key", "type": "item", "category": "keys", "price": 20})
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product status %d", resp.StatusCode)
	}

	resp, err = http.Get(baseURL + "/api/products?activeOnly=true")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	var products []map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&products)
	resp.Body.Close()
	if len(products) != 1 || products[0]["name"] != "Steam Key" {
		t.Fatalf("unexpected products: %v", products)
	}

	// Cancel to trigger shutdown
	cancel()

	// Verify clean shutdown
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Server error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
