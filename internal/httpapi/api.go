// Package httpapi is the HTTP surface of the Nova backend.
//
// Routes are mounted under /api. Reads of products and events are public;
// every mutating route sits behind the bearer-token gate. Handlers return
// errors and never write failure responses themselves; handleError maps
// every error to a status code and a JSON body in one place.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/mohamedmalandi/nova/internal/auth"
	"github.com/mohamedmalandi/nova/internal/catalog"
	"github.com/mohamedmalandi/nova/internal/obs"
)

// Banner is the plain-text body of GET /.
const Banner = "Nova Community Backend is running"

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 1 << 20

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the API to its services.
type Config struct {
	Products *catalog.ProductService
	Events   *catalog.EventService
	Auth     *auth.Authenticator
	Tokens   *auth.TokenManager
	Store    Pinger
	// Metrics is optional; without it /metrics is not served.
	Metrics *obs.Metrics

	CORSOrigins  []string
	MaxBodyBytes int64
	// Production hides error details in 500 responses.
	Production bool
}

// API is the HTTP layer.
type API struct {
	products *catalog.ProductService
	events   *catalog.EventService
	authn    *auth.Authenticator
	tokens   *auth.TokenManager
	store    Pinger
	metrics  *obs.Metrics

	corsOrigins  []string
	maxBodyBytes int64
	production   bool

	router *chi.Mux
	now    func() time.Time
}

// New builds the API and its routes.
func New(cfg Config) *API {
	a := &API{
		products:     cfg.Products,
		events:       cfg.Events,
		authn:        cfg.Auth,
		tokens:       cfg.Tokens,
		store:        cfg.Store,
		metrics:      cfg.Metrics,
		corsOrigins:  cfg.CORSOrigins,
		maxBodyBytes: cfg.MaxBodyBytes,
		production:   cfg.Production,
		router:       chi.NewRouter(),
		now:          time.Now,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = DefaultMaxBodyBytes
	}
	if len(a.corsOrigins) == 0 {
		a.corsOrigins = []string{"*"}
	}
	a.setupRoutes()
	return a
}

// Handler returns the root handler for the HTTP server.
func (a *API) Handler() http.Handler {
	return a.router
}

// setupRoutes configures all HTTP routes.
//
// Routes:
//   - GET  /                            banner
//   - GET  /metrics                     Prometheus exposition
//   - GET  /api/health, /api/ready      probes
//   - POST /api/auth/login              admin login
//   - /api/products, /api/events        resources; writes need a bearer token
func (a *API) setupRoutes() {
	r := a.router

	r.Use(a.requestID)
	r.Use(a.logRequests)
	r.Use(a.recoverer)
	if a.metrics != nil {
		r.Use(a.metrics.Instrument)
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins: a.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         600,
	}).Handler)
	r.Use(a.limitBody)

	// Set before mounting so subrouters inherit them.
	r.NotFound(a.handle(a.notFound))
	r.MethodNotAllowed(a.handle(a.notFound))

	r.Get("/", a.handleRoot)
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/ready", a.handleReady)
		r.Post("/auth/login", a.handle(a.login))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", a.handle(a.listProducts))
			r.Get("/{id}", a.handle(a.getProduct))

			r.Group(func(r chi.Router) {
				r.Use(a.requireAdmin)
				r.Post("/", a.handle(a.createProduct))
				r.Put("/{id}", a.handle(a.updateProduct))
				r.Delete("/{id}", a.handle(a.deleteProduct))
				r.Patch("/{id}/toggle", a.handle(a.toggleProduct))
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", a.handle(a.listEvents))
			r.Get("/{id}", a.handle(a.getEvent))

			r.Group(func(r chi.Router) {
				r.Use(a.requireAdmin)
				r.Post("/", a.handle(a.createEvent))
				r.Put("/{id}", a.handle(a.updateEvent))
				r.Delete("/{id}", a.handle(a.deleteEvent))
			})
		})
	})
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": a.now().UTC(),
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) error {
	return &httpError{Status: http.StatusNotFound, Message: "Not Found - " + r.URL.Path}
}
