package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/mohamedmalandi/nova/internal/auth"
	"github.com/mohamedmalandi/nova/internal/ids"
	"github.com/mohamedmalandi/nova/internal/log"
	"github.com/mohamedmalandi/nova/internal/obs"
)

const (
	authHeader      = "Authorization"
	bearer          = "Bearer "
	requestIDHeader = "X-Request-ID"
)

type requestIDKey struct{}

// requestID propagates a valid incoming X-Request-ID or assigns a new ULID.
func (a *API) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if !ids.Valid(id) {
			id = ids.New()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// logRequests: method, route, status, duration
func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", obs.Route(r),
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", requestIDFrom(r.Context()),
		)
	})
}

// recoverer turns a panic into a 500 through handleError.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			a.handleError(w, r, errors.Errorf("panic: %v", rec))
		}()
		next.ServeHTTP(w, r)
	})
}

// limitBody caps request body size.
func (a *API) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin is the auth gate: a request passes only with a valid
// "Authorization: Bearer <token>" header. The admin id from the token is
// attached to the request context.
//
// Missing, malformed and invalid tokens all produce the same 401 body.
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			a.handleError(w, r, err)
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			a.handleError(w, r, err)
			return
		}

		ctx := auth.ContextWithAdminID(r.Context(), claims.AdminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminID is the id the auth gate attached to r, or "" on public routes.
func adminID(r *http.Request) string {
	id, _ := auth.AdminIDFromContext(r.Context())
	return id
}

// extractBearerToken returns the token of a Bearer authorization header.
// Its errors wrap auth.ErrInvalidToken.
func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.Wrap(auth.ErrInvalidToken, "missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.Wrap(auth.ErrInvalidToken, "invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.Wrap(auth.ErrInvalidToken, "missing bearer token")
	}
	return token, nil
}
