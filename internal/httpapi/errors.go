package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mohamedmalandi/nova/internal/auth"
	"github.com/mohamedmalandi/nova/internal/catalog"
	"github.com/mohamedmalandi/nova/internal/log"
)

// handlerFunc is an HTTP handler that reports failure by returning an error.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts h to net/http, routing any returned error to handleError.
func (a *API) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			a.handleError(w, r, err)
		}
	}
}

// httpError carries an explicit status and client-facing message.
type httpError struct {
	Status  int
	Message string
	Err     error
}

func (e *httpError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *httpError) Unwrap() error { return e.Err }

func badRequest(message string, err error) *httpError {
	return &httpError{Status: http.StatusBadRequest, Message: message, Err: err}
}

// notFoundAs replaces catalog.ErrNotFound with a resource-specific 404.
func notFoundAs(err error, message string) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return &httpError{Status: http.StatusNotFound, Message: message, Err: err}
	}
	return err
}

type errorResponse struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// handleError is the single place where errors become responses:
//   - explicit httpError: its status and message
//   - validation failure: 400
//   - bad or expired token: 401 with a generic message
//   - wrong credentials: 401
//   - unknown resource: 404
//   - anything else: 500, with a stack trace outside production
func (a *API) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		herr    *httpError
		verr    *catalog.ValidationError
		tooBig  *http.MaxBytesError
		payload errorResponse
		status  int
	)

	switch {
	case errors.As(err, &herr):
		status, payload.Message = herr.Status, herr.Message
	case errors.As(err, &verr):
		status, payload.Message = http.StatusBadRequest, verr.Error()
	case errors.As(err, &tooBig):
		status, payload.Message = http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooBig.Limit)
	case errors.Is(err, auth.ErrInvalidToken):
		status, payload.Message = http.StatusUnauthorized, "Not authorized, token failed"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, payload.Message = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, catalog.ErrNotFound):
		status, payload.Message = http.StatusNotFound, "Not found"
	default:
		status = http.StatusInternalServerError
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestIDFrom(r.Context()), "error", err)
		if a.production {
			payload.Message = http.StatusText(status)
		} else {
			payload.Message = err.Error()
			payload.Stack = fmt.Sprintf("%+v", err)
		}
	}

	if status < http.StatusInternalServerError {
		log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, payload)
}

// decodeJSON reads the request body into v. An empty body decodes as {}.
// Unknown fields are ignored; anything after the first JSON value is not.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		err = dec.Decode(&struct{}{})
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err == nil {
			err = errors.New("unexpected data after JSON body")
		}
	}

	var (
		verr   *catalog.ValidationError
		tooBig *http.MaxBytesError
	)
	if errors.As(err, &verr) || errors.As(err, &tooBig) {
		return err
	}
	return badRequest("Invalid request body", err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
