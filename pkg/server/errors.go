package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/session"
)

// HTTPError carries the status a handler should answer with.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is an HTTPError wrapping an optional cause.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type errorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code"`
	Redirect *session.Redirect `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

const maxBodyBytes = 4 << 20

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
	}
	label := "FORBIDDEN"
	if code == http.StatusUnauthorized {
		label = "UNAUTHENTICATED"
	}
	message := http.StatusText(code)
	if err != nil {
		message = err.Error()
	}
	writeError(w, code, label, message)
}

// writeBackendError maps session and api client failures to responses.
func writeBackendError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var status *apiclient.StatusError
	switch {
	case errors.Is(err, session.ErrTemplateNotFound), errors.Is(err, apiclient.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, session.ErrNoDocument):
		writeError(w, http.StatusConflict, "NO_DOCUMENT", err.Error())
	case errors.Is(err, session.ErrStale):
		writeError(w, http.StatusConflict, "STALE", err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		writeError(w, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", err.Error())
	case errors.As(err, &status):
		writeError(w, http.StatusBadGateway, "BACKEND_ERROR", err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
