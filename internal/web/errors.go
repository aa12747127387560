package web

// errors.go provides unified error responses for the API.
//
// Every handler error goes through respondError, which:
//  1. maps the error to a user message via core.MapError
//  2. logs the technical error with the request ID for correlation
//  3. writes an ErrorResponse JSON body

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/qrforge/internal/batch"
	"github.com/JonMunkholm/qrforge/internal/core"
	"github.com/JonMunkholm/qrforge/internal/logging"
	"github.com/JonMunkholm/qrforge/internal/store"
)

var (
	errRateLimited  = errors.New("rate limit exceeded")
	errNoFile       = errors.New("no file provided")
	errNoImage      = errors.New("no image provided")
	errInvalidID    = fmt.Errorf("invalid id: %w", store.ErrNotFound)
	errInvalidJSON  = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

// ErrorResponse is the JSON body of every API error. Code is stable and
// meant for support references; Message and Action are for display.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form with statusCode.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := core.MapError(err)
	logRequestError(r, err, statusCode, msg.Code)
	respondErrorJSON(w, msg, statusCode)
}

// respondServiceError picks the status from the error itself.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func logRequestError(r *http.Request, err error, status int, code string) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
	)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var (
		parseErr *batch.ParseError
		itemErr  *batch.ItemError
		maxBytes *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrTooManyBatches):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrCSVTooLarge), errors.Is(err, errBodyTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrNotFound), errors.Is(err, core.ErrExportNotFound):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrMissingContentColumn),
		errors.Is(err, batch.ErrNoHeader),
		errors.As(err, &parseErr),
		errors.As(err, &itemErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTemplateNameRequired),
		errors.Is(err, core.ErrInvalidStyleJSON),
		errors.Is(err, core.ErrContentRequired),
		errors.Is(err, errInvalidJSON),
		errors.Is(err, errNoFile),
		errors.Is(err, errNoImage):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// nginx's "client closed request"
		return 499
	default:
		return http.StatusInternalServerError
	}
}
