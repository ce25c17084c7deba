package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Machine-readable error codes carried in the envelope.
const (
	codeValidationFailed = "validation_failed"
	codeIllegalArgument  = "illegal_argument"
	codeConflict         = "conflict"
	codeNotFound         = "not_found"
	codeForbidden        = "forbidden"
	codeUnauthorized     = "unauthorized"
	codeInternalError    = "internal_error"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Renders field detail for validation failures.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		body.Timestamp = time.Now().UTC()
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Request-shape failures carry field detail.
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{
			Code:    codeValidationFailed,
			Message: "validation failed",
			Errors:  ve.Fields,
		}
	}

	// Echo's own errors (bind failures, 404 from router, gate rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{
			Code:    statusCode(he.Code),
			Message: fmt.Sprintf("%v", he.Message),
		}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrSweetExists):
		return http.StatusBadRequest, errorResponse{Code: codeConflict, Message: err.Error()}

	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrNegativeQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, errorResponse{Code: codeIllegalArgument, Message: err.Error()}

	case errors.Is(err, domain.ErrInvalidCredentials):
		// Deliberately not 401: the login endpoint never reveals whether the
		// username or the password was wrong.
		return http.StatusNotFound, errorResponse{Code: codeNotFound, Message: "invalid credentials"}

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSweetNotFound):
		return http.StatusNotFound, errorResponse{Code: codeNotFound, Message: err.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{
		Code:    codeInternalError,
		Message: "an unexpected error occurred",
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return codeUnauthorized
	case http.StatusForbidden:
		return codeForbidden
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusInternalServerError:
		return codeInternalError
	case http.StatusBadRequest:
		// 400 HTTPErrors come from malformed requests (bind failures),
		// which are request-shape problems, not business rejections.
		return codeValidationFailed
	default:
		return codeIllegalArgument
	}
}
