package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/api/handler"
	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// retryAfterSeconds is advertised on retriable failures.
const retryAfterSeconds = "1"

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if status == http.StatusServiceUnavailable || domain.IsRetriable(err) {
			c.Response().Header().Set("Retry-After", retryAfterSeconds)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	// Echo's own errors (router 404/405, auth middleware, rate limiter).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorResponse{
			Error: fmt.Sprintf("%v", he.Message),
			Code:  httpCode(he.Code),
		}
	}

	code := domain.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		return http.StatusInternalServerError, handler.ErrorResponse{Error: "internal server error", Code: "internal"}
	}

	body := handler.ErrorResponse{Error: err.Error(), Code: code}

	var short *domain.InsufficientStockError
	if errors.As(err, &short) {
		available, requested := short.Available, short.Requested
		body.Available, body.Requested = &available, &requested
	}

	if status == http.StatusServiceUnavailable {
		log.Warn().Err(err).Str("path", c.Path()).Msg("store unavailable")
		body.Error = "service temporarily unavailable"
	}
	return status, body
}

var statusByCode = map[string]int{
	"invalid_input":        http.StatusBadRequest,
	"invalid_quantity":     http.StatusBadRequest,
	"insufficient_stock":   http.StatusBadRequest,
	"duplicate_email":      http.StatusConflict,
	"duplicate_name":       http.StatusConflict,
	"purchase_in_progress": http.StatusConflict,
	"not_found":            http.StatusNotFound,
	"identity_not_found":   http.StatusNotFound,
	"invalid_credentials":  http.StatusUnauthorized,
	"forbidden":            http.StatusForbidden,
	"store_unavailable":    http.StatusServiceUnavailable,
}

// httpCode derives a snake_case code from the status text, e.g. 429 -> too_many_requests.
func httpCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "http_error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
