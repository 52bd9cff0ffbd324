package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// visitorIdleTTL is how long an idle client's bucket is kept.
const visitorIdleTTL = 10 * time.Minute

// RateLimit keeps one token bucket per client IP and rejects requests over
// the client's budget with 429.
func RateLimit(limit rate.Limit, burst int) echo.MiddlewareFunc {
	if burst <= 0 {
		burst = 1
	}
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      limit,
			Burst:     burst,
			ExpiresIn: visitorIdleTTL,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			c.Response().Header().Set("Retry-After", "1")
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
}
