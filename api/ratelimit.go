package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitOptions limits each client IP to Max requests per Window. Store
// overrides the in-process store, e.g. with storage.RedisRateStore when
// several instances share one budget.
type RateLimitOptions struct {
	Window time.Duration
	Max    int
	Store  middleware.RateLimiterStore
}

func (o RateLimitOptions) store() middleware.RateLimiterStore {
	if o.Store != nil {
		return o.Store
	}
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(o.Max) / o.Window.Seconds()),
		Burst:     o.Max,
		ExpiresIn: o.Window,
	})
}

func rateLimiter(o RateLimitOptions) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: o.store(),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, errorResponse{Error: "unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if err != nil && !errors.Is(err, middleware.ErrRateLimitExceeded) {
				return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternal})
			}
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: msgRateLimited})
		},
	})
}
