package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

// Options configures the middleware stack of New.
type Options struct {
	// AllowOrigins is the CORS allow list; empty reflects any origin.
	AllowOrigins []string
	// BodyLimit is an echo size string such as "10M".
	BodyLimit string
	RateLimit RateLimitOptions
}

// New returns an echo instance with the middleware stack and all routes.
func New(repo Repository, logger *log.Logger, opts Options) *echo.Echo {
	if opts.BodyLimit == "" {
		opts.BodyLimit = "10M"
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(corsConfig(opts.AllowOrigins)))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Skipper: isStream}))
	e.Use(middleware.BodyLimit(opts.BodyLimit))
	e.Use(GzipRequestMiddleware())

	var mw []echo.MiddlewareFunc
	if opts.RateLimit.Max > 0 && opts.RateLimit.Window > 0 {
		mw = append(mw, rateLimiter(opts.RateLimit))
	}
	Register(e, repo, logger, mw...)
	return e
}
