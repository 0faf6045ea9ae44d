package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// errorHandler renders every unhandled error as {"error": message}.
func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := msgBroke

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch he.Code {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				status = http.StatusNotFound
				msg = msgNoRoute
			case http.StatusInternalServerError:
			default:
				if m, ok := he.Message.(string); ok {
					msg = m
				} else {
					msg = http.StatusText(he.Code)
				}
			}
		}
		if status >= http.StatusInternalServerError {
			logger.WithFields(log.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
				"error":  err.Error(),
			}).Error("unhandled error")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, errorResponse{Error: msg})
		}
		if werr != nil {
			logger.WithFields(log.Fields{"error": werr.Error()}).Error("write error response")
		}
	}
}
