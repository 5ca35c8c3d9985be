// Package middleware wires fanlog into echo: emission of the ChromeLogger
// response header and per-request access logging.
package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/croftbyte/go-fanlog/handler/chrome"
	"github.com/croftbyte/go-fanlog/logger"
	"github.com/croftbyte/go-fanlog/record"
)

// ChromeLogger attaches the handler's accumulated batch to the response as
// the X-ChromeLogger-Data header. The header is written through the
// response's pre-write hook, so it only lands while the headers are still
// open; the batch is reset afterwards either way.
func ChromeLogger(h *chrome.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Before(func() {
				if !c.Response().Committed {
					value, ok, err := h.HeaderValue()
					if err == nil && ok {
						c.Response().Header().Set(chrome.HeaderName, value)
					}
				}
				h.Reset()
			})
			return next(c)
		}
	}
}

// RequestLogger logs one record per request with the method, path, status,
// client IP, and elapsed time. Server errors log at error level, client
// errors at warning, everything else at info.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}

			level := record.Info
			switch {
			case status >= 500:
				level = record.Error
			case status >= 400:
				level = record.Warning
			}

			log.Log(level, "{method} {path} -> {status}", map[string]any{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     status,
				"client_ip":  c.RealIP(),
				"elapsed_ms": time.Since(start).Milliseconds(),
			})
			return err
		}
	}
}
