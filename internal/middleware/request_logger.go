package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/pkg/logger"
)

// RequestLogger writes one structured line per request
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo render the error so the status below is final
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := logger.Fields{
				"method":      req.Method,
				"path":        req.URL.Path,
				"status":      res.Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  res.Header().Get(echo.HeaderXRequestID),
			}
			if identity := Identity(c); identity != "" {
				fields["identity"] = identity
			}

			switch {
			case res.Status >= 500:
				logger.ErrorWithFields("request failed", fields)
			case res.Status >= 400:
				logger.WarnWithFields("request rejected", fields)
			default:
				logger.InfoWithFields("request completed", fields)
			}
			return nil
		}
	}
}
