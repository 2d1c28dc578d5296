package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"vision_collage/pkg/metrics"
)

const headerRequestID = "X-Request-ID"

// RequestLogger attaches a request-scoped zerolog logger to the request
// context, logs the outcome of every request and counts it in reg.
func RequestLogger(reg *metrics.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			rid := req.Header.Get(headerRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, rid)

			logger := log.With().
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// let echo's error handler write the response so the status is known
				c.Error(err)
			}

			status := c.Response().Status
			labels := metrics.Labels{
				"method": req.Method,
				// route template, not the raw path, to keep label values bounded
				"route":  c.Path(),
				"status": statusClass(status),
			}
			reg.Inc(c.Request().Context(), "http_requests_total", labels, 1)

			ev := logger.Info()
			msg := "http request served"
			if status >= 500 || err != nil {
				ev = logger.Error().Err(err)
				msg = "http request failed"
				reg.Inc(c.Request().Context(), "http_requests_errors_total", labels, 1)
			}
			ev.Int("status", status).Dur("duration", time.Since(start)).Msg(msg)
			return nil
		}
	}
}

func statusClass(code int) string {
	if code < 100 || code >= 600 {
		return "0"
	}
	return string(rune('0'+code/100)) + "xx"
}
