package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"gatewayapi/internal/logger"
)

// Logger logs one line per HTTP request: request_id, method, path, status and
// latency_ms, plus trace_id when a span is active. It also attaches a
// request-scoped logger to the user context so services can reach it with
// logger.FromContext. Must run after RequestID.
func Logger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		reqLog := log.WithField("request_id", rid)
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			reqLog = reqLog.WithField("trace_id", sc.TraceID().String())
		}
		c.SetUserContext(reqLog.WithContext(c.UserContext()))

		err := c.Next()

		status := statusOf(c, err)
		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = reqLog.Error()
			if err != nil {
				ev = ev.Err(err)
			}
		case status >= fiber.StatusBadRequest:
			ev = reqLog.Warn()
		default:
			ev = reqLog.Info()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency_ms", time.Since(start)).
			Msg("request")

		return err
	}
}

// statusOf returns the status the error handler will write for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
