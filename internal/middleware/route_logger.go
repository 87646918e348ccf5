package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs each request entry and exit with duration and trace ID.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := GetTraceID(c)
		if traceID == "" {
			traceID = "no-trace-id"
		}
		start := time.Now()
		log.Debug().Str("trace_id", traceID).Str("method", c.Method()).Str("path", c.Path()).Msg("Entering request")
		err := c.Next()
		ev := log.Info().Str("trace_id", traceID).Str("method", c.Method()).Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).Int64("ms", time.Since(start).Milliseconds())
		if p := GetPrincipal(c); p != nil {
			ev = ev.Str("account_id", p.AccountID.String())
		}
		ev.Msg("Exiting request")
		return err
	}
}
