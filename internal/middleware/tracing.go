package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	traceIDHeader = "X-Trace-Id"
	traceIDLocal  = "trace_id"
)

// Tracing tags each request with a trace id. A well-formed X-Trace-Id from the
// client or a proxy is kept; anything else is replaced with a fresh uuid. The id is
// echoed in the response and carried by a zerolog logger in the request context,
// so log.Ctx(c.UserContext()) writes trace_id on every line.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := uuid.New().String()
		if in, err := uuid.Parse(c.Get(traceIDHeader)); err == nil {
			traceID = in.String()
		}
		c.Locals(traceIDLocal, traceID)
		c.Set(traceIDHeader, traceID)
		logger := log.With().Str("trace_id", traceID).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext()))
		return c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" before Tracing ran.
func GetTraceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(traceIDLocal).(string); ok {
		return id
	}
	return ""
}
