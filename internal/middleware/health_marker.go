package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys of the request counters read by the health endpoints.
const (
	KeyReqTotal  = "health:nhadat:req_total"
	KeyReqErrors = "health:nhadat:req_errors"
	KeyResTime   = "health:nhadat:res_time_total"
	KeyResCount  = "health:nhadat:res_count"
	KeyStartTime = "health:nhadat:start_time"
	KeyLastReq   = "health:nhadat:last_request"
	KeyErrorLog  = "health:nhadat:error_log"

	errorLogSize = 50
)

// HealthKeys lists every counter key, for resets.
var HealthKeys = []string{KeyReqTotal, KeyReqErrors, KeyResTime, KeyResCount, KeyStartTime, KeyLastReq, KeyErrorLog}

// HealthMarker records request stats in Redis (skips /health*, /metrics, /assets and favicon).
// A nil client disables it. Redis failures never fail the request.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if rdb == nil || path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/metrics") ||
			strings.HasPrefix(path, "/assets") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		ctx := c.UserContext()
		b, _ := json.Marshal(map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		pipe := rdb.Pipeline()
		pipe.Set(ctx, KeyLastReq, b, 0)
		pipe.Incr(ctx, KeyReqTotal)
		_, _ = pipe.Exec(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		pipe = rdb.Pipeline()
		pipe.Incr(ctx, KeyResCount)
		pipe.IncrByFloat(ctx, KeyResTime, float64(time.Since(start).Milliseconds()))
		if status >= fiber.StatusInternalServerError {
			entry, _ := json.Marshal(map[string]interface{}{
				"time":     time.Now(),
				"path":     c.OriginalURL(),
				"method":   c.Method(),
				"status":   status,
				"trace_id": GetTraceID(c),
			})
			pipe.Incr(ctx, KeyReqErrors)
			pipe.LPush(ctx, KeyErrorLog, entry)
			pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
		}
		_, _ = pipe.Exec(ctx)
		return err
	}
}
