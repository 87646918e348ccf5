package middleware

import (
	"strconv"
	"time"

	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const rateLimitPrefix = "ratelimit:"

// RateLimit allows limit requests per window per client IP and scope, counted in Redis.
// A nil client or a non-positive limit disables it; Redis errors let the request through.
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || limit <= 0 {
			return c.Next()
		}
		ctx := c.UserContext()
		key := rateLimitPrefix + scope + ":" + c.IP()
		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("rate limit check failed")
			return c.Next()
		}
		n := incr.Val()
		// A counter without a TTL would never reset.
		if ttl.Val() < 0 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				log.Warn().Err(err).Str("scope", scope).Msg("rate limit expiry failed")
			}
		}
		remaining := int64(limit) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if n > int64(limit) {
			if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))
			}
			return response.Error(c, "Quá nhiều yêu cầu, vui lòng thử lại sau", fiber.StatusTooManyRequests, apperror.KindValidation)
		}
		return c.Next()
	}
}
