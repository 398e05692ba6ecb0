package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

// NewLimiterWithRedis limits requests per client IP over a sliding minute.
// Counters live in redis when rdb is set, in process memory otherwise.
func NewLimiterWithRedis(rdb *redis.Client, perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 60
	}
	cfg := limiter.Config{
		// sliding window
		Max:               perMinute,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	}
	if rdb != nil {
		cfg.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(cfg)
}
