package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-petr/pet-wallet/pkg/web"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrTooManyLoginAttempts indicates that the login rate limit is exceeded.
var ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later")

// LoginRateLimit limits login attempts per client IP using a redis counter
// with a one minute window.
//
// Without redis, or on redis errors, the limiter fails open.
func LoginRateLimit(cache *redis.Client, maxPerMin int) gin.HandlerFunc {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}

	return func(gctx *gin.Context) {
		if cache == nil {
			gctx.Next()
			return
		}

		ctx := gctx.Request.Context()
		l := zerolog.Ctx(ctx)

		key := "rl:login:" + gctx.ClientIP()

		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			l.Warn().Err(err).Msg("login rate limiter unavailable")
			gctx.Next()

			return
		}

		if cnt == 1 {
			cache.Expire(ctx, key, time.Minute)
		}

		if cnt > int64(maxPerMin) {
			gctx.AbortWithStatusJSON(http.StatusTooManyRequests, web.Error(ErrTooManyLoginAttempts))

			return
		}

		gctx.Next()
	}
}
