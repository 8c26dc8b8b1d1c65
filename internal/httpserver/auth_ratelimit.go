package httpserver

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const authRateLimitKeyPrefix = "fh:ratelimit:"

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// AuthRateLimit caps credential attempts per client IP and route, shared by every API instance
// through Redis.
func AuthRateLimit(rateLimiter RequestRateLimiter, routeName string, allowedPerMin int, rejected prometheus.Counter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rateLimiter == nil || allowedPerMin <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := authRateLimitKeyPrefix + routeName + ":" + extractIP(r)
			res, err := rateLimiter.Allow(r.Context(), key, redis_rate.PerMinute(allowedPerMin))
			if err != nil {
				log.Errorf("auth rate limit %s: %s", routeName, err)
				writeError(w, http.StatusInternalServerError, "rate_limit_error", "rate limit check failed")
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if rejected != nil {
				rejected.Inc()
			}
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts, retry later")
		})
	}
}
