package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/mindnest-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
)

const (
	RateLimitWindow      = 60 * time.Second
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// An IP exceeding the limit by this factor is blocked for BlockedIPDuration.
	blockFactor       = 3
	BlockedIPDuration = 15 * time.Minute
)

// RedisRateLimit counts requests per IP in fixed windows shared by all
// instances. Redis failures let the request through.
func RedisRateLimit(client *redis.Client, window time.Duration, max int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientip.LimiterKey(r)
			blockedKey := BlockedIPKeyPrefix + ip

			if n, err := client.Exists(ctx, blockedKey).Result(); err == nil && n > 0 {
				writeError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
				return
			}

			key := RateLimitKeyPrefix + ip
			n, err := client.Incr(ctx, key).Result()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if n == 1 {
				client.Expire(ctx, key, window)
			}
			count := int(n)

			if count > max*blockFactor {
				client.Set(ctx, blockedKey, "1", BlockedIPDuration)
			}
			if count > max {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", int(window.Seconds())))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max-count))
			next.ServeHTTP(w, r)
		})
	}
}
