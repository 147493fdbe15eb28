package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyFunc derives the rate-limit bucket for a request, typically the
// client IP.
type KeyFunc func(*http.Request) string

// Guard is a sliding-window rate limiter backed by Redis sorted sets.
// Data entry screens fire a request per keystroke when autosave is on,
// so write endpoints need a cap that tolerates short bursts.
type Guard struct {
	Client  *redis.Client
	Prefix  string
	Window  time.Duration
	Max     int
	Key     KeyFunc
	OnError func(error)
}

// Allow registers an event for the given key and reports whether it is
// within the limit, along with the remaining quota and window reset time.
func (g Guard) Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error) {
	if g.Client == nil || g.Max <= 0 || g.Window <= 0 {
		return true, g.Max, time.Now().Add(g.Window), nil
	}

	now := time.Now()
	until := now.Add(g.Window)
	cutoff := float64(now.Add(-g.Window).UnixNano())

	redisKey := g.Prefix + key
	member := fmt.Sprintf("%s:%s", key, uuid.NewString())

	pipe := g.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, g.Window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, until, err
	}

	current := int(countCmd.Val())
	remaining = g.Max - current
	if remaining < 0 {
		remaining = 0
	}
	return current <= g.Max, remaining, until, nil
}

// Middleware enforces the limit before delegating to the next handler.
// Limiter failures fail open: billing must not stop because Redis is
// briefly unreachable.
func (g Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		allowed, remaining, resetAt, err := g.Allow(r.Context(), g.Key(r))
		if err != nil {
			if g.OnError != nil {
				g.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(g.Max))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
