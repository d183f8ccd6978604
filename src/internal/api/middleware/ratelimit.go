package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// visitor tracks a single client's limiter and its last use, so stale
// entries can be evicted.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns a per-client-IP rate limiting middleware. Limits
// come from ratelimit.requests_per_second and ratelimit.burst; the
// middleware is a no-op when ratelimit.enabled is false.
func RateLimit(cfg *viper.Viper) echo.MiddlewareFunc {
	if !cfg.GetBool("ratelimit.enabled") {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	rps := rate.Limit(cfg.GetFloat64("ratelimit.requests_per_second"))
	if rps <= 0 {
		rps = 20
	}
	burst := cfg.GetInt("ratelimit.burst")
	if burst <= 0 {
		burst = 40
	}

	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastSweep = time.Now()
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			now := time.Now()

			mu.Lock()
			// Evict clients idle for more than three minutes. Sweeping
			// inline on the request path keeps the middleware free of
			// background goroutines.
			if now.Sub(lastSweep) > time.Minute {
				for addr, v := range visitors {
					if now.Sub(v.lastSeen) > 3*time.Minute {
						delete(visitors, addr)
					}
				}
				lastSweep = now
			}

			v, ok := visitors[ip]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(rps, burst)}
				visitors[ip] = v
			}
			v.lastSeen = now
			mu.Unlock()

			if !v.limiter.Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
