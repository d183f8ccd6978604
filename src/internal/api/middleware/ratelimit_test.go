package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedEcho(cfg *viper.Viper) *echo.Echo {
	e := echo.New()
	e.Use(RateLimit(cfg))
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func hit(e *echo.Echo, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitEnforcesBurst(t *testing.T) {
	cfg := viper.New()
	cfg.Set("ratelimit.enabled", true)
	cfg.Set("ratelimit.requests_per_second", 1)
	cfg.Set("ratelimit.burst", 2)

	e := newLimitedEcho(cfg)

	require.Equal(t, http.StatusOK, hit(e, "10.0.0.1"))
	require.Equal(t, http.StatusOK, hit(e, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(e, "10.0.0.1"))

	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, hit(e, "10.0.0.2"))
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := viper.New()
	cfg.Set("ratelimit.enabled", false)

	e := newLimitedEcho(cfg)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, hit(e, "10.0.0.1"))
	}
}
