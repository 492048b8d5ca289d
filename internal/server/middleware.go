package server

import (
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ServiceTokenRequired authenticates verification nodes with the shared
// service credential. Comparison is constant time.
func (s *Server) ServiceTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := s.cfg.ServiceToken
		if expected == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Next()
	}
}

// MetricsRateLimit applies a shared token bucket per client IP and route.
// Settings hot-reload through the ops config; a node without redis runs
// unlimited.
func (s *Server) MetricsRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limitCfg := s.opsCfg.Get().MetricsRateLimit
		if !limitCfg.Enabled || s.limiter == nil {
			c.Next()
			return
		}
		if limitCfg.ExemptLoopback && isLoopback(c.ClientIP()) {
			c.Next()
			return
		}

		route := c.FullPath()
		key := "ratelimit:" + route + ":" + c.ClientIP()
		res, err := s.limiter.Allow(c.Request.Context(), key, limitCfg.RatePerSecond, limitCfg.Burst)
		if err != nil {
			// Limiter trouble must not take the API down.
			s.log.Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		s.metrics.RecordRateLimit(c.Request.Context(), route, res.Allowed)
		if !res.Allowed {
			c.Header("Retry-After", formatSeconds(res.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many requests",
			}})
			return
		}

		c.Next()
	}
}

func formatSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
