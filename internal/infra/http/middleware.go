package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ipshield/internal/domain"
	"ipshield/internal/infra/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}

func (s *Server) initQuotas(limiter domain.QuotaLimiter) {
	s.quotaLimiter = limiter
	s.quotas = ratelimit.QuotasFromConfig(s.cfg)
	s.quotaFailClosed = s.cfg.RateLimitFailClosed
}

// spend charges one unit of class per request.
func (s *Server) spend(class domain.QuotaClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.spendQuota(c, class, 1) {
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) spendQuota(c *gin.Context, class domain.QuotaClass, cost int) bool {
	quota := s.quotas.For(class)
	if s.quotaLimiter == nil || !quota.Enabled() {
		return true
	}
	decision, err := s.quotaLimiter.Spend(c.Request.Context(), c.ClientIP(), class, cost, quota)
	if err != nil {
		s.logger.WarnContext(c.Request.Context(), "quota limiter unavailable", "class", class, "error", err)
		if s.quotaFailClosed {
			writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
			return false
		}
		return true
	}
	writeQuotaHeaders(c, decision, quota, s.now())
	if !decision.Allowed {
		writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED",
			fmt.Sprintf("%s quota exceeded: request needs %d units, %d left", class, cost, decision.Remaining))
		return false
	}
	return true
}

func writeQuotaHeaders(c *gin.Context, decision domain.QuotaDecision, quota domain.Quota, now time.Time) {
	c.Header("RateLimit-Policy", fmt.Sprintf("%q;q=%d;w=%d", decision.Class, quota.Units, int64(quota.Window/time.Second)))
	c.Header("RateLimit-Limit", strconv.Itoa(decision.Units))
	c.Header("RateLimit-Remaining", strconv.Itoa(max(decision.Remaining, 0)))
	if decision.ResetAt.IsZero() {
		return
	}
	c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	if !decision.Allowed {
		retryAfter := max(int64(decision.ResetAt.Sub(now).Seconds()), 0)
		c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
	}
}
