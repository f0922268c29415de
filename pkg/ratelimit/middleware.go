package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"tablewise/internal/shared/utils/response"
	"tablewise/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits requests per client IP and route class. A Redis failure lets
// the request through.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	log := logger.GetDefault()

	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.Request.Method, c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			log.ErrorWithContext(c.Request.Context(), "Rate limit check failed", err, map[string]interface{}{
				"client_ip":  clientIP,
				"limit_type": string(limitType),
			})
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(method, path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/analytics"):
		return RateLimitTypeAnalytics

	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth

	// Endpoints that take or release seats
	case method == http.MethodPost && strings.HasSuffix(path, "/bookings"),
		strings.HasSuffix(path, "/cancel"),
		strings.HasSuffix(path, "/confirm"):
		return RateLimitTypeBookingCritical

	case strings.Contains(path, "/manager/"):
		return RateLimitTypeManager

	case strings.Contains(path, "/bookings"),
		strings.Contains(path, "/availability"),
		strings.Contains(path, "/search"),
		strings.Contains(path, "/cancellation"):
		return RateLimitTypeBooking

	case strings.Contains(path, "/restaurants"),
		strings.Contains(path, "/reviews"):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	xForwardedFor := c.GetHeader("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	xRealIP := c.GetHeader("X-Real-IP")
	if xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return ip
}
