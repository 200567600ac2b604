// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory, token-bucket rate limiter with
// per-identity buckets. The router installs two: "public" keyed by client IP
// in front of the anonymous intake and lookup routes, and "admin" keyed by
// identity behind AdminAuth.
//
// Features:
//   - Per-key token buckets using golang.org/x/time/rate
//   - Pluggable identity function (admin identity or client IP)
//   - Idle buckets are swept at most once per TTL to bound memory
//   - Idempotent replays bypass the limiter (see IdempotencyValidator)
//   - Rejections are counted per limiter in http_rate_limited_total
//
// The limiter is process-local; several replicas each enforce their own
// budget.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket, e.g.
// "user:admin" or "ip:203.0.113.7".
type keyFunc func(*gin.Context) string

// KeyByUserOrIP returns a keyFunc that prefers the identity stored under
// "userID" (set by AdminAuth) and falls back to the client IP address.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// KeyByIP returns a keyFunc that always keys on the client IP address. It is
// used for unauthenticated intake such as the form webhook, where the caller
// can never present an identity.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter. It is safe for
// concurrent use.
type RateLimiter struct {
	name       string
	rps        rate.Limit
	burst      int
	retryAfter string
	keyFn      keyFunc

	mu        sync.Mutex
	visitors  map[string]*visitor
	ttl       time.Duration
	lastSweep time.Time
}

// NewRateLimiter constructs a RateLimiter named name (used as the metrics
// label) with the given tokens-per-second and burst size, keyed by keyFn.
//
//   - rps <= 0 disables limiting.
//   - burst <= 0 is coerced to 1.
func NewRateLimiter(name string, rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		name:       name,
		rps:        limit,
		burst:      burst,
		retryAfter: retryAfterSeconds(rps),
		keyFn:      keyFn,
		visitors:   make(map[string]*visitor),
		ttl:        10 * time.Minute,
		lastSweep:  time.Now(),
	}
}

// retryAfterSeconds is the time for one token to refill, rounded up to whole
// seconds and never below 1.
func retryAfterSeconds(rps float64) string {
	if rps <= 0 || rps >= 1 {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(1 / rps)))
}

// getVisitor returns the limiter for key, creating it if absent. Idle buckets
// are swept before the lookup so a stale bucket is never refreshed.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.ttl {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay of a completed request, which Handler serves without consuming
// tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns a Gin middleware that enforces per-key token-bucket limits.
// A rejected request gets 429 with Retry-After and the standard error body:
//
//	{"request_id": "<uuid>", "code": "rate_limited", "message": "rate limit exceeded"}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		rateLimited.WithLabelValues(rl.name).Inc()
		c.Header("Retry-After", rl.retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
