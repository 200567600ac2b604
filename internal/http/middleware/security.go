// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware that attaches a
// conservative set of HTTP security headers to every API response, and
// NoStore, which marks responses carrying donor data as non-cacheable.
//
// Design notes:
//   - The API only serves JSON and CSV, so a deny-all Content-Security-Policy
//     is safe everywhere except the Swagger UI, which is exempted by prefix
//   - HSTS is opt-in and only applied when the request is actually HTTPS
//   - Header values are computed once when the middleware is built
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// defaultCSP forbids every resource type and framing. JSON and CSV clients
// ignore it; browsers opening an API URL directly get no active content.
const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityOptions configures HTTP security headers emitted by SecurityHeaders.
//
// EnableHSTS controls whether to emit Strict-Transport-Security for HTTPS
// requests (never for plain HTTP). Only enable when traffic is HTTPS
// end-to-end (including between proxy and app). HSTSMaxAge defaults to 180
// days.
//
// ContentSecurityPolicy overrides the deny-all policy. CSPExemptPrefixes lists
// path prefixes (for example "/swagger") that serve HTML and must not get it.
type SecurityOptions struct {
	EnableHSTS            bool          // set true only when traffic is HTTPS end-to-end
	HSTSMaxAge            time.Duration // e.g., 180 * 24h
	NoStore               bool          // add Cache-Control: no-store
	EnablePolicy          bool          // include Permissions-Policy, etc.
	ContentSecurityPolicy string
	CSPExemptPrefixes     []string
}

// SecurityHeaders returns a Gin middleware that adds security headers to each
// response.
//
// Behavior:
//   - Always sets X-Content-Type-Options: nosniff, X-Frame-Options: DENY and
//     Referrer-Policy: no-referrer
//   - Sets Content-Security-Policy unless the path is exempt
//   - With EnablePolicy, sets Permissions-Policy and
//     X-Permitted-Cross-Domain-Policies
//   - With NoStore, behaves as NoStore()
//   - With EnableHSTS on an HTTPS request, sets Strict-Transport-Security
//   - Exposes X-Request-ID via Access-Control-Expose-Headers
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds()) // 180 days default
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"
	csp := opt.ContentSecurityPolicy
	if csp == "" {
		csp = defaultCSP
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if !hasAnyPrefix(c.Request.URL.Path, opt.CSPExemptPrefixes) {
			h.Set("Content-Security-Policy", csp)
		}

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			setNoStore(h)
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if rid := h.Get(requestIDHeader); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, requestIDHeader)
			} else if !strings.Contains(cur, requestIDHeader) {
				h.Set(hdr, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

// NoStore marks responses as non-cacheable. Admin routes use it because every
// response there carries donor names, phones and amounts.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		setNoStore(c.Writer.Header())
		c.Next()
	}
}

func setNoStore(h http.Header) {
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// isHTTPS reports whether the incoming request used HTTPS either directly
// (r.TLS != nil) or via a reverse proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if pre != "" && strings.HasPrefix(p, pre) {
			return true
		}
	}
	return false
}
