package security

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Policy is the set of response headers every page and API call carries.
// HSTS is only sent over TLS.
type Policy struct {
	ContentSecurity []string
	HSTS            time.Duration
	Fixed           map[string]string
}

// DefaultPolicy allows htmx from unpkg and nothing else off-site.
func DefaultPolicy() Policy {
	return Policy{
		ContentSecurity: []string{
			"default-src 'self'",
			"script-src 'self' https://unpkg.com",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data:",
			"connect-src 'self'",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		},
		HSTS: 365 * 24 * time.Hour,
		Fixed: map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "strict-origin-when-cross-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
	}
}

// Headers stamps p onto every response before next runs.
func Headers(p Policy) func(http.Handler) http.Handler {
	fixed := http.Header{}
	for k, v := range p.Fixed {
		fixed.Set(k, v)
	}
	if len(p.ContentSecurity) > 0 {
		fixed.Set("Content-Security-Policy", strings.Join(p.ContentSecurity, "; "))
	}
	var hsts string
	if p.HSTS > 0 {
		hsts = "max-age=" + strconv.Itoa(int(p.HSTS/time.Second)) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range fixed {
				h[k] = v
			}
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CacheStatic marks embedded assets cacheable for maxAge.
func CacheStatic(maxAge time.Duration) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(int(maxAge/time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
