// middleware/security.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/contactd/config"
)

// SecurityHeadersOptions configures the security headers middleware.
// An empty string (or zero HSTSMaxAge) disables the matching header.
type SecurityHeadersOptions struct {
	XFrameOptions       string // "DENY", "SAMEORIGIN"
	XContentTypeOptions string // "nosniff"
	ReferrerPolicy      string
	XSSProtection       string // legacy browsers only

	// HSTS is only ever sent on TLS requests.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool
	HSTSPreload           bool

	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// SecurityHeaders returns middleware that sets the configured security headers.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	static := map[string]string{
		"X-Frame-Options":         opts.XFrameOptions,
		"X-Content-Type-Options":  opts.XContentTypeOptions,
		"Referrer-Policy":         opts.ReferrerPolicy,
		"X-XSS-Protection":        opts.XSSProtection,
		"Content-Security-Policy": opts.ContentSecurityPolicy,
		"Permissions-Policy":      opts.PermissionsPolicy,
	}
	for k, v := range static {
		if v == "" {
			delete(static, k)
		}
	}

	hsts := ""
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if opts.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range static {
				h.Set(k, v)
			}
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersFromConfig returns middleware configured from CoreConfig,
// or a no-op when the config is nil or enable_security_headers is false.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	sec := coreCfg.Security
	return SecurityHeaders(SecurityHeadersOptions{
		XFrameOptions:         sec.XFrameOptions,
		XContentTypeOptions:   sec.XContentTypeOptions,
		ReferrerPolicy:        sec.ReferrerPolicy,
		XSSProtection:         sec.XSSProtection,
		HSTSMaxAge:            sec.HSTSMaxAge,
		HSTSIncludeSubDomains: sec.HSTSIncludeSubDomains,
		HSTSPreload:           sec.HSTSPreload,
		ContentSecurityPolicy: sec.ContentSecurityPolicy,
		PermissionsPolicy:     sec.PermissionsPolicy,
	})
}
