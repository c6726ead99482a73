// pantry/health/health.go

// Package health exposes a readiness endpoint that probes the contact
// service's backends (submission store, mail transport).
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/contactd/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each check when the caller passes zero.
const DefaultTimeout = 3 * time.Second

// Check returns nil when the dependency is healthy.
type Check func(ctx context.Context) error

// Response is the JSON body returned by Handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler runs every check concurrently, each under timeout, and answers
// 200 {"status":"ok"} or 503 {"status":"error"} with per-check results.
// With no checks it is a plain liveness probe.
func Handler(checks map[string]Check, timeout time.Duration, logger *zap.Logger) http.Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			failed  bool
			results = make(map[string]string, len(checks))
		)
		for name, check := range checks {
			wg.Add(1)
			go func(name string, check Check) {
				defer wg.Done()
				status := "ok"
				if check != nil {
					ctx, cancel := context.WithTimeout(r.Context(), timeout)
					err := check(ctx)
					cancel()
					if err != nil {
						status = "error: " + err.Error()
						if logger != nil {
							logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
						}
					}
				}
				mu.Lock()
				results[name] = status
				if status != "ok" {
					failed = true
				}
				mu.Unlock()
			}(name, check)
		}
		wg.Wait()

		if failed {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{Status: "error", Checks: results})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok", Checks: results})
	})
}

// Mount attaches GET /health.
func Mount(r chi.Router, checks map[string]Check, timeout time.Duration, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(checks, timeout, logger))
}
