// router/router.go
package router

import (
	"github.com/dalemusser/contactd/config"
	"github.com/dalemusser/contactd/logging"
	"github.com/dalemusser/contactd/metrics"
	"github.com/dalemusser/contactd/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router with the standard contactd middleware stack:
//   - RequestID, RealIP
//   - Recoverer (panic → 500 envelope carrying panicMessage)
//   - security headers, compression and site-wide CORS, each per config
//   - body size limit (MaxRequestBodyBytes)
//   - metrics, access log
//   - JSON NotFound / MethodNotAllowed handlers
//
// Routes are mounted by the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger, panicMessage string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger, panicMessage))

	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.CompressFromConfig(coreCfg))
	r.Use(middleware.CORSFromConfig(coreCfg))

	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
