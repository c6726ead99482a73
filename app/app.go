// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/contactd/config"
	"github.com/dalemusser/contactd/httputil"
	"github.com/dalemusser/contactd/logging"
	"github.com/dalemusser/contactd/metrics"
	"github.com/dalemusser/contactd/server"
	"go.uber.org/zap"
)

// schemaTimeout bounds EnsureSchema.
const schemaTimeout = 30 * time.Second

// Hooks are the integration points a service provides to Run.
// C is the app config type, D the bundle of backends it opens.
type Hooks[C any, D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig returns the core config and the app config.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// Connect opens the backends (storage, mail transport) the app needs.
	Connect func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// EnsureSchema prepares backends once they are open (directories,
	// tables). Optional.
	EnsureSchema func(ctx context.Context, core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) error

	// BuildHandler wires the router, middleware and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)

	// Shutdown releases the backends after the server stopped. Optional.
	Shutdown func(ctx context.Context, deps D, logger *zap.Logger) error
}

// Run executes the startup sequence:
//
//  1. bootstrap logger
//  2. core + app config (Hooks.LoadConfig)
//  3. final logger from the core config
//  4. default metrics
//  5. backends (Hooks.Connect, Hooks.EnsureSchema)
//  6. shutdown signals
//  7. HTTP handler (Hooks.BuildHandler)
//  8. HTTP(S) server, blocking until shutdown
//  9. Hooks.Shutdown
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("logger initialized",
		zap.String("app", hooks.Name),
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel))
	httputil.SetJSONLogger(logger)

	metrics.RegisterDefault(logger)

	deps, err := hooks.Connect(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if hooks.Shutdown == nil {
			return
		}
		sctx, cancel := context.WithTimeout(context.Background(), coreCfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := hooks.Shutdown(sctx, deps, logger); err != nil {
			logger.Warn("backend shutdown failed", zap.Error(err))
		}
	}()

	if hooks.EnsureSchema != nil {
		schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
		err := hooks.EnsureSchema(schemaCtx, coreCfg, appCfg, deps, logger)
		cancel()
		if err != nil {
			logger.Error("schema ensure failed", zap.Error(err))
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
