package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/contactd/app"
	"github.com/dalemusser/contactd/config"
	"github.com/dalemusser/contactd/internal/app/features/contact"
	"github.com/dalemusser/contactd/internal/app/notify"
	"github.com/dalemusser/contactd/internal/app/store"
	"github.com/dalemusser/contactd/metrics"
	"github.com/dalemusser/contactd/pantry/email"
	"github.com/dalemusser/contactd/pantry/fileserver"
	"github.com/dalemusser/contactd/pantry/health"
	"github.com/dalemusser/contactd/pantry/pprof"
	"github.com/dalemusser/contactd/pantry/version"
	"github.com/dalemusser/contactd/router"
	"go.uber.org/zap"
)

// staticCacheControl is sent with files served from static_dir.
const staticCacheControl = "public, max-age=300"

// LoadConfig loads the core config and resolves the contact config.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	core, vals, err := config.Load(logger, AppKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg, err := NewAppConfig(core, vals)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return core, appCfg, nil
}

// Connect opens the store and picks the mail transport.
func Connect(ctx context.Context, _ *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	var deps Deps

	t, err := newTransport(appCfg)
	if err != nil {
		return Deps{}, err
	}
	deps.Transport = t
	deps.Notifier = notify.New(appCfg.Notify, t, logger)

	if appCfg.StorageEnabled {
		st, err := store.Open(ctx, appCfg.Store, logger)
		if err != nil {
			return Deps{}, fmt.Errorf("open store: %w", err)
		}
		deps.Store = st
	}

	logger.Info("backends ready",
		zap.String("mail_method", t.Name()),
		zap.Bool("storage_enabled", appCfg.StorageEnabled),
		zap.String("storage_backend", appCfg.Store.Backend),
		zap.String("storage_path", appCfg.Store.Path),
		zap.Bool("debug", appCfg.Debug))
	return deps, nil
}

func newTransport(appCfg AppConfig) (email.Transport, error) {
	switch appCfg.MailMethod {
	case MailSMTP:
		return email.NewSMTPTransport(appCfg.SMTP)
	case MailBuiltin:
		return &email.SendmailTransport{Path: appCfg.SendmailPath}, nil
	default:
		return nil, fmt.Errorf("unknown mail_method %q", appCfg.MailMethod)
	}
}

// EnsureSchema makes sure the store is writable before traffic arrives.
func EnsureSchema(ctx context.Context, _ *config.CoreConfig, _ AppConfig, deps Deps, _ *zap.Logger) error {
	if deps.Store == nil {
		return nil
	}
	return deps.Store.Ping(ctx)
}

// BuildHandler wires the router, the contact routes and the ambient endpoints.
func BuildHandler(core *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	r := router.New(core, logger, appCfg.Messages.ErrorGeneric)

	contact.Routes(r, contact.NewHandler(appCfg.Settings(), deps.Store, deps.Notifier, logger))

	checks := map[string]health.Check{}
	if deps.Store != nil {
		checks["store"] = deps.Store.Ping
	}
	health.Mount(r, checks, appCfg.HealthTimeout, logger)
	version.Mount(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	if !core.IsProd() {
		pprof.Mount(r)
	}

	if appCfg.StaticDir != "" {
		r.Handle("/*", fileserver.Handler(appCfg.StaticDir, staticCacheControl))
	}
	return r, nil
}

// Shutdown closes the store.
func Shutdown(_ context.Context, deps Deps, logger *zap.Logger) error {
	if deps.Store == nil {
		return nil
	}
	if err := deps.Store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	logger.Info("store closed")
	return nil
}

// Hooks wires contactd into the app lifecycle.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:         "contactd",
	LoadConfig:   LoadConfig,
	Connect:      Connect,
	EnsureSchema: EnsureSchema,
	BuildHandler: BuildHandler,
	Shutdown:     Shutdown,
}
