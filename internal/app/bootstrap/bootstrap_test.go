package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/contactd/config"
	"github.com/dalemusser/contactd/internal/app/notify"
	"github.com/dalemusser/contactd/internal/app/store"
	"github.com/dalemusser/contactd/metrics"
	"github.com/dalemusser/contactd/pantry/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func defaults() config.AppConfigValues {
	vals := make(config.AppConfigValues, len(AppKeys))
	for _, k := range AppKeys {
		vals[k.Name] = k.Default
	}
	return vals
}

func core(env string) *config.CoreConfig {
	return &config.CoreConfig{
		Env:                 env,
		LogLevel:            "info",
		MaxRequestBodyBytes: 64 << 10,
		Security:            config.SecurityConfig{EnableSecurityHeaders: true, XContentTypeOptions: "nosniff"},
	}
}

func TestNewAppConfig_EnvDefaults(t *testing.T) {
	dev, err := NewAppConfig(core("dev"), defaults())
	require.NoError(t, err)
	assert.Equal(t, MailSMTP, dev.MailMethod)
	assert.True(t, dev.Debug)
	assert.True(t, dev.StorageEnabled)
	assert.Equal(t, store.Config{Backend: "file", Path: "data/contacts.json", MaxBytes: 10 << 20}, dev.Store)
	assert.Equal(t, 10*time.Second, dev.Notify.Timeout)
	assert.Equal(t, 1025, dev.SMTP.Port)

	prod, err := NewAppConfig(core("prod"), defaults())
	require.NoError(t, err)
	assert.Equal(t, MailBuiltin, prod.MailMethod)
	assert.False(t, prod.Debug)
}

func TestNewAppConfig_ExplicitOverrides(t *testing.T) {
	vals := defaults()
	vals["mail_method"] = "BUILTIN"
	vals["debug"] = "false"
	vals["storage_max_bytes"] = "2048"
	vals["smtp_timeout"] = "45"

	cfg, err := NewAppConfig(core("dev"), vals)
	require.NoError(t, err)
	assert.Equal(t, MailBuiltin, cfg.MailMethod)
	assert.False(t, cfg.Debug)
	assert.Equal(t, int64(2048), cfg.Store.MaxBytes)
	assert.Equal(t, 45*time.Second, cfg.SMTP.Timeout)
}

func TestNewAppConfig_Invalid(t *testing.T) {
	vals := defaults()
	vals["admin_email"] = "not-an-address"
	vals["mail_method"] = "pigeon"
	vals["storage_backend"] = "mongo"

	_, err := NewAppConfig(core("dev"), vals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_email")
	assert.Contains(t, err.Error(), "mail_method")
	assert.Contains(t, err.Error(), "storage_backend")
}

func TestNewAppConfig_RulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"validation": {"name": {"min_length": 3, "max_length": 50, "required": true}},
		"messages": {"success": "Merci !"}
	}`), 0o644))

	vals := defaults()
	vals["rules_file"] = path
	cfg, err := NewAppConfig(core("dev"), vals)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Rules.Name.MinLength)
	assert.Equal(t, 50, cfg.Rules.Name.MaxLength)
	assert.Equal(t, 10, cfg.Rules.Message.MinLength)
	assert.True(t, cfg.Rules.Phone.Match("01 23 45 67 89"))
	assert.Equal(t, "Merci !", cfg.Messages.Success)
	assert.NotEmpty(t, cfg.Messages.ErrorGeneric)
}

func TestNewAppConfig_BadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"validation": {"phone": {"pattern": "/([/"}}}`), 0o644))

	vals := defaults()
	vals["rules_file"] = path
	_, err := NewAppConfig(core("dev"), vals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone")
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []email.Message
}

func (r *recordingTransport) Name() string { return "smtp" }

func (r *recordingTransport) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func TestBuildHandler_EndToEnd(t *testing.T) {
	metrics.RegisterDefault(zap.NewNop())

	dir := t.TempDir()
	site := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(site, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "index.html"), []byte("<h1>Accueil</h1>"), 0o644))

	vals := defaults()
	vals["storage_path"] = filepath.Join(dir, "data", "contacts.json")
	vals["static_dir"] = site
	appCfg, err := NewAppConfig(core("prod"), vals)
	require.NoError(t, err)

	logger := zap.NewNop()
	st, err := store.Open(context.Background(), appCfg.Store, logger)
	require.NoError(t, err)
	tr := &recordingTransport{}
	deps := Deps{Store: st, Transport: tr, Notifier: notify.New(appCfg.Notify, tr, logger)}
	require.NoError(t, EnsureSchema(context.Background(), nil, appCfg, deps, logger))
	t.Cleanup(func() { _ = Shutdown(context.Background(), deps, logger) })

	h, err := BuildHandler(core("prod"), appCfg, deps, logger)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	body := `{"name":"Zoé Martin","email":"zoe@example.fr","phone":"","message":"Bonjour, je souhaite un rendez-vous."}`
	resp, err := http.Post(srv.URL+"/contact", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["data_saved"])
	assert.Equal(t, true, out["admin_email_sent"])
	assert.Equal(t, true, out["user_email_sent"])
	assert.NotContains(t, out, "debug")

	subs, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Zoé Martin", subs[0].Name)
	assert.Len(t, tr.sent, 2)

	for path, want := range map[string]string{
		"/health":  `"status":"ok"`,
		"/version": `"version"`,
		"/metrics": "contactd_submissions_total",
		"/":        "Accueil",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(b), want, path)
	}
}

func TestBuildHandler_StorageDisabled(t *testing.T) {
	vals := defaults()
	vals["storage_enabled"] = false
	appCfg, err := NewAppConfig(core("dev"), vals)
	require.NoError(t, err)

	tr := &recordingTransport{}
	deps, err := Connect(context.Background(), nil, appCfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, deps.Store)
	assert.Equal(t, "smtp", deps.Transport.Name())
	deps.Transport = tr
	deps.Notifier = notify.New(appCfg.Notify, tr, zap.NewNop())

	h, err := BuildHandler(core("dev"), appCfg, deps, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contact",
		strings.NewReader(`{"name":"Zoé","email":"zoe@example.fr","message":"Un message assez long."}`))
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, false, out["data_saved"])
	assert.Contains(t, out, "debug")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
