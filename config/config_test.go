package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testKeys = []AppKey{
	{Name: "admin_email", Default: "contact@example.fr", Desc: "admin"},
	{Name: "smtp_port", Default: 1025, Desc: "port"},
	{Name: "storage_enabled", Default: true, Desc: "storage"},
	{Name: "smtp_password", Default: "", Desc: "secret"},
}

func loadIn(t *testing.T, dir string, args ...string) (*CoreConfig, AppConfigValues, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	return load(zap.NewNop(), fs, args, dir, testKeys)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, vals, err := loadIn(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 8080, cfg.HTTP.HTTPPort)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, int64(64<<10), cfg.MaxRequestBodyBytes)
	assert.True(t, cfg.Security.EnableSecurityHeaders)

	assert.Equal(t, "contact@example.fr", vals.String("admin_email"))
	assert.Equal(t, 1025, vals.Int("smtp_port"))
	assert.True(t, vals.Bool("storage_enabled"))
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"http_port: 9000\nlog_level: warn\nadmin_email: file@example.fr\nsmtp_port: 2525\n"), 0o644))
	t.Setenv("CONTACTD_HTTP_PORT", "9100")
	t.Setenv("CONTACTD_ADMIN_EMAIL", "env@example.fr")

	cfg, vals, err := loadIn(t, dir, "--http_port=9200", "--storage_enabled=false")
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.HTTP.HTTPPort, "flag beats env")
	assert.Equal(t, "warn", cfg.LogLevel, "file beats default")
	assert.Equal(t, "env@example.fr", vals.String("admin_email"), "env beats file")
	assert.Equal(t, 2525, vals.Int("smtp_port"))
	assert.False(t, vals.Bool("storage_enabled"))
}

func TestLoad_DotEnvAndDurations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CONTACTD_WRITE_TIMEOUT=90\nCONTACTD_IDLE_TIMEOUT=bogus\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("CONTACTD_WRITE_TIMEOUT")
		os.Unsetenv("CONTACTD_IDLE_TIMEOUT")
	})

	cfg, _, err := loadIn(t, dir)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.HTTP.IdleTimeout)
}

func TestLoad_CORSListFromJSON(t *testing.T) {
	t.Setenv("CONTACTD_ENABLE_CORS", "true")
	t.Setenv("CONTACTD_CORS_ALLOWED_ORIGINS", `["https://sophrologie.fr"]`)
	t.Setenv("CONTACTD_CORS_ALLOWED_METHODS", `["GET","POST"]`)

	cfg, _, err := loadIn(t, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://sophrologie.fr"}, cfg.CORS.CORSAllowedOrigins)
	assert.Equal(t, []string{"GET", "POST"}, cfg.CORS.CORSAllowedMethods)
}

func TestLoad_Validation(t *testing.T) {
	_, _, err := loadIn(t, t.TempDir(), "--env=staging", "--use_lets_encrypt=true", "--compression_level=12")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `env must be "dev" or "prod"`)
	assert.Contains(t, err.Error(), "use_lets_encrypt=true requires use_https=true")
	assert.Contains(t, err.Error(), "compression_level must be in 1..9")
}

func TestLoad_AppKeyConflict(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, _, err := load(nil, fs, nil, t.TempDir(), []AppKey{{Name: "http_port", Default: 1}})
	assert.ErrorContains(t, err, "conflicts")
}

func TestAppConfigValues(t *testing.T) {
	vals := AppConfigValues{
		"s":     "hello",
		"n":     "42",
		"f":     float64(7),
		"b":     "yes",
		"blank": "  ",
		"d":     "2m",
		"dn":    90,
		"bad":   "soon",
	}
	assert.Equal(t, "hello", vals.String("s"))
	assert.Equal(t, "", vals.String("missing"))
	assert.Equal(t, 42, vals.Int("n"))
	assert.Equal(t, int64(7), vals.Int64("f"))
	assert.True(t, vals.Bool("b"))
	assert.False(t, vals.Bool("s"))
	assert.False(t, vals.IsSet("blank"))
	assert.True(t, vals.IsSet("n"))
	assert.Equal(t, 2*time.Minute, vals.Duration("d", time.Second))
	assert.Equal(t, 90*time.Second, vals.Duration("dn", time.Second))
	assert.Equal(t, time.Second, vals.Duration("bad", time.Second))
	assert.Equal(t, time.Second, vals.Duration("missing", time.Second))
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, isSecretKey("smtp_password"))
	assert.True(t, isSecretKey("api_token"))
	assert.False(t, isSecretKey("admin_email"))
}
