package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRedirectHandler(t *testing.T) {
	h := httpRedirectHandler()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/contact?x=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "https://example.com/contact?x=1", rec.Header().Get("Location"))
}

func TestHTTPRedirectHandler_BadHost(t *testing.T) {
	h := httpRedirectHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "evil.com/path"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIsValidHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"example.com:8080", true},
		{"[::1]:8443", true},
		{"[fe80::1%eth0]", true},
		{"127.0.0.1", true},
		{"", false},
		{"example.com:0", false},
		{"example.com:99999", false},
		{"example.com\r\nX-Injected: 1", false},
		{"user@example.com", false},
		{"[not-an-ip]", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidHost(tt.host))
		})
	}
}

func TestValidateTLSFiles(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(cert, []byte("cert"), 0o644))
	require.NoError(t, os.WriteFile(key, []byte("key"), 0o600))

	assert.NoError(t, validateTLSFiles(cert, key))
	assert.Error(t, validateTLSFiles(cert, filepath.Join(dir, "missing.pem")))
	assert.Error(t, validateTLSFiles(dir, key))
	assert.Error(t, validateTLSFiles("", key))

	if runtime.GOOS != "windows" {
		require.NoError(t, os.Chmod(key, 0o644))
		err := validateTLSFiles(cert, key)
		assert.True(t, errors.Is(err, errInsecureKey), "got %v", err)
	}
}

func TestWaitForCert(t *testing.T) {
	calls := 0
	ready := func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		calls++
		return &tls.Certificate{}, nil
	}
	require.NoError(t, waitForCert(context.Background(), ready, "example.com", time.Second))
	assert.Equal(t, 1, calls)

	never := func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		return nil, errors.New("not yet")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, waitForCert(ctx, never, "example.com", time.Minute), context.Canceled)

	err := waitForCert(context.Background(), never, "example.com", 0)
	assert.ErrorContains(t, err, "timeout waiting for cert")
}
