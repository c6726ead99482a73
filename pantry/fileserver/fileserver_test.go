package fileserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func site(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Sophrologie</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "form-handler.js"), []byte("plain"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "form-handler.js.gz"), []byte("gzipped"), 0o644))
	return dir
}

func TestHandler_ServesIndex(t *testing.T) {
	h := Handler(site(t), "public, max-age=300")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sophrologie")
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
}

func TestHandler_PrefersPrecompressed(t *testing.T) {
	h := Handler(site(t), "")

	req := httptest.NewRequest(http.MethodGet, "/js/form-handler.js", nil)
	req.Header.Set("Accept-Encoding", "br;q=1.0, gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "gzipped", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/js/form-handler.js", nil))
	assert.Equal(t, "plain", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestHandler_RejectsWrites(t *testing.T) {
	h := Handler(site(t), "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/index.html", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
