package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serve(t *testing.T, checks map[string]Check, timeout time.Duration) (int, Response) {
	t.Helper()
	r := chi.NewRouter()
	Mount(r, checks, timeout, zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHealth_NoChecks(t *testing.T) {
	code, resp := serve(t, nil, 0)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestHealth_AllOK(t *testing.T) {
	code, resp := serve(t, map[string]Check{
		"store": func(context.Context) error { return nil },
		"mail":  nil,
	}, 0)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"store": "ok", "mail": "ok"}, resp.Checks)
}

func TestHealth_Failure(t *testing.T) {
	code, resp := serve(t, map[string]Check{
		"store": func(context.Context) error { return errors.New("disk full") },
		"mail":  func(context.Context) error { return nil },
	}, 0)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "error: disk full", resp.Checks["store"])
	assert.Equal(t, "ok", resp.Checks["mail"])
}

func TestHealth_Timeout(t *testing.T) {
	code, resp := serve(t, map[string]Check{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, 20*time.Millisecond)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, resp.Checks["slow"], "deadline exceeded")
}
