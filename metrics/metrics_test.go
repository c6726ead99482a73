package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	RegisterDefault(nil)

	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Post("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Handle("/metrics", Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/contact", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))

	body := scrape(t, r)
	assert.Contains(t, body, `method="POST",path="/contact",status="400"`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, "wp-login")
}

func TestContactCounters(t *testing.T) {
	RegisterDefault(nil)

	Submissions.WithLabelValues("accepted").Inc()
	StoreWrites.WithLabelValues("file", "full").Inc()
	EmailsSent.WithLabelValues("admin", "smtp", ResultLabel(false)).Inc()

	r := chi.NewRouter()
	r.Handle("/metrics", Handler())
	body := scrape(t, r)

	assert.Contains(t, body, `contactd_submissions_total{outcome="accepted"}`)
	assert.Contains(t, body, `contactd_store_writes_total{backend="file",result="full"}`)
	assert.Contains(t, body, `contactd_emails_total{method="smtp",recipient="admin",result="error"}`)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", ResultLabel(true))
	assert.Equal(t, "error", ResultLabel(false))
}
