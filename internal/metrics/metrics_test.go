package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/metrics"
)

// counterValue returns the value of the series of name whose labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue series
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.QuotaRejected("projects")
		m.AuditRecorded()
		m.AuditDropped()
		m.AuditFailed()
		m.Login("success")
	})

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.QuotaRejected("projects")
	m.QuotaRejected("projects")
	m.QuotaRejected("users")
	m.AuditDropped()
	m.Login("success")

	assert.InDelta(t, 2, counterValue(t, reg, "taskhub_quota_rejections_total", map[string]string{"resource": "projects"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "taskhub_quota_rejections_total", map[string]string{"resource": "users"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "taskhub_audit_dropped_total", nil), 0)

	count, err := testutil.GatherAndCount(reg, "taskhub_logins_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/projects/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	got := counterValue(t, reg, "taskhub_http_requests_total", map[string]string{
		"method": http.MethodGet,
		"route":  "/projects/{id}",
		"status": "418",
	})
	assert.InDelta(t, 3, got, 0, "ids collapse into one route label")
}
