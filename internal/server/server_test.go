package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/config"
	"github.com/gosuda/taskhub/internal/credential"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/quota"
	"github.com/gosuda/taskhub/internal/seed"
	"github.com/gosuda/taskhub/internal/server"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/store/memory"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// unhealthyStore fails every ping.
type unhealthyStore struct {
	*memory.Store
}

func (unhealthyStore) Ping(context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Addr:        ":0",
			ReadTimeout: 5 * time.Second,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		RateLimit: config.RateLimitConfig{TenantRPS: 1000, TenantBurst: 1000, AuthRPS: 1000, AuthBurst: 1000},
	}
}

func newTestServer(t *testing.T, store domain.Store) (*httptest.Server, *prometheus.Registry) {
	t.Helper()

	creds := credential.New(credential.Argon2id{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
		"test-secret-key-very-long-and-secure-0123", time.Hour)
	_, err := seed.Run(context.Background(), store, creds)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	guard := quota.NewGuard(m)
	tenants := tenancy.NewRegistry(store, creds, audit.Discard)

	srv := server.New(t.Context(), testConfig(), store, server.Services{
		Auth:     auth.NewService(store, tenants, creds, audit.Discard, m),
		Tenants:  tenants,
		Projects: service.NewProjects(store, guard, audit.Discard),
		Tasks:    service.NewTasks(store, audit.Discard),
		Users:    service.NewUsers(store, guard, creds, audit.Discard),
		AuditLog: service.NewAuditLog(store),
	}, m, reg)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func do(t *testing.T, method, url, token, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		ts, _ := newTestServer(t, memory.New())
		resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", body["status"])
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("store_down", func(t *testing.T) {
		t.Parallel()

		ts, _ := newTestServer(t, unhealthyStore{memory.New()})
		resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "", "")

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "unavailable", body["status"])
	})
}

func TestLoginThenAuthenticatedRequest(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, memory.New())

	resp, body := do(t, http.MethodGet, ts.URL+"/api/projects", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, body = do(t, http.MethodPost, ts.URL+"/api/auth/login", "",
		`{"email":"admin@demo.com","password":"Demo@123","tenantSubdomain":"demo"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	token, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	me, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin@demo.com", me["email"])
	assert.Equal(t, "tenant_admin", me["role"])

	resp, body = do(t, http.MethodGet, ts.URL+"/api/projects", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	list, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, list["total"], "the seeded demo project")

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/projects", "forged.token.value", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, memory.New())
	resp, _ := do(t, http.MethodPost, ts.URL+"/api/auth/login", "",
		`{"email":"superadmin@system.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, ts.URL+"/metrics", http.NoBody)
	require.NoError(t, err)
	mresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer mresp.Body.Close()

	require.Equal(t, http.StatusOK, mresp.StatusCode)
	buf := new(strings.Builder)
	_, err = io.Copy(buf, mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "taskhub_http_requests_total")
	assert.Contains(t, buf.String(), `outcome="invalid_credentials"`)
}
