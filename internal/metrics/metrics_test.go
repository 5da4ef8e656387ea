package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Exposition(t *testing.T) {
	m := New()
	m.ObserveAuth(OpLogin, "ok")
	m.ObserveAuth(OpLogin, "ok")
	m.ObserveAuth(OpRefresh, "token_too_old")
	m.ObserveRequest(http.MethodPost, "401", 0.02)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `church_portal_auth_outcomes_total{operation="login",outcome="ok"} 2`)
	assert.Contains(t, body, `church_portal_auth_outcomes_total{operation="refresh",outcome="token_too_old"} 1`)
	assert.Contains(t, body, `church_portal_http_request_duration_seconds_count{code="401",method="POST"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAuth(OpVerify, "ok")
		m.ObserveRequest(http.MethodGet, "200", 0.1)
	})
}

func TestMetrics_Gather(t *testing.T) {
	m := New()
	m.ObserveAuth(OpAuthorize, "forbidden")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "church_portal_auth_outcomes_total")
}
