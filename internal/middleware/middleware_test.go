package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/church-portal-be/internal/auth"
	"github.com/hongminglow/church-portal-be/internal/logger"
	"github.com/hongminglow/church-portal-be/internal/metrics"
	"github.com/hongminglow/church-portal-be/internal/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []string
		origin          string
		method          string
		wantOrigin      string
		wantCredentials string
		wantStatus      int
	}{
		{name: "wildcard without credentials", allowed: []string{"*"}, origin: "https://grace.church", method: http.MethodGet, wantOrigin: "*", wantStatus: http.StatusOK},
		{name: "listed origin", allowed: []string{"https://Grace.church/"}, origin: "https://grace.church", method: http.MethodGet, wantOrigin: "https://grace.church", wantCredentials: "true", wantStatus: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"https://grace.church"}, origin: "https://evil.example", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "wildcard preflight", allowed: []string{"*"}, origin: "https://grace.church", method: http.MethodOptions, wantOrigin: "*", wantStatus: http.StatusNoContent},
		{name: "listed preflight", allowed: []string{"https://grace.church"}, origin: "https://grace.church", method: http.MethodOptions, wantOrigin: "https://grace.church", wantCredentials: "true", wantStatus: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/auth/login", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed, okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredentials, rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestLogging_RequestID(t *testing.T) {
	var seen string
	h := Logging(logger.Discard(), metrics.New(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", seen)
}

type stubVerifier struct {
	claims auth.Claims
	err    error
	got    string
}

func (s *stubVerifier) Verify(token string) (auth.Claims, error) {
	s.got = token
	if token == "" {
		return auth.Claims{}, auth.ErrMissingToken
	}
	return s.claims, s.err
}

func TestRequireAuthAndRole(t *testing.T) {
	log, m := logger.Discard(), metrics.New()

	tests := []struct {
		name       string
		verifier   *stubVerifier
		header     string
		wantStatus int
	}{
		{name: "no header", verifier: &stubVerifier{}, wantStatus: http.StatusUnauthorized},
		{name: "invalid token", verifier: &stubVerifier{err: auth.ErrInvalidOrExpiredToken}, header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "member", verifier: &stubVerifier{claims: auth.Claims{Role: models.RoleMember}}, header: "Bearer ok", wantStatus: http.StatusForbidden},
		{name: "admin", verifier: &stubVerifier{claims: auth.Claims{Role: models.RoleAdmin}}, header: "Bearer ok", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAuth(tt.verifier, log, m)(RequireRole(models.RoleAdmin, log, m)(okHandler))
			req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireAuthAndRole_LogRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	v := &stubVerifier{claims: auth.Claims{Role: models.RoleMember}}
	h := Logging(log, nil, RequireAuth(v, log, nil)(RequireRole(models.RoleAdmin, log, nil)(okHandler)))

	for _, header := range []string{"", "Bearer ok"} {
		buf.Reset()
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
		req.Header.Set(RequestIDHeader, id)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Contains(t, []string{"bearer token rejected", "role check failed"}, entry["msg"])
		assert.Equal(t, id, entry["request_id"])
	}
}

func TestRequireAuth_StoresClaims(t *testing.T) {
	want := auth.Claims{Email: "a@b.com", Role: models.RoleMember}
	v := &stubVerifier{claims: want}
	var got auth.Claims
	h := RequireAuth(v, logger.Discard(), nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = ClaimsFromContext(r.Context())
		if !ok {
			panic(errors.New("claims missing from context"))
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc.def.ghi", v.got)
	assert.Equal(t, want, got)
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRole(models.RoleAdmin, logger.Discard(), nil)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
