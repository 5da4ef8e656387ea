package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/church-portal-be/internal/auth"
	"github.com/hongminglow/church-portal-be/internal/http/respond"
	"github.com/hongminglow/church-portal-be/internal/metrics"
	"github.com/hongminglow/church-portal-be/internal/models"
)

// Verifier checks a bearer token and returns its claims.
type Verifier interface {
	Verify(token string) (auth.Claims, error)
}

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return claims, ok
}

// RequireAuth rejects requests without a valid bearer token and stores the
// verified claims in the request context.
func RequireAuth(v Verifier, log *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := auth.ExtractToken("", r.Header.Get("Authorization"))
			claims, err := v.Verify(token)
			if err != nil {
				message, outcome := "Invalid or expired token", "invalid_token"
				if errors.Is(err, auth.ErrMissingToken) {
					message, outcome = "No token provided", "missing_token"
				}
				m.ObserveAuth(metrics.OpVerify, outcome)
				log.InfoContext(r.Context(), "bearer token rejected",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				respond.Error(w, http.StatusUnauthorized, message)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// RequireRole lets a request through only when the claims set by RequireAuth
// carry the required role.
func RequireRole(role models.Role, log *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "No token provided")
				return
			}
			if err := auth.Authorize(claims, role); err != nil {
				m.ObserveAuth(metrics.OpAuthorize, "forbidden")
				log.InfoContext(r.Context(), "role check failed",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"user_id", claims.Subject,
					"role", claims.Role,
					"required", role,
				)
				respond.Error(w, http.StatusForbidden, "Access requires the "+string(role)+" role")
				return
			}
			m.ObserveAuth(metrics.OpAuthorize, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
