package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hongminglow/church-portal-be/internal/auth"
	"github.com/hongminglow/church-portal-be/internal/http/respond"
	"github.com/hongminglow/church-portal-be/internal/metrics"
	"github.com/hongminglow/church-portal-be/internal/middleware"
	"github.com/hongminglow/church-portal-be/internal/models"
	"github.com/hongminglow/church-portal-be/internal/models/dto"
)

const maxBodyBytes = 1 << 20

const (
	msgInvalidCredentials = "Invalid email or password"
	msgMissingToken       = "No token provided"
	msgInvalidToken       = "Invalid or expired token"
	msgTokenTooOld        = "Session is too old to refresh, please log in again"
	msgForbidden          = "Admin access required"
	msgServerError        = "Server error, please try again later"
)

// Authenticator is the session lifecycle the auth routes expose.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (auth.Session, error)
	AuthenticateAdmin(ctx context.Context, email, password string) (auth.Session, error)
	Verify(token string) (auth.Claims, error)
	Refresh(token string) (auth.Session, error)
}

// AuthHandler owns the login, verify and refresh endpoints.
type AuthHandler struct {
	svc     Authenticator
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc Authenticator, log *slog.Logger, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{svc: svc, log: log, metrics: m}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/admin/login", h.handleAdminLogin)
	mux.HandleFunc("POST /api/auth/verify", h.handleVerify)
	mux.HandleFunc("POST /api/auth/refresh", h.handleRefresh)

	requireAuth := middleware.RequireAuth(h.svc, h.log, h.metrics)
	requireAdmin := middleware.RequireRole(models.RoleAdmin, h.log, h.metrics)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(h.handleMe)))
	mux.Handle("GET /api/admin/session", requireAuth(requireAdmin(http.HandlerFunc(h.handleMe))))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, metrics.OpLogin, h.svc.Authenticate)
}

func (h *AuthHandler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, metrics.OpAdminLogin, h.svc.AuthenticateAdmin)
}

type loginFunc func(ctx context.Context, email, password string) (auth.Session, error)

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, op string, authenticate loginFunc) {
	var req dto.LoginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	session, err := authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		status, message, outcome := classify(err)
		h.metrics.ObserveAuth(op, outcome)
		h.logFailure(r, op, outcome, err, "email", req.Email)
		respond.Error(w, status, message)
		return
	}

	h.metrics.ObserveAuth(op, "ok")
	h.log.InfoContext(r.Context(), "login succeeded",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"operation", op,
		"user_id", session.Claims.Subject,
		"role", session.Claims.Role,
	)
	respond.JSON(w, http.StatusOK, dto.LoginResponse{
		Success:     true,
		Token:       session.Token,
		DisplayName: session.Claims.DisplayName,
		Email:       session.Claims.Email,
		Role:        string(session.Claims.Role),
		ExpiresIn:   int64(session.ExpiresIn.Seconds()),
	})
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	claims, err := h.svc.Verify(h.tokenFrom(r))
	if err != nil {
		status, message, outcome := classify(err)
		h.metrics.ObserveAuth(metrics.OpVerify, outcome)
		h.logFailure(r, metrics.OpVerify, outcome, err)
		respond.JSON(w, status, dto.VerifyFailure{Valid: false, Message: message})
		return
	}

	h.metrics.ObserveAuth(metrics.OpVerify, "ok")
	respond.JSON(w, http.StatusOK, dto.VerifyResponse{Valid: true, Success: true, User: sessionUser(claims)})
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Refresh(h.tokenFrom(r))
	if err != nil {
		status, message, outcome := classify(err)
		h.metrics.ObserveAuth(metrics.OpRefresh, outcome)
		h.logFailure(r, metrics.OpRefresh, outcome, err)
		respond.Error(w, status, message)
		return
	}

	h.metrics.ObserveAuth(metrics.OpRefresh, "ok")
	respond.JSON(w, http.StatusOK, dto.RefreshResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresIn: int64(session.ExpiresIn.Seconds()),
	})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, msgMissingToken)
		return
	}
	respond.JSON(w, http.StatusOK, dto.UserResponse{Success: true, User: sessionUser(claims)})
}

// tokenFrom reads the optional {token} body and applies auth.ExtractToken.
// A body that is not a JSON object with a string token counts as no body
// token, so the Authorization header still applies. An empty string is
// returned when no token was presented; the service turns that into
// ErrMissingToken.
func (h *AuthHandler) tokenFrom(r *http.Request) string {
	var req dto.TokenRequest
	if r.Body != nil {
		err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			h.log.DebugContext(r.Context(), "ignoring undecodable token body",
				"request_id", middleware.RequestIDFromContext(r.Context()),
				"error", err,
			)
			req.Token = ""
		}
	}
	token, _ := auth.ExtractToken(req.Token, r.Header.Get("Authorization"))
	return token
}

func (h *AuthHandler) logFailure(r *http.Request, op, outcome string, err error, attrs ...any) {
	attrs = append([]any{
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"operation", op,
		"outcome", outcome,
		"error", err,
	}, attrs...)
	if errors.Is(err, auth.ErrServer) {
		h.log.ErrorContext(r.Context(), "auth operation failed", attrs...)
		return
	}
	h.log.InfoContext(r.Context(), "auth operation rejected", attrs...)
}

// classify maps a service error to its HTTP status, client message and metric outcome.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, auth.ErrServer):
		return http.StatusInternalServerError, msgServerError, "server_error"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials, "invalid_credentials"
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, msgMissingToken, "missing_token"
	case errors.Is(err, auth.ErrTokenTooOld):
		return http.StatusUnauthorized, msgTokenTooOld, "token_too_old"
	case errors.Is(err, auth.ErrInvalidOrExpiredToken):
		return http.StatusUnauthorized, msgInvalidToken, "invalid_token"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, msgForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, msgServerError, "server_error"
	}
}

func sessionUser(claims auth.Claims) dto.SessionUser {
	return dto.SessionUser{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Role:        string(claims.Role),
	}
}
