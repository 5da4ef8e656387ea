package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/church-portal-be/internal/models"
	"github.com/hongminglow/church-portal-be/internal/storage"
)

const (
	DefaultRefreshWindow = 7 * 24 * time.Hour
	DefaultLookupTimeout = 5 * time.Second
)

// Session is the result of a successful login or refresh.
type Session struct {
	Token     string
	ExpiresIn time.Duration
	Claims    Claims
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Store  storage.UserStore
	Tokens *TokenManager
	Hasher *Hasher
	// RefreshWindow bounds how long after its issue time a token may still be refreshed.
	RefreshWindow time.Duration
	// LookupTimeout bounds a single credential lookup.
	LookupTimeout time.Duration
}

// Service verifies credentials and manages the stateless session token lifecycle.
// It keeps no session state; issued tokens cannot be revoked early.
type Service struct {
	store         storage.UserStore
	tokens        *TokenManager
	hasher        *Hasher
	refreshWindow time.Duration
	lookupTimeout time.Duration
}

type lookupFunc func(ctx context.Context, email string) (models.User, error)

// NewService validates opts and returns a ready Service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("auth service: store is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("auth service: token manager is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("auth service: hasher is required")
	}
	s := &Service{
		store:         opts.Store,
		tokens:        opts.Tokens,
		hasher:        opts.Hasher,
		refreshWindow: opts.RefreshWindow,
		lookupTimeout: opts.LookupTimeout,
	}
	if s.refreshWindow <= 0 {
		s.refreshWindow = DefaultRefreshWindow
	}
	if s.lookupTimeout <= 0 {
		s.lookupTimeout = DefaultLookupTimeout
	}
	return s, nil
}

// Authenticate verifies a member or admin login and issues a session token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	return s.authenticate(ctx, s.store.FindByEmail, email, password)
}

// AuthenticateAdmin is Authenticate restricted to admin accounts. A valid
// non-admin login fails exactly like an unknown account.
func (s *Service) AuthenticateAdmin(ctx context.Context, email, password string) (Session, error) {
	return s.authenticate(ctx, s.store.FindAdminByEmail, email, password)
}

func (s *Service) authenticate(ctx context.Context, lookup lookupFunc, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	user, err := lookup(lookupCtx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, s.hasher.CompareDummy(password)
		}
		return Session{}, serverError(fmt.Errorf("lookup user: %w", err))
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return Session{}, err
	}
	if !user.Role.Valid() {
		return Session{}, serverError(fmt.Errorf("user %d has unknown role %q", user.ID, user.Role))
	}

	return s.issue(IdentityFromUser(user))
}

// Verify checks token and returns its claims without consulting the store.
func (s *Service) Verify(token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, ErrMissingToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidOrExpiredToken, err)
	}
	return claims, nil
}

// Refresh re-issues token with a fresh window. Expired tokens are accepted
// as long as they were issued no more than the refresh window ago.
func (s *Service) Refresh(token string) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, ErrMissingToken
	}
	claims, err := s.tokens.ParseIgnoringExpiry(token)
	if err != nil {
		return Session{}, errors.Join(ErrInvalidOrExpiredToken, err)
	}
	if s.tokens.clock().Sub(claims.IssuedAt.Time) > s.refreshWindow {
		return Session{}, ErrTokenTooOld
	}
	return s.issue(claims.Identity())
}

func (s *Service) issue(id Identity) (Session, error) {
	token, claims, err := s.tokens.Generate(id)
	if err != nil {
		return Session{}, serverError(err)
	}
	return Session{Token: token, ExpiresIn: s.tokens.TTL(), Claims: claims}, nil
}

// Authorize allows claims only when they carry exactly the required role.
func Authorize(claims Claims, required models.Role) error {
	if claims.Role != required {
		return ErrForbidden
	}
	return nil
}
