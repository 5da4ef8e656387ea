package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hongminglow/church-portal-be/internal/models"
)

// Identity is the set of account fields a session token carries.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	Role        models.Role
}

// IdentityFromUser builds the token identity of a credential record.
func IdentityFromUser(user models.User) Identity {
	return Identity{
		UserID:      strconv.FormatInt(user.ID, 10),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}

// Claims is the JWT payload of a session token.
type Claims struct {
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	Role        models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the identity fields embedded in c.
func (c Claims) Identity() Identity {
	return Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Role:        c.Role,
	}
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenManager) {
		if now != nil {
			t.now = now
		}
	}
}

// TokenManager issues and parses HS256 session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	t := &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TTL returns the lifetime of issued tokens.
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// clock returns the current time at the one-second precision of JWT
// NumericDate, so iat, exp and the age checks agree with the encoded claims.
func (t *TokenManager) clock() time.Time {
	return t.now().Truncate(time.Second)
}

// Generate issues a signed token for id with iat = now and exp = now + TTL.
func (t *TokenManager) Generate(id Identity) (string, Claims, error) {
	now := t.clock()
	claims := Claims{
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer and time claims. A token is expired once now >= exp.
func (t *TokenManager) Parse(token string) (Claims, error) {
	return t.parse(token,
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
}

// ParseIgnoringExpiry verifies signature and issuer but skips every time check.
func (t *TokenManager) ParseIgnoringExpiry(token string) (Claims, error) {
	claims, err := t.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return Claims{}, err
	}
	if claims.Issuer != t.issuer {
		return Claims{}, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	return claims, nil
}

func (t *TokenManager) parse(token string, opts ...jwt.ParserOption) (Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.clock),
	)
	var claims Claims
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, errors.New("token is invalid")
	}
	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return Claims{}, errors.New("token is missing required claims")
	}
	if !claims.Role.Valid() {
		return Claims{}, fmt.Errorf("token carries unknown role %q", claims.Role)
	}
	return claims, nil
}
