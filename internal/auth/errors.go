package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, wrong password and, on the
	// admin path, a correct password for a non-admin account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken is returned when no token was supplied in any accepted location.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidOrExpiredToken covers bad signatures, malformed payloads and expiry.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrTokenTooOld is returned by Refresh once a token's issue time is past the refresh window.
	ErrTokenTooOld = errors.New("token too old to refresh")
	// ErrForbidden is returned by Authorize when the role does not match.
	ErrForbidden = errors.New("forbidden")
	// ErrServer marks store, hashing or signing failures. The underlying
	// cause is joined to it for logging.
	ErrServer = errors.New("server error")
)

func serverError(err error) error {
	return errors.Join(ErrServer, err)
}
