package auth

import "errors"

var (
	// ErrUnauthenticated means no valid token for the required trust domain was presented.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrForbidden means the principal is authenticated but lacks the required role or tenant.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrInvalidCredentials is the only login failure callers ever see.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken covers malformed, forged and expired tokens alike.
	ErrInvalidToken = errors.New("auth: invalid token")
)
