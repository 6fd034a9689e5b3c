package auth

import "errors"

// Authentication failures, reported in AuthResult.Error.
var (
	// ErrMissingCredentials means the request carried neither a bearer
	// token nor an X-API-Key header.
	ErrMissingCredentials = errors.New("auth: no bearer token or api key")

	// ErrInvalidCredentials covers a bad signature, issuer, audience or
	// subject, and unknown API keys.
	ErrInvalidCredentials = errors.New("auth: credentials rejected")

	// ErrTokenExpired applies to JWTs and to API keys past ExpiresAt.
	ErrTokenExpired = errors.New("auth: credentials expired")

	ErrTokenMalformed = errors.New("auth: bearer token malformed")
)

// ErrForbidden is matched by every *AuthzError.
var ErrForbidden = errors.New("auth: action not permitted for caller roles")
