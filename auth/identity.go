package auth

import (
	"slices"
	"time"
)

// AuthMethod records how an identity was established.
type AuthMethod string

const (
	AuthMethodJWT       AuthMethod = "jwt"
	AuthMethodAPIKey    AuthMethod = "api_key"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Identity is an authenticated caller.
type Identity struct {
	Principal string
	Roles     []string
	Method    AuthMethod

	// Claims holds token claims or API key metadata.
	Claims map[string]any

	// ExpiresAt is zero when the credential never expires.
	ExpiresAt time.Time
}

// HasRole reports whether the identity holds role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// IsExpired reports whether the credential expired before now.
func (id *Identity) IsExpired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}

// AnonymousIdentity is used when authentication is disabled. It carries the
// given roles.
func AnonymousIdentity(roles ...string) *Identity {
	return &Identity{
		Principal: "anonymous",
		Roles:     roles,
		Method:    AuthMethodAnonymous,
		Claims:    map[string]any{},
	}
}
