package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Guard authenticates and authorizes HTTP requests.
type Guard struct {
	authn     Authenticator
	authz     Authorizer
	anonymous *Identity
}

// NewGuard creates a Guard. A nil authn disables authentication: every
// request runs as an anonymous admin. A nil authz allows every action.
func NewGuard(authn Authenticator, authz Authorizer) *Guard {
	if authz == nil {
		authz = AllowAllAuthorizer{}
	}
	return &Guard{authn: authn, authz: authz, anonymous: AnonymousIdentity(RoleAdmin)}
}

// Require wraps next so it only runs for callers allowed to perform action.
// The identity is attached to the request context.
func (g *Guard) Require(action string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := g.anonymous
		if g.authn != nil {
			res, err := g.authn.Authenticate(ctx, NewAuthRequest(r))
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, err)
				return
			}
			if !res.Authenticated {
				w.Header().Set("WWW-Authenticate", `Bearer realm="refdata"`)
				writeAuthError(w, http.StatusUnauthorized, res.Error)
				return
			}
			id = res.Identity
		}

		err := g.authz.Authorize(ctx, &AuthzRequest{Subject: id, Action: action, Resource: r.URL.Path})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrForbidden) {
				status = http.StatusForbidden
			}
			writeAuthError(w, status, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
	})
}

func writeAuthError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = ErrInvalidCredentials
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
