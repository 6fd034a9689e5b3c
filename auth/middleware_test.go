package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGuard_Require(t *testing.T) {
	keys := NewMemoryAPIKeyStore()
	keys.AddKey("reader-svc", "rk", RoleReader)
	keys.AddKey("ops", "ok", RoleOperator)
	guard := NewGuard(NewAPIKeyAuthenticator(keys), NewRoleAuthorizer(nil))

	var principal string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		key    string
		action string
		status int
	}{
		{"no credentials", "", ActionLookup, http.StatusUnauthorized},
		{"unknown key", "zz", ActionLookup, http.StatusUnauthorized},
		{"reader lookup", "rk", ActionLookup, http.StatusNoContent},
		{"reader clear", "rk", ActionClear, http.StatusForbidden},
		{"operator clear", "ok", ActionClear, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal = ""
			req := httptest.NewRequest(http.MethodGet, "/v1/typecodes", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			guard.Require(tt.action, next).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
			if tt.status == http.StatusNoContent && principal == "" {
				t.Error("identity not attached to context")
			}
		})
	}
}

func TestGuard_Disabled(t *testing.T) {
	guard := NewGuard(nil, NewRoleAuthorizer(nil))
	rec := httptest.NewRecorder()
	guard.Require(ActionClear, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) != "anonymous" {
			t.Error("expected anonymous identity")
		}
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/groups", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
