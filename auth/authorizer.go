package auth

import (
	"context"
	"fmt"
	"slices"
)

// Actions guarded by the API.
const (
	ActionLookup   = "lookup"
	ActionLoad     = "load"
	ActionClear    = "clear"
	ActionDiagnose = "diagnose"
)

// Built-in roles.
const (
	RoleReader   = "reader"
	RoleLoader   = "loader"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// DefaultRoleActions grants:
//   - reader: lookup
//   - loader: lookup, load
//   - operator: lookup, load, clear, diagnose
//   - admin: everything
func DefaultRoleActions() map[string][]string {
	return map[string][]string{
		RoleReader:   {ActionLookup},
		RoleLoader:   {ActionLookup, ActionLoad},
		RoleOperator: {ActionLookup, ActionLoad, ActionClear, ActionDiagnose},
		RoleAdmin:    {"*"},
	}
}

// Authorizer decides whether an identity may perform an action.
type Authorizer interface {
	Name() string

	// Authorize returns nil when allowed and an *AuthzError otherwise.
	Authorize(ctx context.Context, req *AuthzRequest) error
}

// AuthzRequest is one authorization question.
type AuthzRequest struct {
	Subject  *Identity
	Action   string
	Resource string
}

// AuthzError is a denial. It matches ErrForbidden.
type AuthzError struct {
	Subject  string
	Action   string
	Resource string
	Reason   string
}

func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q action=%q resource=%q reason=%q",
		e.Subject, e.Action, e.Resource, e.Reason)
}

func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// RoleAuthorizer allows an action when any of the subject's roles grants
// it. "*" grants every action.
type RoleAuthorizer struct {
	roles map[string][]string
}

// NewRoleAuthorizer creates a RoleAuthorizer. A nil map means
// DefaultRoleActions.
func NewRoleAuthorizer(roles map[string][]string) *RoleAuthorizer {
	if roles == nil {
		roles = DefaultRoleActions()
	}
	return &RoleAuthorizer{roles: roles}
}

func (a *RoleAuthorizer) Name() string { return "roles" }

func (a *RoleAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	if req.Subject == nil {
		return &AuthzError{Action: req.Action, Resource: req.Resource, Reason: "no identity"}
	}
	for _, role := range req.Subject.Roles {
		actions := a.roles[role]
		if slices.Contains(actions, "*") || slices.Contains(actions, req.Action) {
			return nil
		}
	}
	return &AuthzError{
		Subject:  req.Subject.Principal,
		Action:   req.Action,
		Resource: req.Resource,
		Reason:   "no role grants this action",
	}
}

// AllowAllAuthorizer permits everything.
type AllowAllAuthorizer struct{}

func (AllowAllAuthorizer) Name() string                                   { return "allow_all" }
func (AllowAllAuthorizer) Authorize(context.Context, *AuthzRequest) error { return nil }

var (
	_ Authorizer = (*RoleAuthorizer)(nil)
	_ Authorizer = AllowAllAuthorizer{}
)
