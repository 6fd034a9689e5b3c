// Package auth authenticates callers of the reference-data API and decides
// which operations they may run.
//
// Callers present a bearer JWT or an API key. Either way they end up as an
// Identity with roles, and RoleAuthorizer maps those roles to the actions
// lookup, load, clear and diagnose.
package auth
