// Package secret resolves credentials referenced from configuration.
//
// Configuration values may name a secret instead of holding it:
//
//	REFDATA_JWT_SECRET=secretref:file:/run/secrets/jwt
//	REFDATA_API_KEYS=ops=secretref:env:OPS_API_KEY
//
// A Resolver expands ${VAR} strictly and then replaces each
// secretref:<provider>:<ref> with the value returned by the named Provider.
package secret
