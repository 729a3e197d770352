// Package auth manages the session with the remote manga service.
//
// A Session is constructed once at process start and passed to the
// components that need it (sync engine, CLI commands). The bearer token is
// never held in memory between calls; it lives in the credential store and
// is read on demand.
//
// # Lifecycle
//
//	session := auth.NewSession(client, store, auth.WithLogger(log))
//	session.Bootstrap(ctx)              // restore a stored token, if still valid
//	err := session.Login(ctx, email, pw) // store a fresh token and load the profile
//	session.Logout()                     // forget the token
//
// # Failure handling
//
// Authorization failures (HTTP 401/403) while loading the profile or
// refreshing the token force a logout. Other components report such failures
// through Invalidate so that a revoked token is dropped wherever it is
// detected.
//
// # Errors
//
//	ErrInvalidCredentials  empty email/password or password too short
//	ErrNetwork             the remote step succeeded but the token could not be stored
//	ErrInvalidToken        refresh attempted without a stored token
package auth
