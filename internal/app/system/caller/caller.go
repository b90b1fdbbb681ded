// internal/app/system/caller/caller.go

// Package caller defines the identity every attendance operation runs as.
//
// The identity provider (session auth) hands the core a stable username;
// the core trusts it without re-verifying credentials. Admin capability
// is carried explicitly rather than read from ambient state.
package caller

// Context identifies who is invoking an operation.
type Context struct {
	Username string
	IsAdmin  bool
}
