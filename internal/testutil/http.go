package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/rollcall/internal/app/system/caller"
)

// AdminCaller returns a caller context with the admin capability.
func AdminCaller(username string) caller.Context {
	return caller.Context{Username: username, IsAdmin: true}
}

// MemberCaller returns a plain signed-in caller context.
func MemberCaller(username string) caller.Context {
	return caller.Context{Username: username}
}

// WithCaller adds a caller to the request context for testing
// authenticated handlers. This bypasses the session middleware and
// injects the caller directly.
func WithCaller(r *http.Request, c caller.Context) *http.Request {
	return auth.WithTestCaller(r, c)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
