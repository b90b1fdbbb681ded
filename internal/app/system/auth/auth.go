// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/rollcall/internal/app/system/caller"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// SessionName is the cookie name holding the signed session. It can be
// overridden from config before the first request is served.
var SessionName = "rollcall-session"

const (
	isAuthKey   = "is_authenticated"
	usernameKey = "username"
	isAdminKey  = "is_admin"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

var log = zap.NewNop()

type ctxKey string

const callerKey ctxKey = "caller"

// Caller returns the caller context and a found flag.
func Caller(r *http.Request) (caller.Context, bool) {
	c, ok := r.Context().Value(callerKey).(caller.Context)
	return c, ok
}

// LoadCaller injects the caller identity into the request context if the
// session cookie marks them as signed in. If the session store has not
// been initialized yet, it is a no-op.
func LoadCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := Store.Get(r, SessionName)
		if err != nil {
			// A cookie signed with a rotated key fails to decode; treat
			// the caller as signed out and let them log in again.
			if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
				log.Debug("stale session cookie, treating as signed out", zap.Error(err))
			} else {
				log.Warn("session store error, treating as signed out", zap.Error(err))
			}
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			c := caller.Context{
				Username: getString(sess, usernameKey),
			}
			c.IsAdmin, _ = sess.Values[isAdminKey].(bool)
			r = withCaller(r, c)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures a caller is present in context (set by LoadCaller).
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := Caller(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures the caller is signed in and holds the admin
// capability. Engine operations re-check IsAdmin themselves; this
// middleware just fails fast at the route boundary.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := Caller(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !c.IsAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn writes the caller identity into the session cookie.
func SignIn(w http.ResponseWriter, r *http.Request, c caller.Context) error {
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[usernameKey] = c.Username
	sess.Values[isAdminKey] = c.IsAdmin
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// InitSessionStore initializes the global session Store. The secure flag
// controls Secure cookies and the SameSite mode; use secure=false for
// local dev over http://localhost.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	Store = store
	log = logger

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))
	return nil
}

// WithTestCaller injects a caller directly into the request context,
// bypassing session middleware. Tests only.
func WithTestCaller(r *http.Request, c caller.Context) *http.Request {
	return withCaller(r, c)
}

func withCaller(r *http.Request, c caller.Context) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), callerKey, c))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
