// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/rollcall/internal/app/store/members"
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/rollcall/internal/app/system/authutil"
	"github.com/dalemusser/rollcall/internal/app/system/caller"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"github.com/dalemusser/rollcall/internal/app/system/normalize"
	"github.com/dalemusser/rollcall/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler authenticates members against their stored password hash.
// Admin capability is granted by configuration, not stored per member.
type Handler struct {
	Members *members.Store
	Admins  map[string]bool
	Limiter *ratelimit.Limiter
	Log     *zap.Logger
}

func NewHandler(memberStore *members.Store, adminUsernames []string, logger *zap.Logger) *Handler {
	admins := make(map[string]bool, len(adminUsernames))
	for _, u := range adminUsernames {
		admins[normalize.Username(u)] = true
	}
	return &Handler{
		Members: memberStore,
		Admins:  admins,
		Limiter: ratelimit.New(10, time.Minute),
		Log:     logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"is_admin"`
}

// HandleLogin handles POST /login. Attempts are rate limited per client
// IP; a successful sign-in clears the window.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	if !h.Limiter.Allow(ip) {
		h.Log.Warn("login: rate limited", zap.String("ip", ip))
		httpjson.Error(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	var req loginRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	username := normalize.Username(req.Email)
	if username == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	m, err := h.Members.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login: lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !authutil.CheckPassword(req.Password, m.PasswordHash) {
		h.Log.Warn("login: bad password", zap.String("username", username))
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.Limiter.Reset(ip)

	c := caller.Context{Username: m.Username, IsAdmin: h.Admins[m.Username]}
	if err := auth.SignIn(w, r, c); err != nil {
		h.Log.Error("login: session save failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("member signed in",
		zap.String("username", m.Username),
		zap.Bool("is_admin", c.IsAdmin))
	httpjson.Write(w, http.StatusOK, loginResponse{Username: m.Username, Name: m.Name, IsAdmin: c.IsAdmin})
}
