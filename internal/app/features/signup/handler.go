// internal/app/features/signup/handler.go
package signup

import (
	"errors"
	"net/http"

	"github.com/dalemusser/rollcall/internal/app/store/members"
	"github.com/dalemusser/rollcall/internal/app/system/authutil"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"github.com/dalemusser/rollcall/internal/app/system/inputval"
	"github.com/dalemusser/rollcall/internal/app/system/normalize"
	"github.com/dalemusser/rollcall/internal/app/system/roster"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"go.uber.org/zap"
)

// Handler creates member accounts. Registration is gated on the
// organization roster: only usernames on the roster may sign up.
type Handler struct {
	Members *members.Store
	Roster  roster.Roster
	Log     *zap.Logger
}

func NewHandler(memberStore *members.Store, r roster.Roster, logger *zap.Logger) *Handler {
	return &Handler{Members: memberStore, Roster: r, Log: logger}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// HandleSignup handles POST /signup. The username is derived from the
// email's local part; the display name comes from the roster.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	if !inputval.IsValidEmail(req.Email) {
		httpjson.Error(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	username := normalize.Username(req.Email)
	if !h.Roster.Eligible(username) {
		h.Log.Warn("signup refused: not on roster", zap.String("username", username))
		httpjson.Error(w, http.StatusForbidden, "you are not on the member roster")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("signup: hashing failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	m, err := h.Members.Create(r.Context(), models.Member{
		Username:     username,
		Name:         h.Roster.DisplayName(username),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, members.ErrDuplicateUsername) {
			httpjson.Error(w, http.StatusConflict, "an account already exists for that email")
			return
		}
		h.Log.Error("signup: create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("member signed up", zap.String("username", m.Username))
	httpjson.Write(w, http.StatusCreated, signupResponse{Username: m.Username, Name: m.Name})
}
