// internal/app/features/dashboard/handler.go
package dashboard

import (
	"errors"
	"net/http"

	"github.com/dalemusser/rollcall/internal/app/store/meetings"
	"github.com/dalemusser/rollcall/internal/app/store/members"
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves a member's own attendance view.
type Handler struct {
	Members  *members.Store
	Meetings *meetings.Store
	Log      *zap.Logger
}

func NewHandler(memberStore *members.Store, meetingStore *meetings.Store, logger *zap.Logger) *Handler {
	return &Handler{Members: memberStore, Meetings: meetingStore, Log: logger}
}

type markingView struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

type dashboardResponse struct {
	Username      string        `json:"username"`
	Name          string        `json:"name"`
	Absences      int           `json:"absences"`
	SessionsTotal int64         `json:"sessions_total"`
	SessionOpen   bool          `json:"session_open"`
	Markings      []markingView `json:"markings"`
}

// HandleDashboard handles GET /dashboard for the signed-in member.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := auth.Caller(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	m, err := h.Members.GetByUsername(r.Context(), c.Username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "member record not found")
			return
		}
		h.Log.Error("dashboard: member lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	total, err := h.Meetings.Count(r.Context())
	if err != nil {
		h.Log.Error("dashboard: session count failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	sessionOpen := false
	if _, err := h.Meetings.FindOpen(r.Context()); err == nil {
		sessionOpen = true
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.Log.Error("dashboard: open session lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := dashboardResponse{
		Username:      m.Username,
		Name:          m.Name,
		Absences:      m.Absences,
		SessionsTotal: total,
		SessionOpen:   sessionOpen,
		Markings:      make([]markingView, 0, len(m.Markings)),
	}
	for _, mk := range m.Markings {
		resp.Markings = append(resp.Markings, markingView{SessionID: mk.SessionID, Kind: mk.Kind})
	}
	httpjson.Write(w, http.StatusOK, resp)
}
