// internal/app/features/meetings/handler.go
package meetings

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/rollcall/internal/app/attendance"
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages the attendance session lifecycle.
type Handler struct {
	Engine *attendance.Engine
	Log    *zap.Logger
}

func NewHandler(engine *attendance.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type sessionView struct {
	ID        string     `json:"id"`
	Open      bool       `json:"open"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

func toView(m models.Meeting) sessionView {
	v := sessionView{ID: m.ID, Open: m.Open, CreatedAt: m.CreatedAt}
	if !m.ClosedAt.IsZero() {
		t := m.ClosedAt
		v.ClosedAt = &t
	}
	return v
}

// HandleStart handles POST /sessions. The response carries the new
// session id, which the admin UI renders as the QR code.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.Caller(r)

	m, err := h.Engine.StartSession(r.Context(), c)
	if err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, toView(m))
}

// HandleClose handles POST /sessions/{sessionID}/close.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.Caller(r)
	sessionID := chi.URLParam(r, "sessionID")

	res, err := h.Engine.CloseSession(r.Context(), c, sessionID)
	if err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"session_id":      res.SessionID,
		"absences_added":  res.AbsencesAdded,
		"members_marked":  res.MembersSkipped,
	})
}

// HandleAbort handles POST /sessions/{sessionID}/abort.
func (h *Handler) HandleAbort(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.Caller(r)
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.Engine.AbortSession(r.Context(), c, sessionID); err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "aborted"})
}

// HandleList handles GET /sessions, oldest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Engine.Meetings.List(r.Context())
	if err != nil {
		h.Log.Error("sessions: list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]sessionView, 0, len(list))
	for _, m := range list {
		views = append(views, toView(m))
	}
	httpjson.Write(w, http.StatusOK, views)
}

// HandleCurrent handles GET /sessions/current. Signed-in members use
// this to learn whether a session is running; 404 when none is open.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	m, err := h.Engine.Meetings.FindOpen(r.Context())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "no session is currently open")
			return
		}
		h.Log.Error("sessions: current lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpjson.Write(w, http.StatusOK, toView(*m))
}
