// internal/app/features/chart/handler.go
package chart

import (
	"net/http"
	"time"

	"github.com/dalemusser/rollcall/internal/app/attendance"
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// Handler serves the admin attendance chart: every member crossed with
// every session, plus the manual correction endpoints.
type Handler struct {
	Engine *attendance.Engine
	Log    *zap.Logger
}

func NewHandler(engine *attendance.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type chartSession struct {
	ID        string    `json:"id"`
	Open      bool      `json:"open"`
	CreatedAt time.Time `json:"created_at"`
}

type chartRow struct {
	Username string            `json:"username"`
	Name     string            `json:"name"`
	Absences int               `json:"absences"`
	Statuses map[string]string `json:"statuses"` // session id -> present|proxy|absent
}

type chartResponse struct {
	Sessions []chartSession `json:"sessions"`
	Rows     []chartRow     `json:"rows"`
}

// HandleChart handles GET /chart. Sessions are columns oldest first,
// members are rows ordered by username.
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := h.Engine.Meetings.List(ctx)
	if err != nil {
		h.Log.Error("chart: session list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	members, err := h.Engine.Members.List(ctx)
	if err != nil {
		h.Log.Error("chart: member list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := chartResponse{
		Sessions: make([]chartSession, 0, len(sessions)),
		Rows:     make([]chartRow, 0, len(members)),
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, chartSession{ID: s.ID, Open: s.Open, CreatedAt: s.CreatedAt})
	}
	for _, m := range members {
		row := chartRow{
			Username: m.Username,
			Name:     m.Name,
			Absences: m.Absences,
			Statuses: make(map[string]string, len(sessions)),
		}
		for _, s := range sessions {
			status := attendance.StatusAbsent
			if mk, ok := m.MarkingFor(s.ID); ok {
				status = mk.Kind
			}
			row.Statuses[s.ID] = status
		}
		resp.Rows = append(resp.Rows, row)
	}

	httpjson.Write(w, http.StatusOK, resp)
}

type setMarkingRequest struct {
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// HandleSetMarking handles POST /chart/marking.
func (h *Handler) HandleSetMarking(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.Caller(r)

	var req setMarkingRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	if err := h.Engine.SetMarking(r.Context(), c, req.Username, req.SessionID, req.Status); err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "updated"})
}

type setAbsencesRequest struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// HandleSetAbsences handles POST /chart/absences, the raw count
// override.
func (h *Handler) HandleSetAbsences(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.Caller(r)

	var req setAbsencesRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	if err := h.Engine.SetAbsenceCount(r.Context(), c, req.Username, req.Count); err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleReset handles POST /chart/reset, zeroing every member's absence
// count.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.Caller(r)

	n, err := h.Engine.ResetAbsences(r.Context(), c)
	if err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"status": "reset", "members_updated": n})
}
