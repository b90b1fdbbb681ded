// internal/app/features/checkin/handler.go
package checkin

import (
	"net/http"

	"github.com/dalemusser/rollcall/internal/app/attendance"
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// Handler records attendance scans. The scanned QR payload is the
// session id; the engine decides whether the scan marks the caller or a
// member they hold an approved proxy for.
type Handler struct {
	Engine *attendance.Engine
	Log    *zap.Logger
}

func NewHandler(engine *attendance.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type checkinRequest struct {
	Payload string `json:"payload"`
}

type checkinResponse struct {
	SessionID     string `json:"session_id"`
	Marked        string `json:"marked"`
	Kind          string `json:"kind"`
	AlreadyMarked bool   `json:"already_marked"`
}

// HandleCheckIn handles POST /checkin.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	c, ok := auth.Caller(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req checkinRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	res, err := h.Engine.CheckIn(r.Context(), c, req.Payload)
	if err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}

	httpjson.Write(w, http.StatusOK, checkinResponse{
		SessionID:     res.SessionID,
		Marked:        res.MarkedUsername,
		Kind:          res.Kind,
		AlreadyMarked: res.AlreadyMarked,
	})
}
