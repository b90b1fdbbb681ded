// internal/app/features/editlogs/handler.go
package editlogs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/rollcall/internal/app/store/editlog"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"github.com/dalemusser/rollcall/internal/app/system/normalize"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the manual edit audit trail, newest first.
type Handler struct {
	Edits *editlog.Store
	Log   *zap.Logger
}

func NewHandler(edits *editlog.Store, logger *zap.Logger) *Handler {
	return &Handler{Edits: edits, Log: logger}
}

type entryView struct {
	ID            primitive.ObjectID `json:"id"`
	Username      string             `json:"username"`
	AdminUsername string             `json:"admin_username"`
	SessionID     string             `json:"session_id,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	Description   string             `json:"description"`
}

// HandleList handles GET /editlogs?limit=&offset=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(query.Get(r, "limit"), 100)
	offset := parseInt(query.Get(r, "offset"), 0)

	entries, err := h.Edits.List(r.Context(), limit, offset)
	if err != nil {
		h.Log.Error("editlogs: list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.write(w, entries)
}

// HandleByUsername handles GET /editlogs/{username}.
func (h *Handler) HandleByUsername(w http.ResponseWriter, r *http.Request) {
	username := normalize.Username(chi.URLParam(r, "username"))
	limit := parseInt(query.Get(r, "limit"), 100)

	entries, err := h.Edits.ByUsername(r.Context(), username, limit)
	if err != nil {
		h.Log.Error("editlogs: lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.write(w, entries)
}

func (h *Handler) write(w http.ResponseWriter, entries []models.EditEntry) {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:            e.ID,
			Username:      e.Username,
			AdminUsername: e.AdminUsername,
			SessionID:     e.SessionID,
			Timestamp:     e.Timestamp,
			Description:   e.Description,
		})
	}
	httpjson.Write(w, http.StatusOK, views)
}

func parseInt(s string, fallback int64) int64 {
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
