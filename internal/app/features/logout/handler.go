// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// HandleLogout handles POST /logout. Clearing an already-empty session
// is fine; the endpoint is idempotent.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Error("logout: session clear failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "signed out"})
}
