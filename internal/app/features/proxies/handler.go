// internal/app/features/proxies/handler.go
package proxies

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/rollcall/internal/app/attendance"
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/rollcall/internal/app/system/httpjson"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler manages proxy delegation requests.
type Handler struct {
	Engine *attendance.Engine
	Log    *zap.Logger
}

func NewHandler(engine *attendance.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type submitRequest struct {
	SessionID   string `json:"session_id"`
	ProxyName   string `json:"proxy_name"`
	ProxyingFor string `json:"proxying_for"`
	Description string `json:"description"`
}

type requestView struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	ProxyName   string     `json:"proxy_name"`
	ProxyingFor string     `json:"proxying_for"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

func toView(req models.ProxyRequest) requestView {
	v := requestView{
		ID:          req.ID,
		SessionID:   req.SessionID,
		ProxyName:   req.ProxyName,
		ProxyingFor: req.ProxyingFor,
		Description: req.Description,
		CreatedAt:   req.CreatedAt,
	}
	if !req.ApprovedAt.IsZero() {
		t := req.ApprovedAt
		v.ApprovedAt = &t
	}
	return v
}

// HandleSubmit handles POST /proxies. Any signed-in member may file a
// request; nothing changes until an admin approves it.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	c, ok := auth.Caller(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req submitRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	created, err := h.Engine.SubmitProxy(r.Context(), c, attendance.SubmitProxyInput{
		SessionID:   req.SessionID,
		ProxyName:   req.ProxyName,
		ProxyingFor: req.ProxyingFor,
		Description: req.Description,
	})
	if err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, toView(created))
}

// HandleListPending handles GET /proxies/pending.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Engine.Proxies.ListPending)
}

// HandleListApproved handles GET /proxies/approved.
func (h *Handler) HandleListApproved(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Engine.Proxies.ListApproved)
}

// HandleApprove handles POST /proxies/{requestID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.Caller(r)
	requestID := chi.URLParam(r, "requestID")

	if err := h.Engine.ApproveProxy(r.Context(), c, requestID); err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "approved"})
}

// HandleReject handles POST /proxies/{requestID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.Caller(r)
	requestID := chi.URLParam(r, "requestID")

	if err := h.Engine.RejectProxy(r.Context(), c, requestID); err != nil {
		httpjson.EngineError(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]models.ProxyRequest, error)) {
	reqs, err := fetch(r.Context())
	if err != nil {
		h.Log.Error("proxies: list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]requestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, toView(req))
	}
	httpjson.Write(w, http.StatusOK, views)
}
