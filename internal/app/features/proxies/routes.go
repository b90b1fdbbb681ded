// internal/app/features/proxies/routes.go
package proxies

import (
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleSubmit)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/pending", h.HandleListPending)
		r.Get("/approved", h.HandleListApproved)
		r.Post("/{requestID}/approve", h.HandleApprove)
		r.Post("/{requestID}/reject", h.HandleReject)
	})

	return r
}
