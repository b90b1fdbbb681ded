// internal/app/features/meetings/routes.go
package meetings

import (
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/current", h.HandleCurrent)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleStart)
		r.Post("/{sessionID}/close", h.HandleClose)
		r.Post("/{sessionID}/abort", h.HandleAbort)
	})

	return r
}
