// internal/app/features/chart/routes.go
package chart

import (
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin)

	r.Get("/", h.HandleChart)
	r.Post("/marking", h.HandleSetMarking)
	r.Post("/absences", h.HandleSetAbsences)
	r.Post("/reset", h.HandleReset)

	return r
}
