// internal/app/features/editlogs/routes.go
package editlogs

import (
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin)

	r.Get("/", h.HandleList)
	r.Get("/{username}", h.HandleByUsername)

	return r
}
