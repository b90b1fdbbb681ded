// internal/app/features/checkin/routes.go
package checkin

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleCheckIn)
	return r
}
