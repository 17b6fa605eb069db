package users

import "github.com/go-chi/chi/v5"

// Routes returns the router for user lookup endpoints. Mounted behind the
// signed-in middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/lookup", h.ServeLookup)
	return r
}
