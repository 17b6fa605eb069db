package movies

import "github.com/go-chi/chi/v5"

// Routes returns the router for catalog endpoints. Mounted behind the
// signed-in middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/discover", h.ServeDiscover)
	r.Get("/search", h.ServeSearch)
	r.Get("/genres", h.ServeGenres)
	r.Get("/{id}", h.ServeDetail)
	return r
}
