package music

import "github.com/go-chi/chi/v5"

// Routes returns the router for music endpoints. Mounted behind the
// signed-in middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/search", h.ServeSearch)
	r.Get("/albums/{id}/tracks", h.ServeAlbumTracks)
	r.Get("/login-url", h.ServeLoginURL)
	return r
}
