package events

import "github.com/go-chi/chi/v5"

// Routes returns the router for event endpoints. Mounted behind the
// signed-in middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreate)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.ServeUpdate)
	r.Post("/{id}/invite", h.ServeInvite)
	r.Post("/{id}/vote", h.ServeVote)
	return r
}

// StreamRoutes returns the public websocket router. Auth happens via
// ticket validation during the upgrade, not the session cookie.
func StreamRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.ServeStream)
	return r
}
