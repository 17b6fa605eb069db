package realtimeticket

import "github.com/go-chi/chi/v5"

// Routes returns the router for ticket issuance. Public, since bingo
// guests need tickets too.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/ticket", h.Serve)
	return r
}
