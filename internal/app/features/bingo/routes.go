package bingo

import "github.com/go-chi/chi/v5"

// Routes returns the router for bingo endpoints. Bingo is open to guests,
// so these mount outside the signed-in middleware; signed-in players are
// still recognized from their session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/tasks", h.ServeTasks)
	r.Get("/board", h.ServeBoard)
	r.Get("/games/{eventID}", h.ServeGame)
	r.Post("/games/{eventID}/join", h.ServeJoin)
	r.Post("/games/{eventID}/mark", h.ServeMark)
	r.Post("/games/{eventID}/declare-winner", h.ServeDeclareWinner)
	return r
}

// StreamRoutes returns the public websocket router for game snapshots.
func StreamRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{eventID}", h.ServeStream)
	return r
}
