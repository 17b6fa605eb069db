package auth

import "github.com/go-chi/chi/v5"

// Routes returns the router for identity endpoints. Register, login, and
// logout are public; /me reports the current session user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.ServeRegister)
	r.Post("/login", h.ServeLogin)
	r.Post("/logout", h.ServeLogout)
	r.Get("/me", h.ServeMe)
	return r
}
