// Package auth serves the email/password identity endpoints.
package auth

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/cinecircle/cinecircle/internal/app/store/users"
	sessionauth "github.com/cinecircle/cinecircle/internal/app/system/auth"
	"github.com/cinecircle/cinecircle/internal/app/system/htmlsanitize"
	"github.com/cinecircle/cinecircle/internal/app/system/httpjson"
	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/cinecircle/cinecircle/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const minPasswordLength = 8

// Handler serves register, login, logout, and current-user endpoints.
type Handler struct {
	Users      *userstore.Store
	SessionMgr *sessionauth.SessionManager
	Log        *zap.Logger
}

// NewHandler constructs an auth Handler.
func NewHandler(users *userstore.Store, sessionMgr *sessionauth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Users: users, SessionMgr: sessionMgr, Log: logger}
}

// userResponse is the public view of a signed-in user.
type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ServeRegister handles POST /api/auth/register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := htmlsanitize.Sanitize(normalize.Name(req.Name))
	email := normalize.Email(req.Email)
	switch {
	case name == "":
		httpjson.Error(w, http.StatusBadRequest, "name is required")
		return
	case email == "":
		httpjson.Error(w, http.StatusBadRequest, "email is required")
		return
	case len(req.Password) < minPasswordLength:
		httpjson.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.CreateWithPassword(ctx, name, email, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Error(w, http.StatusConflict, "an account with that email already exists")
			return
		}
		h.Log.Error("register failed", zap.String("email", email), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create account")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, user.ID.Hex()); err != nil {
		h.Log.Error("sign-in after register failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not start session")
		return
	}

	httpjson.Write(w, http.StatusCreated, userResponse{
		ID:    user.ID.Hex(),
		Name:  user.Name,
		Email: user.Email,
	})
}

// ServeLogin handles POST /api/auth/login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.Authenticate(ctx, normalize.Email(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrBadCredentials) {
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not sign in")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, user.ID.Hex()); err != nil {
		h.Log.Error("sign-in failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not start session")
		return
	}

	httpjson.OK(w, userResponse{
		ID:    user.ID.Hex(),
		Name:  user.Name,
		Email: user.Email,
	})
}

// ServeLogout handles POST /api/auth/logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign-out failed", zap.Error(err))
	}
	httpjson.OK(w, map[string]string{"status": "signed_out"})
}

// ServeMe handles GET /api/auth/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionauth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpjson.OK(w, userResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}
