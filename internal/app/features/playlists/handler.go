// Package playlists serves owner-scoped playlist CRUD.
package playlists

import (
	"context"
	"net/http"

	playliststore "github.com/cinecircle/cinecircle/internal/app/store/playlists"
	sessionauth "github.com/cinecircle/cinecircle/internal/app/system/auth"
	"github.com/cinecircle/cinecircle/internal/app/system/htmlsanitize"
	"github.com/cinecircle/cinecircle/internal/app/system/httpjson"
	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/cinecircle/cinecircle/internal/app/system/timeouts"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves playlist endpoints.
type Handler struct {
	Playlists *playliststore.Store
	Log       *zap.Logger
}

// NewHandler constructs a playlists Handler.
func NewHandler(playlists *playliststore.Store, logger *zap.Logger) *Handler {
	return &Handler{Playlists: playlists, Log: logger}
}

type entryRequest struct {
	Title     string `json:"title"`
	TMDBID    int64  `json:"tmdb_id"`
	PosterURL string `json:"poster_url"`
}

func toEntries(in []entryRequest) []models.PlaylistEntry {
	out := make([]models.PlaylistEntry, 0, len(in))
	for _, e := range in {
		out = append(out, models.PlaylistEntry{
			Title:     htmlsanitize.Sanitize(e.Title),
			TMDBID:    e.TMDBID,
			PosterURL: e.PosterURL,
		})
	}
	return out
}

func ownerID(r *http.Request) (primitive.ObjectID, bool) {
	user, ok := sessionauth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeCreate handles POST /api/playlists.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Name   string         `json:"name"`
		Movies []entryRequest `json:"movies"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := htmlsanitize.Sanitize(normalize.Name(req.Name))
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Playlists.Create(ctx, owner, name, toEntries(req.Movies))
	if err != nil {
		h.Log.Error("playlist create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create playlist")
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// ServeList handles GET /api/playlists.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	lists, err := h.Playlists.ListForOwner(ctx, owner)
	if err != nil {
		h.Log.Error("playlist list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not list playlists")
		return
	}

	httpjson.OK(w, lists)
}

// ServeGet handles GET /api/playlists/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pl, err := h.Playlists.GetByID(ctx, id, owner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "playlist not found")
			return
		}
		h.Log.Error("playlist get failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load playlist")
		return
	}

	httpjson.OK(w, pl)
}

// ServeUpdate handles PUT /api/playlists/{id}. Replaces the name and/or
// the ordered movie list.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	var req struct {
		Name   string         `json:"name"`
		Movies []entryRequest `json:"movies"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := playliststore.Update{Name: htmlsanitize.Sanitize(normalize.Name(req.Name))}
	if req.Movies != nil {
		upd.Movies = toEntries(req.Movies)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pl, err := h.Playlists.Update(ctx, id, owner, upd)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "playlist not found")
			return
		}
		h.Log.Error("playlist update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update playlist")
		return
	}

	httpjson.OK(w, pl)
}

// ServeDelete handles DELETE /api/playlists/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Playlists.Delete(ctx, id, owner)
	if err != nil {
		h.Log.Error("playlist delete failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete playlist")
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "playlist not found")
		return
	}

	httpjson.OK(w, map[string]string{"status": "deleted"})
}
