// Package music proxies the music catalog and builds the browser's
// playback-authorization URL.
package music

import (
	"net/http"

	"github.com/cinecircle/cinecircle/internal/app/clients/spotify"
	"github.com/cinecircle/cinecircle/internal/app/system/httpjson"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// playbackScopes are the user scopes the browser needs for in-page playback.
var playbackScopes = []string{"streaming", "user-read-email", "user-read-private"}

// Handler serves music catalog endpoints.
type Handler struct {
	Catalog     *spotify.Client
	RedirectURL string
	Log         *zap.Logger
}

// NewHandler constructs a music Handler. baseURL is the externally visible
// origin; the implicit-flow redirect lands on /music/callback, a static
// page that reads the token fragment.
func NewHandler(catalog *spotify.Client, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Catalog:     catalog,
		RedirectURL: baseURL + "/music/callback",
		Log:         logger,
	}
}

// ServeSearch handles GET /api/music/search?q=&type=.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	q := query.Get(r, "q")
	if q == "" {
		httpjson.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	result, err := h.Catalog.Search(r.Context(), q, query.Get(r, "type"))
	if err != nil {
		h.Log.Warn("music search failed", zap.String("q", q), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "music catalog unavailable")
		return
	}
	httpjson.OK(w, result)
}

// ServeAlbumTracks handles GET /api/music/albums/{id}/tracks.
func (h *Handler) ServeAlbumTracks(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "id")
	if albumID == "" {
		httpjson.Error(w, http.StatusBadRequest, "album id is required")
		return
	}

	tracks, err := h.Catalog.AlbumTracks(r.Context(), albumID)
	if err != nil {
		h.Log.Warn("album tracks failed", zap.String("album", albumID), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "music catalog unavailable")
		return
	}
	httpjson.OK(w, tracks)
}

// ServeLoginURL handles GET /api/music/login-url. The browser completes
// the implicit flow itself; the access token arrives in the redirect URL
// fragment and never reaches this server.
func (h *Handler) ServeLoginURL(w http.ResponseWriter, r *http.Request) {
	state := query.Get(r, "state")
	url := h.Catalog.UserLoginURL(h.RedirectURL, state, playbackScopes)
	httpjson.OK(w, map[string]string{"url": url})
}
